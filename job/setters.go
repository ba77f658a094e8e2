package job

func SetStatus(status Status) UpdateSetter {
	return func(j *ExplorationJob) error {
		if !status.IsValid() {
			return ErrInvalidStatus
		}
		j.Status = status
		return nil
	}
}

func SetConfig(config JSONMap) UpdateSetter {
	return func(j *ExplorationJob) error {
		j.Config = config
		return nil
	}
}

func SetResult(result JSONMap) UpdateSetter {
	return func(j *ExplorationJob) error {
		j.Result = result
		return nil
	}
}
