package skill

// SetStatus returns a setter that updates the document status.
func SetStatus(status DocumentStatus) UpdateSetter {
	return func(d *Document) error {
		if !status.IsValid() {
			return ErrInvalidDocumentStatus
		}
		d.Status = status
		return nil
	}
}

// SetStoragePath returns a setter that records where the rendered
// script was uploaded.
func SetStoragePath(path string) UpdateSetter {
	return func(d *Document) error {
		if path == "" {
			return ErrInvalidStoragePath
		}
		d.StoragePath = path
		return nil
	}
}

// SetDescription returns a setter that stores the annotation text.
func SetDescription(description string) UpdateSetter {
	return func(d *Document) error {
		d.Description = &description
		return nil
	}
}

// SetErrorMessage returns a setter that records why the document failed.
func SetErrorMessage(message string) UpdateSetter {
	return func(d *Document) error {
		d.ErrorMessage = &message
		return nil
	}
}
