package skill

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyBundle is returned when a prompt is requested for a bundle
// with no scripts.
var ErrEmptyBundle = errors.New("bundle has no scripts")

// maxPromptSteps caps how many steps are embedded in a prompt so a
// runaway exploration cannot produce an oversized request.
const maxPromptSteps = 200

// BuildAnnotationPrompt constructs the prompt asking the model for a
// short prose description of what a bundle automates. All embedded text
// is sanitized and fenced with XML-style tags so screen content read off
// an arbitrary app cannot break out of the data section.
func BuildAnnotationPrompt(bundle *Bundle) (string, error) {
	if bundle == nil || len(bundle.Scripts) == 0 {
		return "", ErrEmptyBundle
	}

	var steps strings.Builder
	total := 0
	for _, script := range bundle.Scripts {
		fmt.Fprintf(&steps, "<script name=%q>\n", SanitizeName(script.Name))
		for i, step := range script.Steps {
			if total >= maxPromptSteps {
				break
			}
			total++
			fmt.Fprintf(&steps, "%d. kind=%s action=%s target=%q", i+1, step.Kind, step.Action, SanitizeTarget(step.Target))
			if step.Landmark != "" {
				fmt.Fprintf(&steps, " landmark=%q", SanitizeLandmark(step.Landmark))
			}
			steps.WriteString("\n")
		}
		steps.WriteString("</script>\n")
	}

	prompt := fmt.Sprintf(`Describe what the following UI automation skill does.

<skill>
<app_name>%s</app_name>
<goal>%s</goal>
%s</skill>

<requirements>
- Write 2-4 sentences of plain prose aimed at a person deciding whether to run this skill
- Mention the app name and where in the app the skill ends up
- Do not repeat the step list or use markdown formatting
- Return ONLY the description text
</requirements>`,
		SanitizeName(bundle.AppName),
		SanitizeTarget(bundle.Goal),
		steps.String(),
	)

	return prompt, nil
}
