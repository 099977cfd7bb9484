package generation

import (
	_ "embed"
	"fmt"
	"strings"
)

// Kind is the type of document to generate. It doubles as the cache type tag.
type Kind string

const (
	KindResume      Kind = "resume"
	KindCoverLetter Kind = "cover-letter"
)

var (
	//go:embed resume_prompt.md
	resumePrompt string
	//go:embed cover_letter_prompt.md
	coverLetterPrompt string
)

func Kinds() []Kind {
	return []Kind{KindResume, KindCoverLetter}
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindResume, KindCoverLetter:
		return k, nil
	case "cover_letter", "coverletter", "cover":
		return KindCoverLetter, nil
	default:
		return "", fmt.Errorf("unknown document kind %q", s)
	}
}

func (k Kind) template() string {
	switch k {
	case KindResume:
		return resumePrompt
	case KindCoverLetter:
		return coverLetterPrompt
	default:
		return ""
	}
}

func buildPrompt(kind Kind, jobJSON, source, optionsJSON string) string {
	template := kind.template()
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\n\nSource:\n{{SOURCE}}\n\nOptions:\n{{OPTIONS_JSON}}\n"
	}

	prompt := strings.ReplaceAll(template, "{{JOB_JSON}}", jobJSON)
	prompt = strings.ReplaceAll(prompt, "{{OPTIONS_JSON}}", optionsJSON)
	// source goes last so placeholders inside the user's document are left alone
	prompt = strings.ReplaceAll(prompt, "{{SOURCE}}", source)
	return prompt
}
