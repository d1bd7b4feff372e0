package genai

import (
	"regexp"
	"strings"
)

// Redaction applied to every hint/chat reply before it reaches the client.
// The generator is untrusted with respect to spoilers, so this runs no
// matter how well the prompt constrains the model.

const (
	optionPlaceholder = "[option]"
	neutralSentence   = "Focus on the approach, not the final option."
)

var (
	enumerantRe = regexp.MustCompile(`(?i)\b[a-d]\s*[\).:\-]\s*`)
	answerIsRe  = regexp.MustCompile(`(?i)\b(answer|correct)\s+(is|:)\s*.*$`)
	fenceOpenRe = regexp.MustCompile("^```[a-zA-Z0-9]*\\s*")
	fenceEndRe  = regexp.MustCompile("```\\s*$")
)

// Sanitize removes letter enumerants ("A)", "b."), masks verbatim option
// text, neutralizes trailing "answer is ..." clauses, strips code fences,
// and truncates to maxRunes.
func Sanitize(text string, options []string, maxRunes int) string {
	out := enumerantRe.ReplaceAllString(text, "")

	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(opt) + `\b`)
		if err != nil {
			continue
		}
		out = re.ReplaceAllString(out, optionPlaceholder)
	}

	out = answerIsRe.ReplaceAllString(out, neutralSentence)
	out = fenceOpenRe.ReplaceAllString(out, "")
	out = fenceEndRe.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)

	return truncate(out, maxRunes)
}

func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes])
}
