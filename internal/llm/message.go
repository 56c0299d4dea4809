package llm

import "strings"

// Message is one outbound request to the interviewer. Content is what the
// candidate said (or the synthetic opening). Directive is out-of-band
// steering that must never be shown back to the candidate.
type Message struct {
	Content   string
	Directive string
}

// HasDirective reports whether the message carries hidden steering.
func (m Message) HasDirective() bool {
	return strings.TrimSpace(m.Directive) != ""
}

// joinSystem appends a per-message directive to the standing system text.
func joinSystem(system, directive string) string {
	system = strings.TrimSpace(system)
	directive = strings.TrimSpace(directive)
	switch {
	case system == "":
		return directive
	case directive == "":
		return system
	default:
		return system + "\n\n" + directive
	}
}
