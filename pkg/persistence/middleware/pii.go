package middleware

import (
	"regexp"

	"github.com/aretw0/onboard/pkg/domain"
)

// Mask replaces redacted values.
const Mask = "***"

// DefaultPIIPatterns match the slot fields carrying personal data.
var DefaultPIIPatterns = []string{`(?i)taxCode`, `(?i)email`, `(?i)digitalAddress`, `^` + domain.SlotContactEmail + `$`}

// Redactor masks values of keys matching its patterns. Masking is lossy, so
// it is applied to copies rendered for operators, never to stored history.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the key patterns.
func NewRedactor(patternStrings []string) (*Redactor, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return &Redactor{patterns: patterns}, nil
}

// Redact returns a deep copy of h with matching values masked.
func (r *Redactor) Redact(h *domain.History) *domain.History {
	if h == nil {
		return nil
	}
	out := *h
	out.Entries = make([]domain.Slots, len(h.Entries))
	for i, e := range h.Entries {
		out.Entries[i] = r.maskMap(e)
	}
	return &out
}

func (r *Redactor) maskMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if r.matches(k) {
			out[k] = Mask
			continue
		}
		out[k] = r.maskValue(v)
	}
	return out
}

func (r *Redactor) maskValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return r.maskMap(val)
	case domain.Slots:
		return r.maskMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.maskValue(item)
		}
		return out
	default:
		return v
	}
}

func (r *Redactor) matches(key string) bool {
	for _, p := range r.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
