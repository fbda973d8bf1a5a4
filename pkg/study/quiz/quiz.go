// Package quiz holds the canonical question model shared by generation,
// evaluation and persistence.
package quiz

import (
	"strings"
	"unicode"

	"ai-studyquiz-be/pkg/apperr"
)

// Kind is the canonical stored question type.
type Kind string

const (
	KindMCQ   Kind = "mcq"
	KindShort Kind = "short"
)

// RequestType is what a caller may ask the generator for.
type RequestType string

const (
	RequestMCQ             RequestType = "mcq"
	RequestEssay           RequestType = "essay"
	RequestStructuredEssay RequestType = "structured_essay"
	RequestMixed           RequestType = "mixed"
)

func ParseRequestType(s string) (RequestType, error) {
	switch t := RequestType(strings.ToLower(strings.TrimSpace(s))); t {
	case RequestMCQ, RequestEssay, RequestStructuredEssay, RequestMixed:
		return t, nil
	case "":
		return RequestMCQ, nil
	}
	return "", apperr.Validation("type must be one of mcq, essay, structured_essay, mixed")
}

// DefaultKind is the kind used when the upstream gives no usable label.
func (t RequestType) DefaultKind() Kind {
	if t == RequestMCQ {
		return KindMCQ
	}
	return KindShort
}

type Question struct {
	Type          Kind     `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	Fallback      bool     `json:"fallback,omitempty"`
}

// Valid reports whether q can be stored and evaluated.
func (q Question) Valid() bool {
	if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.CorrectAnswer) == "" {
		return false
	}
	if q.Type == KindMCQ {
		return len(q.Options) >= 2
	}
	return q.Type == KindShort
}

// Clone returns a deep copy, used for frozen snapshots.
func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = append([]string(nil), q.Options...)
	}
	return c
}

// OptionLetter returns "A".."Z" for index i.
func OptionLetter(i int) string {
	if i < 0 || i >= 26 {
		return ""
	}
	return string(rune('A' + i))
}

// labelKinds maps every upstream type label seen in the wild to a canonical
// kind. Keys are lower-case with spaces and hyphens folded to underscores.
var labelKinds = map[string]Kind{
	"mcq":                      KindMCQ,
	"multiple_choice":          KindMCQ,
	"multiplechoice":           KindMCQ,
	"multiple_choice_question": KindMCQ,
	"multiple":                 KindMCQ,
	"choice":                   KindMCQ,
	"single_choice":            KindMCQ,
	"objective":                KindMCQ,
	"true_false":               KindMCQ,
	"short":                    KindShort,
	"short_answer":             KindShort,
	"shortanswer":              KindShort,
	"essay":                    KindShort,
	"long_answer":              KindShort,
	"structured":               KindShort,
	"structured_essay":         KindShort,
	"structured_question":      KindShort,
	"open":                     KindShort,
	"open_ended":               KindShort,
	"descriptive":              KindShort,
	"subjective":               KindShort,
	"theory":                   KindShort,
	"written":                  KindShort,
}

// NormalizeLabel folds a label into the lookup key form.
func NormalizeLabel(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.NewReplacer(" ", "_", "-", "_").Replace(l)
	return l
}

func isLabelSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// KindForLabel resolves an upstream label. The whole label is looked up first,
// then each of its words in order, so "MCQ Question" resolves through "mcq".
// Unknown or empty labels resolve to the requested kind; for mixed requests the
// presence of options decides.
func KindForLabel(label string, requested RequestType, hasOptions bool) Kind {
	key := NormalizeLabel(label)
	if k, ok := labelKinds[key]; ok {
		return k
	}
	for _, token := range strings.FieldsFunc(key, isLabelSeparator) {
		if k, ok := labelKinds[token]; ok {
			return k
		}
	}
	if requested == RequestMixed {
		if hasOptions {
			return KindMCQ
		}
		return KindShort
	}
	return requested.DefaultKind()
}
