// Package evaluator scores submitted answers. Everything here is pure and deterministic.
package evaluator

import (
	"math"
	"strings"
	"unicode"

	"ai-studyquiz-be/pkg/study/quiz"
)

// Normalize lower-cases s, drops everything that is not a letter, digit or
// space, and collapses runs of whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Evaluate reports whether answer is correct for q.
func Evaluate(q quiz.Question, answer string) bool {
	got := Normalize(answer)
	want := Normalize(q.CorrectAnswer)
	if got == want {
		return true
	}
	if q.Type != quiz.KindMCQ || got == "" || want == "" {
		return false
	}

	// letter answer vs option text
	if opt, ok := optionForLetter(q.Options, got); ok && Normalize(opt) == want {
		return true
	}
	// letter correct answer vs submitted text
	if opt, ok := optionForLetter(q.Options, want); ok && Normalize(opt) == got {
		return true
	}
	return false
}

// optionForLetter maps a normalized single-letter answer to its option.
func optionForLetter(options []string, normalized string) (string, bool) {
	if len(normalized) != 1 {
		return "", false
	}
	c := normalized[0]
	if c < 'a' || c > 'z' {
		return "", false
	}
	idx := int(c - 'a')
	if idx >= len(options) {
		return "", false
	}
	return options[idx], true
}

type Result struct {
	Question   quiz.Question `json:"questionSnapshot"`
	UserAnswer string        `json:"userAnswer"`
	IsCorrect  bool          `json:"isCorrect"`
	Score      int           `json:"score"`
	MaxScore   int           `json:"maxScore"`
}

type Summary struct {
	Total      int      `json:"total"`
	Correct    int      `json:"correct"`
	Incorrect  int      `json:"incorrect"`
	Percentage int      `json:"percentage"`
	Results    []Result `json:"perQuestionResults"`
}

// Score evaluates answers positionally. Missing answers count as blank.
func Score(questions []quiz.Question, answers []string) Summary {
	s := Summary{Total: len(questions), Results: make([]Result, 0, len(questions))}
	for i, q := range questions {
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		ok := Evaluate(q, answer)
		r := Result{Question: q.Clone(), UserAnswer: answer, IsCorrect: ok, MaxScore: 1}
		if ok {
			r.Score = 1
			s.Correct++
		} else {
			s.Incorrect++
		}
		s.Results = append(s.Results, r)
	}
	s.Percentage = Percentage(s.Correct, s.Total)
	return s
}

// Percentage is round(part/total*100), 0 when total is 0.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
