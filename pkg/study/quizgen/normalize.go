package quizgen

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"ai-studyquiz-be/pkg/study/evaluator"
	"ai-studyquiz-be/pkg/study/quiz"

	"github.com/tidwall/gjson"
)

var (
	optionLabel = regexp.MustCompile(`^\s*(?:\(([A-Za-z]|\d{1,2})\)|([A-Za-z]|\d{1,2})[.):])\s+`)
	firstNumber = regexp.MustCompile(`\d+`)
)

// Normalize converts a raw AI payload (an array, or an object with a
// "questions" array, or a single question object) into canonical questions.
// Items missing a question or an answer are dropped.
func Normalize(payload gjson.Result, requested quiz.RequestType) []quiz.Question {
	var items []gjson.Result
	switch {
	case payload.IsArray():
		items = payload.Array()
	case payload.Get("questions").IsArray():
		items = payload.Get("questions").Array()
	case payload.IsObject() && firstOf(payload, "question", "questionText").Exists():
		items = []gjson.Result{payload}
	}

	out := make([]quiz.Question, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		if q, ok := normalizeItem(item, requested); ok {
			out = append(out, q)
		}
	}
	return out
}

func normalizeItem(item gjson.Result, requested quiz.RequestType) (quiz.Question, bool) {
	options := normalizeOptions(firstOf(item, "options", "choices", "answers"))
	label := firstOf(item, "type", "questionType", "question_type").String()

	q := quiz.Question{
		Type:          quiz.KindForLabel(label, requested, len(options) > 0),
		Question:      strings.TrimSpace(firstOf(item, "question", "questionText", "prompt").String()),
		CorrectAnswer: normalizeAnswer(firstOf(item, "correctAnswer", "correct_answer", "answer", "correct")),
		Explanation:   strings.TrimSpace(firstOf(item, "explanation", "rationale").String()),
	}

	if q.Type == quiz.KindMCQ {
		if len(options) < 2 {
			q.Type = quiz.KindShort
		} else {
			q.Options = options
			q.CorrectAnswer = stripLabel(q.CorrectAnswer)
		}
	}

	return q, q.Valid()
}

func firstOf(item gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

type keyed struct {
	order int
	pos   int
	text  string
}

// normalizeOptions accepts an array, an object keyed by letters or numbers, or
// a JSON string holding either.
func normalizeOptions(v gjson.Result) []string {
	var raw []string
	switch {
	case !v.Exists():
		return nil
	case v.IsArray():
		for _, item := range v.Array() {
			if item.IsObject() {
				raw = append(raw, firstOf(item, "text", "option", "value", "label").String())
			} else {
				raw = append(raw, item.String())
			}
		}
	case v.IsObject():
		var entries []keyed
		pos := 0
		v.ForEach(func(key, value gjson.Result) bool {
			entries = append(entries, keyed{order: keyOrder(key.String(), pos), pos: pos, text: value.String()})
			pos++
			return true
		})
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
		for _, e := range entries {
			raw = append(raw, e.text)
		}
	case v.Type == gjson.String:
		s := strings.TrimSpace(v.String())
		if (strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")) && gjson.Valid(s) {
			return normalizeOptions(gjson.Parse(s))
		}
		if strings.Contains(s, "\n") {
			raw = strings.Split(s, "\n")
		}
	}

	out := make([]string, 0, len(raw))
	for _, o := range raw {
		if o = stripLabel(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// keyOrder ranks "A"/"b"/"option_c" by letter and "1"/"2" by number; anything
// else keeps document position after them.
func keyOrder(key string, pos int) int {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "option")
	k = strings.Trim(k, " _-")
	if n, err := strconv.Atoi(k); err == nil {
		return n - 1
	}
	if len(k) == 1 && k[0] >= 'a' && k[0] <= 'z' {
		return int(k[0] - 'a')
	}
	return 1000 + pos
}

func stripLabel(s string) string {
	s = strings.TrimSpace(s)
	if loc := optionLabel.FindStringIndex(s); loc != nil && loc[1] < len(s) {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// normalizeAnswer flattens {"Part 1": ..., "Part 2": ...} objects in part order.
func normalizeAnswer(v gjson.Result) string {
	switch {
	case !v.Exists():
		return ""
	case v.IsObject():
		var entries []keyed
		pos := 0
		v.ForEach(func(key, value gjson.Result) bool {
			order := 1000 + pos
			if m := firstNumber.FindString(key.String()); m != "" {
				order, _ = strconv.Atoi(m)
			}
			entries = append(entries, keyed{order: order, pos: pos, text: strings.TrimSpace(value.String())})
			pos++
			return true
		})
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.text != "" {
				parts = append(parts, e.text)
			}
		}
		return strings.Join(parts, " ")
	case v.IsArray():
		parts := make([]string, 0)
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return strings.TrimSpace(v.String())
}

// dedupe drops questions whose normalized text was already seen.
func dedupe(seen map[string]bool, questions []quiz.Question) []quiz.Question {
	out := questions[:0]
	for _, q := range questions {
		key := evaluator.Normalize(q.Question)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
