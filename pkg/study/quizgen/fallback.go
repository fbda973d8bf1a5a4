package quizgen

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-studyquiz-be/pkg/study/chunker"
	"ai-studyquiz-be/pkg/study/quiz"
)

// FallbackNote marks every question and explanation produced without the AI.
const FallbackNote = "Fallback: AI unavailable"

const (
	minSentenceWords = 5
	minClozeLetters  = 5
	blank            = "_____"
)

// Fallback builds up to n template questions from the sentences of text,
// starting at sentence offset. It never calls the AI and returns fewer than n
// questions when the text is too sparse.
func Fallback(text string, requested quiz.RequestType, n, offset int) []quiz.Question {
	sentences := usableSentences(text)
	if n <= 0 || offset >= len(sentences) {
		return nil
	}

	out := make([]quiz.Question, 0, n)
	for i := offset; i < len(sentences) && len(out) < n; i++ {
		wantMCQ := requested == quiz.RequestMCQ || (requested == quiz.RequestMixed && i%2 == 0)
		if wantMCQ {
			if q, ok := cloze(sentences, i); ok {
				out = append(out, q)
				continue
			}
		}
		out = append(out, shortFromSentence(sentences[i]))
	}
	return out
}

func usableSentences(text string) []string {
	var out []string
	for _, s := range chunker.Sentences(text) {
		s = strings.Join(strings.Fields(s), " ")
		if len(strings.Fields(s)) >= minSentenceWords {
			out = append(out, s)
		}
	}
	return out
}

func shortFromSentence(s string) quiz.Question {
	return quiz.Question{
		Type:          quiz.KindShort,
		Question:      fmt.Sprintf("Explain the following statement in your own words: \"%s\"", s),
		CorrectAnswer: s,
		Explanation:   FallbackNote + ". The expected answer restates the statement from the study material.",
		Fallback:      true,
	}
}

// cloze blanks the longest word of sentence i and draws three distractors from
// neighbouring sentences. The correct option lands at index i%4.
func cloze(sentences []string, i int) (quiz.Question, bool) {
	answer := longestWord(sentences[i])
	if answer == "" {
		return quiz.Question{}, false
	}

	used := map[string]bool{strings.ToLower(answer): true}
	var distractors []string
	for step := 1; step < len(sentences) && len(distractors) < 3; step++ {
		for _, j := range []int{i + step, i - step} {
			if j < 0 || j >= len(sentences) || len(distractors) == 3 {
				continue
			}
			w := longestWord(sentences[j])
			if w == "" || used[strings.ToLower(w)] {
				continue
			}
			used[strings.ToLower(w)] = true
			distractors = append(distractors, w)
		}
	}
	if len(distractors) < 3 {
		return quiz.Question{}, false
	}

	pos := i % 4
	options := make([]string, 0, 4)
	options = append(options, distractors[:pos]...)
	options = append(options, answer)
	options = append(options, distractors[pos:]...)

	return quiz.Question{
		Type:          quiz.KindMCQ,
		Question:      "Fill in the blank: " + replaceWord(sentences[i], answer, blank),
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   fmt.Sprintf("%s. The original sentence reads: \"%s\"", FallbackNote, sentences[i]),
		Fallback:      true,
	}, true
}

func longestWord(s string) string {
	best := ""
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if utf8.RuneCountInString(w) >= minClozeLetters && utf8.RuneCountInString(w) > utf8.RuneCountInString(best) {
			best = w
		}
	}
	return best
}

func replaceWord(s, word, with string) string {
	return strings.Replace(s, word, with, 1)
}

// FallbackExplanation explains a question without the AI, quoting the source
// sentence that contains the answer when one exists.
func FallbackExplanation(q quiz.Question, source string) string {
	var b strings.Builder
	answer := q.CorrectAnswer
	if q.Type == quiz.KindMCQ {
		for i, o := range q.Options {
			if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(answer)) {
				answer = fmt.Sprintf("%s (option %s)", o, quiz.OptionLetter(i))
				break
			}
		}
	}
	fmt.Fprintf(&b, "The correct answer is %s.", answer)

	needle := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
	if needle != "" {
		for _, s := range usableSentences(source) {
			if strings.Contains(strings.ToLower(s), needle) {
				fmt.Fprintf(&b, " The study material states: \"%s\"", s)
				break
			}
		}
	}
	b.WriteString(" (" + FallbackNote + ")")
	return b.String()
}
