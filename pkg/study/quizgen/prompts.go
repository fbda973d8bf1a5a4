package quizgen

import (
	"fmt"
	"strings"

	"ai-studyquiz-be/pkg/study/importance"
	"ai-studyquiz-be/pkg/study/quiz"
)

func typeInstruction(t quiz.RequestType) string {
	switch t {
	case quiz.RequestEssay:
		return `essay questions ("type": "essay") with a model answer in "correctAnswer"`
	case quiz.RequestStructuredEssay:
		return `structured essay questions ("type": "structured_essay"); "correctAnswer" may be an object {"Part 1": ..., "Part 2": ...}`
	case quiz.RequestMixed:
		return `a mix of multiple choice ("type": "mcq", four "options") and short answer ("type": "short") questions`
	}
	return `multiple choice questions ("type": "mcq") with exactly four "options" and the correct option text in "correctAnswer"`
}

const outputShape = `Respond with ONLY a JSON object:
{"questions": [{"type": "...", "question": "...", "options": ["...", "...", "...", "..."], "correctAnswer": "...", "explanation": "..."}]}
Omit "options" for non multiple choice questions.`

func boundedPrompt(text string, t quiz.RequestType, n int, avoid []quiz.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d %s based ONLY on the study material below.\n", n, typeInstruction(t))
	b.WriteString("Spread the questions over different parts of the material. Every question must be answerable from the material.\n")
	if len(avoid) > 0 {
		b.WriteString("\nDo NOT repeat or paraphrase any of these existing questions:\n")
		for _, q := range avoid {
			fmt.Fprintf(&b, "- %s\n", q.Question)
		}
	}
	b.WriteString("\n" + outputShape + "\n\nSTUDY MATERIAL:\n")
	b.WriteString(text)
	return b.String()
}

func coveragePrompt(text string, t quiz.RequestType, report *importance.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %s that together cover EVERY important point of the study material below.\n", typeInstruction(t))
	b.WriteString("Use as many questions as needed, one or more per point, and no duplicates.\n")
	if report != nil && len(report.ImportantPoints) > 0 {
		b.WriteString("\nIMPORTANT POINTS TO COVER:\n")
		for i, p := range report.ImportantPoints {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, p.Importance, p.Point)
		}
	}
	b.WriteString("\n" + outputShape + "\n\nSTUDY MATERIAL:\n")
	b.WriteString(text)
	return b.String()
}

func explainPrompt(q quiz.Question, source string) string {
	var b strings.Builder
	b.WriteString("Explain to a student why the answer to this quiz question is correct, in 3 to 5 sentences, using only the study material.\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\n", q.Question)
	for i, o := range q.Options {
		fmt.Fprintf(&b, "%s) %s\n", quiz.OptionLetter(i), o)
	}
	fmt.Fprintf(&b, "CORRECT ANSWER: %s\n\nSTUDY MATERIAL:\n%s", q.CorrectAnswer, source)
	return b.String()
}
