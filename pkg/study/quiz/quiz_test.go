package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForLabel(t *testing.T) {
	tests := []struct {
		label      string
		requested  RequestType
		hasOptions bool
		want       Kind
	}{
		{"MCQ", RequestEssay, false, KindMCQ},
		{"Multiple Choice", RequestEssay, true, KindMCQ},
		{"multiple-choice", RequestMCQ, true, KindMCQ},
		{"Short Answer", RequestMCQ, false, KindShort},
		{"essay", RequestMCQ, false, KindShort},
		{"Structured Essay", RequestMCQ, false, KindShort},
		{"MCQ Question", RequestEssay, true, KindMCQ},
		{"multiple choice (single answer)", RequestEssay, true, KindMCQ},
		{"Essay Question", RequestMCQ, false, KindShort},
		{"short-form response", RequestMCQ, false, KindShort},
		{"Structured (Part A)", RequestMixed, true, KindShort},
		{"", RequestMCQ, true, KindMCQ},
		{"", RequestEssay, false, KindShort},
		{"riddle", RequestStructuredEssay, true, KindShort},
		{"", RequestMixed, true, KindMCQ},
		{"unknown", RequestMixed, false, KindShort},
	}
	for _, tt := range tests {
		t.Run(tt.label+"/"+string(tt.requested), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForLabel(tt.label, tt.requested, tt.hasOptions))
		})
	}
}

func TestParseRequestType(t *testing.T) {
	rt, err := ParseRequestType("Structured_Essay")
	assert.NoError(t, err)
	assert.Equal(t, RequestStructuredEssay, rt)

	rt, err = ParseRequestType("")
	assert.NoError(t, err)
	assert.Equal(t, RequestMCQ, rt)

	_, err = ParseRequestType("crossword")
	assert.Error(t, err)
}

func TestQuestionValid(t *testing.T) {
	assert.True(t, Question{Type: KindMCQ, Question: "Q", Options: []string{"a", "b"}, CorrectAnswer: "a"}.Valid())
	assert.False(t, Question{Type: KindMCQ, Question: "Q", Options: []string{"a"}, CorrectAnswer: "a"}.Valid())
	assert.False(t, Question{Type: KindShort, Question: " ", CorrectAnswer: "a"}.Valid())
	assert.False(t, Question{Type: "riddle", Question: "Q", CorrectAnswer: "a"}.Valid())
}

func TestClone(t *testing.T) {
	q := Question{Type: KindMCQ, Options: []string{"a", "b"}}
	c := q.Clone()
	c.Options[0] = "changed"
	assert.Equal(t, "a", q.Options[0])
	assert.Equal(t, "B", OptionLetter(1))
}
