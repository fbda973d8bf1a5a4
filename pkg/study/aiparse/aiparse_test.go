package aiparse

import (
	"testing"

	"ai-studyquiz-be/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pointSchema = MustCompile("point", `{
	"type": "object",
	"required": ["point", "importance"],
	"properties": {
		"point": {"type": "string"},
		"importance": {"type": "string", "enum": ["critical", "high", "medium"]}
	}
}`)

type point struct {
	Point      string `json:"point"`
	Importance string `json:"importance"`
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\": [1, 2]}\n```", `{"a": [1, 2]}`},
		{"chatter around", `Sure! Here is the result: [{"q":"x"}] hope it helps`, `[{"q":"x"}]`},
		{"brace inside string", `{"text": "use } and { freely"}`, `{"text": "use } and { freely"}`},
		{"skips broken prefix", `{oops [1,2,3]`, `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_NoJSON(t *testing.T) {
	_, err := Extract("I'm sorry, I cannot help with that.")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecode(t *testing.T) {
	p, err := Decode[point]("```json\n{\"point\":\"Mitosis\",\"importance\":\"critical\"}\n```", pointSchema)
	require.NoError(t, err)
	assert.Equal(t, "Mitosis", p.Point)
}

func TestDecode_SchemaViolationIsParseError(t *testing.T) {
	_, err := Decode[point](`{"point":"Mitosis","importance":"trivial"}`, pointSchema)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.True(t, apperr.IsAIFailure(err))
}

func TestParse_NotJSON(t *testing.T) {
	_, err := Parse("not json at all", nil)
	assert.True(t, IsParseError(err))
}

func TestParse_ReturnsGJSON(t *testing.T) {
	res, err := Parse(`result: {"questions":[{"question":"Q1"},{"question":"Q2"}]}`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Get("questions.#").Int())
	assert.Equal(t, "Q2", res.Get("questions.1.question").String())
}

func TestParse_SkipsBracketedPreamble(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"array aside", "Here is the key point for section [1] of the notes:\n{\"point\":\"Mitosis\",\"importance\":\"high\"}"},
		{"object aside", "Using {\"lang\":\"en\"} as requested: {\"point\":\"Mitosis\",\"importance\":\"high\"}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode[point](tt.raw, pointSchema)
			require.NoError(t, err)
			assert.Equal(t, "Mitosis", p.Point)
			assert.Equal(t, "high", p.Importance)
		})
	}
}

func TestParse_NoCandidateMatchesSchema(t *testing.T) {
	_, err := Parse(`see [1] and {"point":"Mitosis","importance":"trivial"}`, pointSchema)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestCandidates(t *testing.T) {
	got := Candidates(`section [1] then {"a":[2]}`)
	assert.Equal(t, []string{`[1]`, `{"a":[2]}`, `[2]`}, got)
}
