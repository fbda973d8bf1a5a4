// Package aiparse turns free-text AI completions into validated JSON.
//
// Every AI-facing stage goes through Parse/Decode: code fences and chatter
// around the payload are dropped, balanced JSON fragments are tried in order
// against a JSON schema, and the first that passes is decoded.
package aiparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-studyquiz-be/pkg/apperr"

	"github.com/kaptinlin/jsonschema"
	"github.com/tidwall/gjson"
)

var ErrNoJSON = errors.New("no JSON payload found")

type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

// Compile builds a reusable schema. name is only used in error messages.
func Compile(name string, schemaJSON string) (*Schema, error) {
	compiled, err := jsonschema.NewCompiler().Compile([]byte(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

func MustCompile(name string, schemaJSON string) *Schema {
	s, err := Compile(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Extract returns the first balanced JSON object or array found in raw.
func Extract(raw string) (string, error) {
	candidates := Candidates(raw)
	if len(candidates) == 0 {
		return "", ErrNoJSON
	}
	return candidates[0], nil
}

// Candidates returns every balanced, syntactically valid JSON fragment in
// raw, in order of appearance.
func Candidates(raw string) []string {
	text := stripFences(raw)

	var out []string
	start := strings.IndexAny(text, "{[")
	for start >= 0 {
		if end := matchBracket(text, start); end > start {
			candidate := text[start : end+1]
			if gjson.Valid(candidate) {
				out = append(out, candidate)
			}
		}
		next := strings.IndexAny(text[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return out
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		// drop the language tag on the opening fence
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.LastIndex(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return text
}

// matchBracket returns the index of the bracket closing text[start], honouring
// string literals and escapes, or -1.
func matchBracket(text string, start int) int {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// Parse returns the first JSON fragment in raw that satisfies schema. A nil
// schema accepts the first fragment.
func Parse(raw string, schema *Schema) (gjson.Result, error) {
	candidates := Candidates(raw)
	if len(candidates) == 0 {
		return gjson.Result{}, apperr.Parse("AI response did not contain JSON", ErrNoJSON)
	}
	if schema == nil {
		return gjson.Parse(candidates[0]), nil
	}

	var firstErr error
	for _, payload := range candidates {
		err := schema.check(payload)
		if err == nil {
			return gjson.Parse(payload), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return gjson.Result{}, firstErr
}

func (s *Schema) check(payload string) error {
	var instance any
	if err := json.Unmarshal([]byte(payload), &instance); err != nil {
		return apperr.Parse("AI response is not valid JSON", err)
	}
	result := s.compiled.Validate(instance)
	if !result.Valid {
		return apperr.Parse(
			fmt.Sprintf("AI response does not match %s schema", s.name),
			fmt.Errorf("%v", result.Errors),
		)
	}
	return nil
}

// Decode parses raw into T after schema validation.
func Decode[T any](raw string, schema *Schema) (T, error) {
	var out T
	res, err := Parse(raw, schema)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(res.Raw), &out); err != nil {
		return out, apperr.Parse("AI response has unexpected field types", err)
	}
	return out, nil
}

// IsParseError reports whether err came from this package.
func IsParseError(err error) bool {
	return apperr.Is(err, apperr.KindParse)
}
