// Package chunker splits long study text into sentence-aligned, size-bounded chunks.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChunkSize is measured in characters (runes).
const DefaultMaxChunkSize = 25000

type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Needed reports whether text must be split to fit maxChunkSize.
func Needed(text string, maxChunkSize int) bool {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return utf8.RuneCountInString(text) > maxChunkSize
}

// Sentences splits text at runs of '.', '!' or '?'. Each sentence keeps its
// terminator and the whitespace that follows it, so joining the result gives
// back the original text.
func Sentences(text string) []string {
	var out []string
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTerminator(r) {
			i += size
			continue
		}
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if !isTerminator(r) {
				break
			}
			i += size
		}
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(r) {
				break
			}
			i += size
		}
		out = append(out, text[start:i])
		start = i
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Split accumulates sentences into chunks no longer than maxChunkSize. A single
// sentence longer than the limit becomes a chunk of its own. Whitespace-only
// chunks are never emitted.
func Split(text string, maxChunkSize int) []Chunk {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !Needed(text, maxChunkSize) {
		return []Chunk{{Index: 0, Text: strings.TrimSpace(text)}}
	}

	var chunks []Chunk
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: s})
		}
		buf.Reset()
		bufLen = 0
	}

	for _, sentence := range Sentences(text) {
		n := utf8.RuneCountInString(sentence)
		if bufLen > 0 && bufLen+n > maxChunkSize {
			flush()
		}
		buf.WriteString(sentence)
		bufLen += n
	}
	flush()

	return chunks
}

// Texts returns the chunk bodies in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
