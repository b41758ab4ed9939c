package tokenizer

import "strings"

// Token is one unit emitted by a Tokenizer.
type Token struct {
	// Text is the case-folded token text.
	Text string
	// Start and End are byte offsets into the original input, End exclusive.
	Start int
	End   int
	// Position is the zero-based ordinal of the token in the stream.
	Position int
}

// Tokenizer splits text into tokens for indexing and querying.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// ExactMatch emits the whole input, case-folded, as a single token.
// Matching on it is therefore whole-value, case-insensitive equality.
type ExactMatch struct{}

// Tokenize returns exactly one token spanning the input, including for
// empty input.
func (ExactMatch) Tokenize(text string) []Token {
	return []Token{{
		Text:     strings.ToLower(text),
		Start:    0,
		End:      len(text),
		Position: 0,
	}}
}
