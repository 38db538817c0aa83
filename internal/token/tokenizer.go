// Package token wraps a fixed subword tokenizer used to size chunks
// against model context limits.
package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Codec counts, encodes, and decodes text with one fixed tokenizer.
// Implementations must be safe for concurrent use.
type Codec interface {
	Count(text string) int
	Encode(text string) []int
	Decode(tokens []int) string
}

// Tiktoken is a Codec over OpenAI's cl100k_base encoding, the vocabulary
// used by the embedding and completion models this service calls.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

func NewTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
