package nlp

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Token is a word with its Penn Treebank part-of-speech tag.
type Token struct {
	Text string
	Tag  string
}

// IsVerb reports whether the tag marks any verb form (VB, VBD, VBG, VBN, VBP, VBZ).
func (t Token) IsVerb() bool {
	return strings.HasPrefix(t.Tag, "VB")
}

// Tagger assigns part-of-speech tags to the tokens of a statement.
type Tagger interface {
	Tag(text string) ([]Token, error)
}

// ProseTagger tags with the averaged perceptron model bundled in prose.
type ProseTagger struct{}

// NewProseTagger returns a tagger backed by github.com/jdkato/prose.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag tokenizes and tags text. Panics inside the model are returned as errors.
func (ProseTagger) Tag(text string) (tokens []Token, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("prose tagger panic: %v", rec)
			tokens = nil
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("prose tag: %w", err)
	}

	for _, tok := range doc.Tokens() {
		tokens = append(tokens, Token{Text: tok.Text, Tag: tok.Tag})
	}
	return tokens, nil
}
