package nlp

import (
	"errors"
	"io"
	"testing"

	"cv-builder/internal/shared/telemetry"
)

type stubTagger struct {
	tokens []Token
	err    error
}

func (s stubTagger) Tag(string) ([]Token, error) {
	return s.tokens, s.err
}

func silenceLogs(t *testing.T) {
	t.Helper()
	prev := telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(prev) })
}

func TestDetectWithWorkingTagger(t *testing.T) {
	silenceLogs(t)
	tagger := stubTagger{tokens: []Token{{Text: "Managed", Tag: "VBD"}}}

	caps, got := detectWith(DetectOptions{}, tagger)
	if !caps.Full() {
		t.Fatalf("expected full capabilities, got %+v", caps)
	}
	if got == nil {
		t.Fatalf("expected tagger to be returned")
	}
}

func TestDetectWithFailingTagger(t *testing.T) {
	silenceLogs(t)
	caps, got := detectWith(DetectOptions{}, stubTagger{err: errors.New("model missing")})
	if caps.Tagging {
		t.Fatalf("expected tagging unavailable")
	}
	if !caps.Statistics {
		t.Fatalf("statistics should stay available")
	}
	if got != nil {
		t.Fatalf("expected nil tagger")
	}
}

func TestDetectWithEmptyOutput(t *testing.T) {
	silenceLogs(t)
	caps, _ := detectWith(DetectOptions{}, stubTagger{})
	if caps.Tagging {
		t.Fatalf("a tagger that returns nothing must not count as available")
	}
}

func TestDetectHonoursDisableFlags(t *testing.T) {
	silenceLogs(t)
	tagger := stubTagger{tokens: []Token{{Text: "x", Tag: "NN"}}}
	caps, got := detectWith(DetectOptions{DisableTagging: true, DisableStatistics: true}, tagger)
	if caps.Tagging || caps.Statistics {
		t.Fatalf("expected everything disabled, got %+v", caps)
	}
	if got != nil {
		t.Fatalf("expected nil tagger when disabled")
	}
}

func TestTokenIsVerb(t *testing.T) {
	for _, tag := range []string{"VB", "VBD", "VBG", "VBN", "VBP", "VBZ"} {
		if !(Token{Tag: tag}).IsVerb() {
			t.Fatalf("%s should be a verb", tag)
		}
	}
	for _, tag := range []string{"NN", "JJ", "CD", ""} {
		if (Token{Tag: tag}).IsVerb() {
			t.Fatalf("%s should not be a verb", tag)
		}
	}
}

func TestProseTaggerKeepsWords(t *testing.T) {
	tokens, err := NewProseTagger().Tag("Reduced costs")
	if err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Text != "Reduced" || tokens[1].Text != "costs" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
	for _, tok := range tokens {
		if tok.Tag == "" {
			t.Fatalf("expected every token to be tagged: %+v", tokens)
		}
	}
}
