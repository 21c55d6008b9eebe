package optimize

import (
	"regexp"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"cv-builder/cv/nlp"
	"cv-builder/internal/shared/telemetry"
)

const (
	// ActionPrefix is prepended to statements that carry no verb.
	ActionPrefix = "Managed "
	// OutcomeClause is appended to statements without a measurable result.
	OutcomeClause = ", resulting in an approximate 10% efficiency gain"
	// InjectedPrefix starts every synthetic keyword statement.
	InjectedPrefix = "Experience related to "
)

var (
	percentPattern  = regexp.MustCompile(`(?i)\d+(\.\d+)?\s?%|\bpercent\b`)
	increasePattern = regexp.MustCompile(`(?i)\b(increas\w*|improv\w*|grew|grow\w*|boost\w*|doubl\w*|tripl\w*|rais(e|ed|ing))\b`)
)

// Optimizer rewrites task and achievement statements into action-led,
// outcome-bearing bullets. It is safe for concurrent use.
type Optimizer struct {
	tagger nlp.Tagger

	// set after the first tagger failure; never cleared
	fallback atomic.Bool
}

// New builds an optimizer. Without the tagging capability (or without a
// tagger) every call passes statements through untouched.
func New(caps nlp.Capabilities, tagger nlp.Tagger) *Optimizer {
	o := &Optimizer{tagger: tagger}
	if !caps.Tagging || tagger == nil {
		o.fallback.Store(true)
	}
	return o
}

// Degraded reports whether the optimizer is running in pass-through mode.
func (o *Optimizer) Degraded() bool {
	return o.fallback.Load()
}

// OptimizeWithInjection rewrites statements and then appends one synthetic
// statement per keyword the statements do not already mention. In degraded
// mode the keywords are still injected against the raw statements.
func (o *Optimizer) OptimizeWithInjection(statements, keywords []string) []string {
	return Inject(o.transform(statements), keywords)
}

// OptimizePlainPassthrough rewrites statements without keyword injection. In
// degraded mode the statements come back as given.
func (o *Optimizer) OptimizePlainPassthrough(statements []string) []string {
	return o.transform(statements)
}

// Inject appends "Experience related to <kw>" for every keyword that is not a
// case-insensitive substring of the given statements. Containment is checked
// against the statements as passed in, so keyword order never changes which
// keywords are injected. Duplicate keywords produce one statement.
func Inject(statements, keywords []string) []string {
	out := make([]string, 0, len(statements)+len(keywords))
	out = append(out, statements...)

	base := strings.ToLower(strings.Join(statements, "\n"))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if strings.Contains(base, key) {
			continue
		}
		out = append(out, InjectedPrefix+kw)
	}
	return out
}

func (o *Optimizer) transform(statements []string) []string {
	cleaned := nonBlank(statements)
	if o.fallback.Load() {
		return cleaned
	}

	out := make([]string, 0, len(cleaned))
	for _, s := range cleaned {
		rewritten, err := o.rewrite(s)
		if err != nil {
			if o.fallback.CompareAndSwap(false, true) {
				telemetry.Warn("optimizer.tagging_failed", map[string]any{
					"error":    err.Error(),
					"fallback": "pass-through",
				})
			}
			return cleaned
		}
		out = append(out, rewritten)
	}
	return out
}

func (o *Optimizer) rewrite(statement string) (string, error) {
	tokens, err := o.tagger.Tag(statement)
	if err != nil {
		return "", err
	}

	out := statement
	if !hasVerb(tokens) {
		out = ActionPrefix + lowerFirst(out)
	}
	if !HasOutcome(out) {
		out = withOutcome(out)
	}
	return out, nil
}

// HasOutcome reports whether a statement already states a measurable result:
// a percentage or an increase word.
func HasOutcome(statement string) bool {
	return percentPattern.MatchString(statement) || increasePattern.MatchString(statement)
}

func hasVerb(tokens []nlp.Token) bool {
	for _, tok := range tokens {
		if tok.IsVerb() {
			return true
		}
	}
	return false
}

func withOutcome(s string) string {
	if trimmed, ok := strings.CutSuffix(s, "."); ok {
		return trimmed + OutcomeClause + "."
	}
	return s + OutcomeClause
}

// lowerFirst lower-cases the first rune unless the first word is an acronym.
func lowerFirst(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	if second, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(second) {
		return s
	}
	return string(unicode.ToLower(first)) + s[size:]
}

func nonBlank(statements []string) []string {
	out := make([]string, 0, len(statements))
	for _, s := range statements {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
