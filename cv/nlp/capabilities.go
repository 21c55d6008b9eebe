package nlp

import (
	"errors"

	"cv-builder/internal/shared/telemetry"
)

const probeSentence = "Managed the quarterly release of the billing platform."

// Capabilities records which optional linguistic backends this process can
// use. It is resolved once at startup and passed by value afterwards.
type Capabilities struct {
	Tagging    bool
	Statistics bool
}

// Full reports whether every backend is available.
func (c Capabilities) Full() bool {
	return c.Tagging && c.Statistics
}

// DetectOptions lets configuration switch backends off.
type DetectOptions struct {
	DisableTagging    bool
	DisableStatistics bool
}

// Detect probes the tagger once and returns the capability record together
// with the tagger to use. The tagger is nil when tagging is unavailable.
func Detect(opts DetectOptions) (Capabilities, Tagger) {
	return detectWith(opts, NewProseTagger())
}

func detectWith(opts DetectOptions, candidate Tagger) (Capabilities, Tagger) {
	caps := Capabilities{Statistics: !opts.DisableStatistics}
	if opts.DisableStatistics {
		telemetry.Warn("capability.statistics_disabled", map[string]any{
			"fallback": "frequency heuristic",
		})
	}

	if opts.DisableTagging {
		telemetry.Warn("capability.tagging_disabled", map[string]any{
			"fallback": "pass-through",
		})
		return caps, nil
	}

	if err := probe(candidate); err != nil {
		telemetry.Warn("capability.tagging_unavailable", map[string]any{
			"error":    err.Error(),
			"fallback": "pass-through",
		})
		return caps, nil
	}

	caps.Tagging = true
	telemetry.Info("capability.resolved", map[string]any{
		"tagging":    caps.Tagging,
		"statistics": caps.Statistics,
	})
	return caps, candidate
}

func probe(t Tagger) error {
	if t == nil {
		return errors.New("no tagger configured")
	}
	tokens, err := t.Tag(probeSentence)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return errors.New("tagger returned no tokens")
	}
	return nil
}
