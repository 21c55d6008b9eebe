// Package pipeline runs one CV generation: validate, extract keywords,
// optimize statements, build the model, render and optionally convert.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cv-builder/cv/convert"
	"cv-builder/cv/keywords"
	"cv-builder/cv/model"
	"cv-builder/cv/optimize"
	"cv-builder/cv/render"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/telemetry"
)

// Format is an output artifact format.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a request value to a Format. Empty means docx.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FormatDOCX):
		return FormatDOCX, nil
	case string(FormatPDF):
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown format %q", raw)
	}
}

// Features selects what a generation does. DOCX is always produced; Formats
// only has to name the extra ones.
type Features struct {
	InjectKeywords     bool
	OptimizeStatements bool
	Variant            render.Variant
	Formats            []Format
	KeywordLimit       int
}

// Wants reports whether format was requested.
func (f Features) Wants(format Format) bool {
	if format == FormatDOCX {
		return true
	}
	for _, v := range f.Formats {
		if v == format {
			return true
		}
	}
	return false
}

// Result carries the artifacts of one generation. ConversionErr is set when
// PDF was requested but conversion failed; the DOCX is still valid then.
type Result struct {
	Document      model.Document
	DOCX          render.Rendered
	PDF           *render.Rendered
	Keywords      []string
	Warnings      []string
	ConversionErr error
}

// Generator holds the long-lived collaborators of a generation.
type Generator struct {
	extractor *keywords.Extractor
	optimizer *optimize.Optimizer
	converter convert.Converter
}

// New builds a Generator. converter may be nil when PDF output is never
// requested.
func New(extractor *keywords.Extractor, optimizer *optimize.Optimizer, converter convert.Converter) *Generator {
	return &Generator{extractor: extractor, optimizer: optimizer, converter: converter}
}

// Generate runs the pipeline for draft. Only validation errors and render
// failures are returned; conversion problems land in Result.ConversionErr.
func (g *Generator) Generate(ctx context.Context, draft model.Document, jobDescription string, features Features) (Result, error) {
	start := time.Now()
	metrics.IncGenerationStarted()

	if err := model.ValidateProfile(draft.Profile); err != nil {
		metrics.IncValidationFailed()
		return Result{}, err
	}
	if features.Variant == "" {
		features.Variant = render.VariantATS
	}

	kws := []string{}
	if features.InjectKeywords && strings.TrimSpace(jobDescription) != "" {
		kws = g.extractor.Extract(jobDescription, features.KeywordLimit)
	}

	enriched, injected := g.enrich(draft, kws, features)
	metrics.AddKeywordsInjected(injected)

	doc, err := model.New(enriched)
	if err != nil {
		metrics.IncValidationFailed()
		return Result{}, err
	}

	docx, err := render.Render(doc, features.Variant)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Document: doc,
		DOCX:     docx,
		Keywords: kws,
		Warnings: append([]string{}, docx.Warnings...),
	}
	metrics.AddRenderWarnings(len(docx.Warnings))

	if features.Wants(FormatPDF) {
		res.PDF, res.ConversionErr = g.convert(ctx, doc, docx, features.Variant)
		if res.ConversionErr != nil {
			res.Warnings = append(res.Warnings, "pdf conversion failed: "+res.ConversionErr.Error())
		}
	}

	metrics.IncGenerationCompleted()
	metrics.ObserveGenerationDurationMs(metrics.SinceMillis(start))
	telemetry.Info("pipeline.generated", map[string]any{
		"variant":     string(features.Variant),
		"keywords":    len(kws),
		"injected":    injected,
		"warnings":    len(res.Warnings),
		"pdf":         res.PDF != nil,
		"degraded":    g.optimizer.Degraded(),
		"duration_ms": metrics.SinceMillis(start),
	})
	return res, nil
}

// enrich rewrites experience tasks (with keyword injection), organization
// descriptions and achievements. It returns the number of injected statements.
func (g *Generator) enrich(draft model.Document, kws []string, features Features) (model.Document, int) {
	out := draft
	injected := 0

	out.Experience = make([]model.ExperienceEntry, len(draft.Experience))
	for i, exp := range draft.Experience {
		tasks := model.CleanList(exp.Tasks)
		before := len(tasks)
		switch {
		case features.OptimizeStatements && features.InjectKeywords:
			tasks = g.optimizer.OptimizeWithInjection(tasks, kws)
		case features.OptimizeStatements:
			tasks = g.optimizer.OptimizePlainPassthrough(tasks)
		case features.InjectKeywords:
			tasks = optimize.Inject(tasks, kws)
		}
		if features.InjectKeywords {
			injected += len(tasks) - before
		}
		exp.Tasks = tasks
		out.Experience[i] = exp
	}

	if !features.OptimizeStatements {
		return out, injected
	}
	out.Organizations = make([]model.OrganizationEntry, len(draft.Organizations))
	for i, org := range draft.Organizations {
		org.Descriptions = g.optimizer.OptimizePlainPassthrough(org.Descriptions)
		out.Organizations[i] = org
	}
	out.Achievements = g.optimizer.OptimizePlainPassthrough(draft.Achievements)
	return out, injected
}

func (g *Generator) convert(ctx context.Context, doc model.Document, docx render.Rendered, variant render.Variant) (*render.Rendered, error) {
	if g.converter == nil {
		metrics.IncConversionFailed()
		return nil, &convert.Error{Engine: "none", Reason: "no converter configured"}
	}
	start := time.Now()
	pdf, err := g.converter.Convert(ctx, docx.Bytes, docx.FileName)
	metrics.ObserveConversionDurationMs(metrics.SinceMillis(start))
	if err != nil {
		metrics.IncConversionFailed()
		telemetry.Warn("pipeline.conversion_failed", map[string]any{
			"file_name": docx.FileName,
			"error":     err.Error(),
		})
		return nil, err
	}
	return &render.Rendered{
		Bytes:    pdf,
		FileName: render.FileName(doc.Profile.FullName, variant, "pdf"),
	}, nil
}
