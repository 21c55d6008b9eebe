package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"cv-builder/cv/jobdesc"
	"cv-builder/cv/model"
	"cv-builder/cv/pipeline"
	"cv-builder/cv/render"
	"cv-builder/internal/bootstrap"
	"cv-builder/internal/extract"
)

type generateOptions struct {
	input          string
	jobDescription string
	photo          string
	outputDir      string
	format         string
	variant        string
	noInject       bool
	noOptimize     bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a CV from a JSON request",
		Long: `Render a CV from a JSON generation request.

Example:
  cvgen generate -i jane.json -j jd.txt -o out
  cvgen generate -i jane.json -p photo.png --variant standard --format pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Generation request JSON file")
	cmd.Flags().StringVarP(&opts.jobDescription, "job-description", "j", "", "Job description file (.txt, .html, .pdf, .docx)")
	cmd.Flags().StringVarP(&opts.photo, "photo", "p", "", "Photo to embed (jpg or png)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", ".", "Directory for the generated files")
	cmd.Flags().StringVar(&opts.format, "format", "", "Extra output format: pdf (overrides the request)")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "Layout variant: ats or standard (overrides the request)")
	cmd.Flags().BoolVar(&opts.noInject, "no-inject", false, "Do not add job description keywords")
	cmd.Flags().BoolVar(&opts.noOptimize, "no-optimize", false, "Keep statements as written")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) (err error) {
	ctx := cmd.Context()
	cfg := loadConfig()

	raw, err := os.ReadFile(opts.input)
	if err != nil {
		return errors.Wrapf(err, "failed reading request %s", opts.input)
	}
	req, err := model.DecodeRequest(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid request %s", opts.input)
	}
	if opts.variant != "" {
		req.Variant = opts.variant
	}
	if opts.format != "" {
		req.Format = opts.format
	}

	features, err := bootstrap.DefaultFeatures(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if req.Variant != "" {
		if features.Variant, err = render.ParseVariant(req.Variant); err != nil {
			return errors.Wrap(err, "invalid variant")
		}
	}
	format, err := pipeline.ParseFormat(req.Format)
	if err != nil {
		return errors.Wrap(err, "invalid format")
	}
	features.Formats = []pipeline.Format{format}
	features.InjectKeywords = features.InjectKeywords && !opts.noInject
	features.OptimizeStatements = features.OptimizeStatements && !opts.noOptimize

	jd := jobdesc.Text(req.JobDescription)
	if opts.jobDescription != "" {
		if jd, err = readJobDescription(ctx, opts.jobDescription); err != nil {
			return err
		}
	}

	draft := req.Draft()
	if opts.photo != "" {
		draft.Photo = model.Some(model.Photo{Path: opts.photo})
	}

	caps, generator, err := bootstrap.BuildGenerator(cfg)
	if err != nil {
		return errors.Wrap(err, "failed building generator")
	}
	if verbose && !caps.Full() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Running degraded: tagging=%t statistics=%t\n", caps.Tagging, caps.Statistics)
	}

	res, err := generator.Generate(ctx, draft, jd, features)
	if err != nil {
		return errors.Wrap(err, "generation failed")
	}

	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed creating %s", opts.outputDir)
	}
	written := []render.Rendered{res.DOCX}
	if res.PDF != nil {
		written = append(written, *res.PDF)
	}
	for _, out := range written {
		path := filepath.Join(opts.outputDir, out.FileName)
		if err := os.WriteFile(path, out.Bytes, 0o644); err != nil {
			return errors.Wrapf(err, "failed writing %s", path)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}

	if len(res.Keywords) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Keywords: %s\n", strings.Join(res.Keywords, ", "))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	return nil
}

func readJobDescription(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed reading job description %s", path)
	}
	text, err := extract.ExtractTextFromBytes(ctx, data, "", filepath.Base(path))
	if err != nil {
		return "", errors.Wrapf(err, "failed extracting job description %s", path)
	}
	return text, nil
}
