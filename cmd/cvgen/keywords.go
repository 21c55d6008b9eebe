package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"cv-builder/cv/keywords"
	"cv-builder/cv/nlp"
)

type keywordsOptions struct {
	jobDescription string
	limit          int
	scores         bool
}

func newKeywordsCmd() *cobra.Command {
	opts := &keywordsOptions{}
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Print the keywords extracted from a job description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeywords(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.jobDescription, "job-description", "j", "", "Job description file")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", keywords.DefaultLimit, "Maximum number of keywords")
	cmd.Flags().BoolVar(&opts.scores, "scores", false, "Print every term with its TF-IDF score")
	_ = cmd.MarkFlagRequired("job-description")
	return cmd
}

func runKeywords(cmd *cobra.Command, opts *keywordsOptions) error {
	text, err := readJobDescription(cmd.Context(), opts.jobDescription)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	caps := nlp.Capabilities{Statistics: cfg.KeywordBackend != "simple"}

	if opts.scores {
		if !caps.Statistics {
			return errors.New("--scores needs the tfidf keyword backend")
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, s := range keywords.Scores(text) {
			fmt.Fprintf(tw, "%s\t%.4f\n", s.Term, s.Score)
		}
		return tw.Flush()
	}

	for _, kw := range keywords.New(caps).Extract(text, opts.limit) {
		fmt.Fprintln(cmd.OutOrStdout(), kw)
	}
	return nil
}
