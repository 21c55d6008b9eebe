// Command cvgen runs the CV pipeline from the command line.
//
//	cvgen generate -i request.json -j jd.txt -p photo.png -o out --format pdf
//	cvgen keywords -j jd.txt --scores
package main

import (
	"os"

	"github.com/spf13/cobra"

	"cv-builder/internal/shared/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cvgen",
		Short: "Generate CVs from structured career data",
		Long: `cvgen turns a JSON generation request into a DOCX CV, optionally
weaving in keywords from a job description and converting the result to PDF.

Engine and feature defaults come from the same CV_* environment variables
the API server reads.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	root.AddCommand(newGenerateCmd(), newKeywordsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	return config.Load()
}
