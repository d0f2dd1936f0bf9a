package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/torosent/kipbench/internal/stats"
)

func newStatsCommand(stdout io.Writer) *cobra.Command {
	var file, path, column string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise recorded samples from a JSON or CSV file",
		Example: `  kipbench stats --file report.json --path entries.0.summary.samples
  kipbench stats --file samples.csv --column kips`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			acc, err := loadSamples(cmd.InOrStdin(), file, path, column)
			if err != nil {
				return err
			}
			return printStats(stdout, acc)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&file, "file", "-", "Samples file (.json or .csv); - reads stdin")
	flags.StringVar(&path, "path", "$", "gjson path selecting the samples of a JSON document")
	flags.StringVar(&column, "column", "", "CSV column holding the samples (default: first column)")
	return cmd
}

// loadSamples reads CSV when the file ends in .csv or a column is named,
// JSON otherwise.
func loadSamples(stdin io.Reader, file, path, column string) (*stats.Accumulator, error) {
	var r io.Reader = stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	if column != "" || strings.EqualFold(filepath.Ext(file), ".csv") {
		return stats.LoadCSV(r, column)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return stats.LoadJSON(data, path)
}

func printStats(w io.Writer, acc *stats.Accumulator) error {
	normalized := acc.Normalize()
	parts := make([]string, len(normalized))
	for i, z := range normalized {
		parts[i] = strconv.FormatFloat(z, 'g', 6, 64)
	}

	_, err := fmt.Fprintf(w, "%s\naverage=%s gmean=%s median=%s variance=%s\nnormalize=[%s]\n",
		acc,
		strconv.FormatFloat(acc.Average(), 'g', -1, 64),
		strconv.FormatFloat(acc.GeometricMean(), 'g', -1, 64),
		strconv.FormatFloat(acc.Median(), 'g', -1, 64),
		strconv.FormatFloat(acc.Variance(), 'g', -1, 64),
		strings.Join(parts, " "),
	)
	return err
}
