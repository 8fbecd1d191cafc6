package analysis

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aveslab/perchview/internal/cache"
	"github.com/aveslab/perchview/internal/detection"
)

// WriteResultsCsv writes a ResultSet to the given file in the cache CSV
// format. An empty filename writes to stdout.
func WriteResultsCsv(rs *detection.ResultSet, filename string) error {
	var w io.Writer
	if filename == "" {
		w = os.Stdout
	} else {
		if !strings.HasSuffix(filename, ".csv") {
			filename += ".csv"
		}
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create file %s: %w", filename, err)
		}
		defer file.Close()
		w = file
	}

	if err := cache.WriteCSV(w, rs); err != nil {
		return fmt.Errorf("failed to write results CSV: %w", err)
	}

	if filename != "" {
		fmt.Println("Output written to", filename)
	}
	return nil
}

// WriteResultsTable writes a ResultSet as an aligned text table. An empty
// filename writes to stdout.
func WriteResultsTable(rs *detection.ResultSet, filename string) error {
	var w io.Writer
	if filename == "" {
		w = os.Stdout
	} else {
		if !strings.HasSuffix(filename, ".txt") {
			filename += ".txt"
		}
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()
		w = file
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFile\tSpecies\tConfidence\tBegin (s)\tEnd (s)")

	for i, d := range rs.Detections() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%.1f\t%.1f\n",
			i+1, d.FilePath, d.Species, d.Confidence, d.StartTime, d.EndTime)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	if filename != "" {
		fmt.Println("Output written to", filename)
	}
	return nil
}
