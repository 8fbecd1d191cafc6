package cache

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/detection"
)

var csvColumns = strings.Split(conf.CacheCSVHeader, ",")

// WriteCSV writes a ResultSet in the cache CSV format: header line plus one
// row per detection, insertion order preserved.
func WriteCSV(w io.Writer, rs *detection.ResultSet) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, d := range rs.Detections() {
		row := []string{
			d.FilePath,
			d.Species,
			strconv.FormatFloat(d.Confidence, 'f', 4, 64),
			strconv.FormatFloat(d.StartTime, 'f', 1, 64),
			strconv.FormatFloat(d.EndTime, 'f', 1, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV parses the cache CSV format back into a ResultSet. A missing or
// reordered header and malformed rows are reported as errors so callers can
// treat the file as corrupt.
func ReadCSV(r io.Reader) (*detection.ResultSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, name := range csvColumns {
		if strings.TrimSpace(header[i]) != name {
			return nil, fmt.Errorf("unexpected CSV header column %d: got %q, want %q", i, header[i], name)
		}
	}

	rs := detection.NewResultSet()
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("malformed CSV row at line %d: %w", line, err)
		}

		confidence, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid confidence at line %d: %w", line, err)
		}
		startTime, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid start_time at line %d: %w", line, err)
		}
		endTime, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid end_time at line %d: %w", line, err)
		}

		rs.Append(detection.Detection{
			FilePath:   row[0],
			Species:    row[1],
			Confidence: confidence,
			StartTime:  startTime,
			EndTime:    endTime,
		})
	}

	return rs, nil
}
