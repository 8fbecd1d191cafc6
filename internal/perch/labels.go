package perch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Default label file name, looked up next to the model file when no
// explicit label path is configured.
const defaultLabelFileName = "perch_labels.csv"

// loadLabels reads the species label list. The label file is a CSV whose
// ebird2021 column carries the species codes paired with the model output,
// one label per output index in file order.
func (p *Perch) loadLabels() error {
	labelPath := p.Settings.Perch.LabelPath
	if labelPath == "" {
		labelPath = filepath.Join(filepath.Dir(p.Settings.Perch.ModelPath), defaultLabelFileName)
	}

	file, err := os.Open(labelPath)
	if err != nil {
		return fmt.Errorf("failed to open label file %s: %w", labelPath, err)
	}
	defer file.Close()

	labels, err := parseLabelCSV(file)
	if err != nil {
		return fmt.Errorf("failed to parse label file %s: %w", labelPath, err)
	}

	p.Labels = labels
	p.logger.Info("Loaded species labels", "count", len(labels), "path", labelPath)
	return nil
}

// parseLabelCSV extracts labels from a CSV reader. When the file has an
// ebird2021 header column that column is used, otherwise the first column
// of every row is taken as the label.
func parseLabelCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("label file is empty")
	}

	labelColumn := 0
	rows := records
	for i, name := range records[0] {
		if strings.EqualFold(strings.TrimSpace(name), "ebird2021") {
			labelColumn = i
			rows = records[1:]
			break
		}
	}

	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		if labelColumn >= len(row) {
			return nil, fmt.Errorf("label row has %d columns, need column %d", len(row), labelColumn+1)
		}
		labels = append(labels, strings.TrimSpace(row[labelColumn]))
	}

	return labels, nil
}
