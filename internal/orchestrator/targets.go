package orchestrator

import (
	"encoding/csv"
	"os"
	"strings"

	"hxcodewarrior/ctripcrawler/pkg/errors"
)

// LoadTargets reads the target list from a delimited file. Each line is
// `id,name,url`; any field may be empty as long as the target stays
// resolvable (an id, a detail URL carrying one, or a searchable name).
// Lines starting with # are skipped.
func LoadTargets(path string) ([]Target, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewConfiguration("failed to open targets file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewConfiguration("failed to parse targets file", err)
	}

	var targets []Target
	for _, row := range rows {
		target := Target{}
		if len(row) > 0 {
			target.ID = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			target.Name = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			target.URL = strings.TrimSpace(row[2])
		}
		if target.ID == "" && target.Name == "" && target.URL == "" {
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}
