package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
)

// ParseCSV reads a comma-separated upload into rows keyed by canonicalized
// header. The header row is required; a file without one (or with no
// parseable content at all) is rejected with ErrBadImportFile. Short
// records leave trailing fields empty; long records have their extra cells
// dropped.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewFatal(apperrors.ErrBadImportFile, "import file has no header row")
		}
		return nil, apperrors.NewFatal(err, "failed to read import header row")
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = canonicalHeader(h)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewFatal(err, "failed to read import row %d", len(rows)+2)
		}

		row := make(Row, len(keys))
		for i, key := range keys {
			if key == "" {
				continue
			}
			if i < len(record) {
				row[key] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
