package inference

import (
	"encoding/csv"
	"fmt"
	"io"

	"lakeflow/internal/domain"
)

// DefaultSampleRows bounds how many data rows are read for inference.
const DefaultSampleRows = 1000

// ReadSample reads the header and up to maxRows data rows from r. The
// reader tolerates ragged rows and lazily quoted fields; malformed rows
// surface as errors from the underlying csv reader.
func ReadSample(r io.Reader, maxRows int) (headers []string, rows [][]string, err error) {
	if maxRows <= 0 {
		maxRows = DefaultSampleRows
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	headers, err = cr.Read()
	if err == io.EOF {
		return nil, nil, domain.ErrValidation("csv file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	for len(rows) < maxRows {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, record)
	}
	return headers, rows, nil
}

// InferFromCSV samples the reader and infers the column schema in one
// step.
func InferFromCSV(r io.Reader, maxRows int) (*domain.ColumnSchema, error) {
	headers, rows, err := ReadSample(r, maxRows)
	if err != nil {
		return nil, err
	}
	return InferSchema(headers, rows)
}
