package endpoint

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xen0bit/dashchart/pkg/chart"
)

type jsonEnvelope struct {
	Rows      *[]chart.Row `json:"rows"`
	Columns   []string     `json:"columns"`
	Truncated bool         `json:"truncated"`
}

// DecodeJSON parses a {rows, columns, truncated} body. A body without rows is
// rejected; columns are optional.
func DecodeJSON(body []byte) (*chart.QueryResult, error) {
	var env jsonEnvelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if env.Rows == nil {
		return nil, errors.New(`response has no "rows" member`)
	}

	res := &chart.QueryResult{
		Rows:      *env.Rows,
		Columns:   env.Columns,
		Truncated: env.Truncated,
	}
	res.BindColumns()
	return res, nil
}

// DecodeCSV keeps the raw delimited text and parses it with the first record
// as the header.
func DecodeCSV(body []byte) (*chart.QueryResult, error) {
	res := &chart.QueryResult{
		Rows: make([]chart.Row, 0),
		Raw:  string(body),
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return res, nil
	}

	res.Columns = records[0]
	for _, record := range records[1:] {
		vals := make([]any, len(record))
		for i, field := range record {
			vals[i] = field
		}
		keys := res.Columns
		if len(record) != len(keys) {
			keys = nil
		}
		res.Rows = append(res.Rows, chart.NewRow(keys, vals))
	}
	res.BindColumns()
	return res, nil
}
