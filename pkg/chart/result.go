package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Shape is the JSON response shape requested from the data endpoint.
type Shape string

const (
	ShapeObjects Shape = "objects"
	ShapeArray   Shape = "array"
)

// Row is one result row. It keeps the column order of the response, which a
// plain map would lose.
type Row struct {
	keys []string
	vals []any
}

// NewRow builds a row from parallel key and value slices.
func NewRow(keys []string, vals []any) Row {
	return Row{keys: keys, vals: vals}
}

// Keys returns the column names of the row in response order.
func (r Row) Keys() []string {
	return r.keys
}

// Values returns the row values in key order.
func (r Row) Values() []any {
	return r.vals
}

// Len returns the number of fields in the row.
func (r Row) Len() int {
	return len(r.vals)
}

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	for i, k := range r.keys {
		if k == key {
			return r.vals[i], true
		}
	}
	return nil, false
}

// Map returns the row as a map. Order is lost.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.keys))
	for i, k := range r.keys {
		m[k] = r.vals[i]
	}
	return m
}

// bind names positional values decoded from an array-shaped row.
func (r *Row) bind(columns []string) {
	if len(r.keys) != 0 {
		return
	}
	r.keys = make([]string, len(r.vals))
	for i := range r.vals {
		if i < len(columns) {
			r.keys[i] = columns[i]
		} else {
			r.keys[i] = strconv.Itoa(i)
		}
	}
}

// UnmarshalJSON accepts an object row or an array row. Numbers are kept as
// json.Number so they print exactly as the backend sent them.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	r.keys, r.vals = nil, nil
	switch tok {
	case json.Delim('{'):
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("row: unexpected key token %v", keyTok)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return fmt.Errorf("row: field %q: %w", key, err)
			}
			r.keys = append(r.keys, key)
			r.vals = append(r.vals, v)
		}
	case json.Delim('['):
		for dec.More() {
			var v any
			if err := dec.Decode(&v); err != nil {
				return fmt.Errorf("row: position %d: %w", len(r.vals), err)
			}
			r.vals = append(r.vals, v)
		}
	default:
		return fmt.Errorf("row must be an object or an array, got %v", tok)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON writes the row as an object in key order.
func (r Row) MarshalJSON() ([]byte, error) {
	if len(r.keys) == 0 && len(r.vals) != 0 {
		return json.Marshal(r.vals)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// QueryResult is one decoded data endpoint response.
type QueryResult struct {
	Rows      []Row    `json:"rows"`
	Columns   []string `json:"columns,omitempty"`
	Truncated bool     `json:"truncated"`
	// Raw is the body of a delimited-text response.
	Raw string `json:"-"`
}

// BindColumns names array-shaped rows after the result columns.
func (r *QueryResult) BindColumns() {
	for i := range r.Rows {
		r.Rows[i].bind(r.Columns)
	}
}

// ColumnNames returns the declared columns or, when absent, the keys of the first row.
func (r *QueryResult) ColumnNames() []string {
	if len(r.Columns) > 0 {
		return r.Columns
	}
	if len(r.Rows) > 0 {
		return r.Rows[0].Keys()
	}
	return nil
}
