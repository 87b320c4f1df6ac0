package common

import "github.com/xen0bit/dashchart/pkg/chart"

// TableDataset is the name of the dataset grammar specs read fetched rows from.
const TableDataset = "table"

// DataSource returns the values and format block for a grammar data entry.
// Delimited-text results are handed over as raw text for the grammar to parse.
func DataSource(rc chart.RenderContext, result *chart.QueryResult) (any, map[string]any) {
	if rc.ResponseFormat() == chart.FormatCSV {
		return result.Raw, map[string]any{"type": "csv"}
	}
	rows := result.Rows
	if rows == nil {
		rows = []chart.Row{}
	}
	return rows, map[string]any{"type": "json"}
}

// BindData writes the fetched values into a data entry, dropping any url so
// the entry cannot point somewhere else.
func BindData(entry map[string]any, values any, format map[string]any) map[string]any {
	out := CopyMap(entry)
	delete(out, "url")
	out["values"] = values
	if _, ok := out["format"]; !ok {
		out["format"] = format
	}
	return out
}
