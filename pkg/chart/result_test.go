package chart

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRowKeepsObjectKeyOrder(t *testing.T) {
	var r Row
	if err := json.Unmarshal([]byte(`{"zeta": 1, "alpha": "a", "mid": null}`), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, r.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	v, ok := r.Get("zeta")
	if !ok {
		t.Fatal("expected zeta to be present")
	}
	if n, ok := v.(json.Number); !ok || n.String() != "1" {
		t.Errorf("expected json.Number 1, got %v (%T)", v, v)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}
}

func TestRowMarshalRoundTrip(t *testing.T) {
	input := `{"b":2,"a":[1,2],"c":{"x":"y"}}`
	var r Row
	if err := json.Unmarshal([]byte(input), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != input {
		t.Errorf("got %s, want %s", out, input)
	}
}

func TestRowRejectsScalars(t *testing.T) {
	var r Row
	if err := json.Unmarshal([]byte(`42`), &r); err == nil {
		t.Error("expected error for scalar row")
	}
}

func TestQueryResultBindColumns(t *testing.T) {
	var res QueryResult
	body := `{"rows": [[1, "x", true]], "columns": ["id", "name"], "truncated": true}`
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	res.BindColumns()

	if !res.Truncated {
		t.Error("expected truncated to be true")
	}
	if diff := cmp.Diff([]string{"id", "name", "2"}, res.Rows[0].Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := res.Rows[0].Get("name"); v != "x" {
		t.Errorf("expected name x, got %v", v)
	}
}

func TestQueryResultColumnNames(t *testing.T) {
	tests := []struct {
		name string
		res  QueryResult
		want []string
	}{
		{
			name: "declared columns win",
			res: QueryResult{
				Columns: []string{"a", "b"},
				Rows:    []Row{NewRow([]string{"b", "a"}, []any{1, 2})},
			},
			want: []string{"a", "b"},
		},
		{
			name: "first row keys",
			res:  QueryResult{Rows: []Row{NewRow([]string{"b", "a"}, []any{1, 2})}},
			want: []string{"b", "a"},
		},
		{
			name: "empty",
			res:  QueryResult{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.res.ColumnNames()); diff != "" {
				t.Errorf("ColumnNames() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBoundsExtend(t *testing.T) {
	b := Bounds{SouthWest: LatLng{10, 20}, NorthEast: LatLng{10, 20}}
	b.Extend(LatLng{30, 40})
	b.Extend(LatLng{-5, 25})

	want := Bounds{SouthWest: LatLng{-5, 20}, NorthEast: LatLng{30, 40}}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}
	if !b.Contains(LatLng{0, 30}) {
		t.Error("expected point to be inside bounds")
	}
	if b.Contains(LatLng{50, 30}) {
		t.Error("expected point to be outside bounds")
	}
}

func TestErrorMessages(t *testing.T) {
	err := NewMissingFieldError(LibraryMetric, "value", "")
	if err.Error() != `metric chart: missing field "value"` {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrMissingField) {
		t.Error("MissingFieldError should wrap ErrMissingField")
	}

	netErr := &NetworkError{URL: "http://x/db.json", Status: 500, Err: errBoom}
	if netErr.Unwrap() != errBoom {
		t.Error("expected Unwrap to return the cause")
	}
}

var errBoom = errorString("boom")

type errorString string

func (e errorString) Error() string { return string(e) }
