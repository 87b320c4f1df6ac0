package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xen0bit/dashchart/pkg/chart"
)

func TestFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if got := r.URL.Query().Get("sql"); got != "select 1" {
			t.Errorf("Expected sql 'select 1', got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows": [{"b": 1, "a": 2.5}], "columns": ["b", "a"], "truncated": true}`))
	}))
	defer server.Close()

	url := BuildURL(server.URL+"/", "db", "select 1", "", chart.ShapeObjects, chart.FormatJSON)
	res, err := NewClient().Fetch(context.Background(), url, chart.FormatJSON)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if !res.Truncated {
		t.Error("Expected truncated result")
	}
	if diff := cmp.Diff([]string{"b", "a"}, res.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(res.Rows))
	}
	if v, _ := res.Rows[0].Get("a"); v != any(json.Number("2.5")) {
		t.Errorf("Expected a=2.5, got %v (%T)", v, v)
	}
}

func TestFetchArrayShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows": [["x", 1], ["y", 2]], "columns": ["name", "n"], "truncated": false}`))
	}))
	defer server.Close()

	res, err := NewClient().Fetch(context.Background(), server.URL, chart.FormatJSON)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if v, _ := res.Rows[1].Get("name"); v != "y" {
		t.Errorf("Expected name y, got %v", v)
	}
}

func TestFetchCSV(t *testing.T) {
	body := "day,count\n2021-01-01,3\n2021-01-02,5\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(body))
	}))
	defer server.Close()

	res, err := NewClient().Fetch(context.Background(), server.URL, chart.FormatCSV)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.Raw != body {
		t.Errorf("Expected raw body to be kept, got %q", res.Raw)
	}
	if diff := cmp.Diff([]string{"day", "count"}, res.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(res.Rows))
	}
	if v, _ := res.Rows[1].Get("count"); v != "5" {
		t.Errorf("Expected count 5, got %v", v)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantNet bool
		wantDec bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantNet: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error": "no such table"}`, wantNet: true},
		{name: "invalid json", status: http.StatusOK, body: `{"rows": [`, wantDec: true},
		{name: "missing rows", status: http.StatusOK, body: `{"ok": true}`, wantDec: true},
		{name: "scalar rows", status: http.StatusOK, body: `{"rows": [1, 2]}`, wantDec: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient().Fetch(context.Background(), server.URL, chart.FormatJSON)
			if err == nil {
				t.Fatal("Expected an error")
			}

			var netErr *chart.NetworkError
			var decErr *chart.DecodeError
			if got := errors.As(err, &netErr); got != tt.wantNet {
				t.Errorf("NetworkError = %v, want %v (err: %v)", got, tt.wantNet, err)
			}
			if got := errors.As(err, &decErr); got != tt.wantDec {
				t.Errorf("DecodeError = %v, want %v (err: %v)", got, tt.wantDec, err)
			}
			if tt.wantNet && netErr.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, netErr.Status)
			}
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient().Fetch(context.Background(), url, chart.FormatJSON)
	var netErr *chart.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}
	if netErr.Status != 0 {
		t.Errorf("Expected no status, got %d", netErr.Status)
	}
}

func TestFetchHonoursContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient().Fetch(ctx, server.URL, chart.FormatJSON)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestDecodeCSVEmpty(t *testing.T) {
	res, err := DecodeCSV(nil)
	if err != nil {
		t.Fatalf("DecodeCSV failed: %v", err)
	}
	if len(res.Rows) != 0 || len(res.Columns) != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
}
