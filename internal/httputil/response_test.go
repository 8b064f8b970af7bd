package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		errMsg string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad flux") }, http.StatusBadRequest, "bad flux"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no such target") }, http.StatusNotFound, "no such target"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, http.StatusInternalServerError, "boom"},
		{"bad gateway", func(w http.ResponseWriter) { BadGateway(w, "archive down") }, http.StatusBadGateway, "archive down"},
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %q, want application/json", ct)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json body: %v", err)
			}
			if body["error"] != tt.errMsg {
				t.Errorf("error = %q, want %q", body["error"], tt.errMsg)
			}
		})
	}
}

func TestWriteJSONOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"sample_count": 5})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["sample_count"] != 5 {
		t.Errorf("sample_count = %d, want 5", body["sample_count"])
	}
}
