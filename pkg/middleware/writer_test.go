package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecorderCapturesStatus(t *testing.T) {
	rec := NewRecorder(httptest.NewRecorder())
	if rec.Status != http.StatusOK {
		t.Fatalf("default status = %d, want 200", rec.Status)
	}
	rec.WriteHeader(http.StatusTeapot)
	if rec.Status != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Status)
	}
}

func TestRecorderHijackWithoutHijacker(t *testing.T) {
	rec := NewRecorder(httptest.NewRecorder())
	if _, _, err := rec.Hijack(); err == nil {
		t.Fatal("expected an error hijacking a plain ResponseWriter")
	}
}
