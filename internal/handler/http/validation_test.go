package http

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newValidatedHandler(reached *bool) http.Handler {
	return InputValidation()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reached != nil {
			*reached = true
		}
		w.WriteHeader(http.StatusOK)
	}))
}

/* ───────── authorization header limit ───────── */

func TestInputValidation_AuthHeader(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantCode    int
		wantReached bool
	}{
		{"bearer token", "Bearer ops-token-1234", http.StatusOK, true},
		{"empty header", "", http.StatusOK, true},
		{"at limit", strings.Repeat("a", maxAuthHeaderBytes), http.StatusOK, true},
		{"over limit", strings.Repeat("a", maxAuthHeaderBytes+1), http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			req := httptest.NewRequest(http.MethodGet, "/sources", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newValidatedHandler(&reached).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if reached != tt.wantReached {
				t.Errorf("handler reached = %v, want %v", reached, tt.wantReached)
			}
			if tt.wantCode == http.StatusBadRequest && !strings.Contains(rec.Body.String(), "authorization header too large") {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

/* ───────── path length limit ───────── */

func TestInputValidation_PathLength(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantCode    int
		wantReached bool
	}{
		{"normal path", "/sources/3f0e8d0a-6a31-4c9c-9a51-2f4f0f5d8b11/events", http.StatusOK, true},
		{"at limit", "/" + strings.Repeat("a", maxPathBytes-1), http.StatusOK, true},
		{"over limit", "/" + strings.Repeat("a", maxPathBytes), http.StatusRequestURITooLong, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			rec := httptest.NewRecorder()
			newValidatedHandler(&reached).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if reached != tt.wantReached {
				t.Errorf("handler reached = %v, want %v", reached, tt.wantReached)
			}
		})
	}
}

// 認可ヘッダ違反が先に検出される
func TestInputValidation_AuthCheckedBeforePath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/"+strings.Repeat("b", maxPathBytes), nil)
	req.Header.Set("Authorization", strings.Repeat("a", maxAuthHeaderBytes+1))
	rec := httptest.NewRecorder()
	newValidatedHandler(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

/* ───────── body limit ───────── */

func TestInputValidation_BodyOverLimit(t *testing.T) {
	handler := InputValidation()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.Copy(io.Discard, r.Body); err == nil {
			t.Error("expected MaxBytesReader to reject the oversized body")
		}
		w.WriteHeader(http.StatusOK)
	}))

	body := bytes.NewReader(make([]byte, maxBodyBytes+1024))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sources", body))
}

func TestInputValidation_BodyWithinLimit(t *testing.T) {
	var got string
	handler := InputValidation()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		got = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	payload := `{"name":"City Calendar","base_url":"https://example.com/events"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sources", strings.NewReader(payload)))

	if got != payload {
		t.Errorf("body = %q, want %q", got, payload)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
