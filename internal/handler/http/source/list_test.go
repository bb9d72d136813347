package source_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"event-harvest/internal/handler/http/source"
)

func TestListHandler_Success(t *testing.T) {
	svc, created := newService(t,
		seedInput("City Calendar", "https://example.com/events"),
		seedInput("Music Hall", "https://music.example.com/shows"),
	)
	if err := svc.Deactivate(context.Background(), created[1].ID); err != nil {
		t.Fatalf("deactivate seed: %v", err)
	}

	handler := source.ListHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	var result []source.DTO
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("result length = %d, want 2", len(result))
	}
	byName := map[string]source.DTO{}
	for _, dto := range result {
		byName[dto.Name] = dto
	}
	if !byName["City Calendar"].Active {
		t.Error("City Calendar should be active")
	}
	if byName["Music Hall"].Active {
		t.Error("Music Hall should be inactive")
	}
}

func TestListHandler_ActiveFilter(t *testing.T) {
	svc, created := newService(t,
		seedInput("City Calendar", "https://example.com/events"),
		seedInput("Music Hall", "https://music.example.com/shows"),
	)
	if err := svc.Deactivate(context.Background(), created[1].ID); err != nil {
		t.Fatalf("deactivate seed: %v", err)
	}

	handler := source.ListHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/sources?active=true", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	var result []source.DTO
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("result length = %d, want 1", len(result))
	}
	if result[0].Name != "City Calendar" {
		t.Errorf("Name = %q, want %q", result[0].Name, "City Calendar")
	}
}

func TestListHandler_EmptyList(t *testing.T) {
	svc, _ := newService(t)
	handler := source.ListHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	var result []source.DTO
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// 空のリストが返ることを確認
	if len(result) != 0 {
		t.Fatalf("result length = %d, want 0", len(result))
	}
}
