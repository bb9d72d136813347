package entity_test

import (
	"strings"
	"testing"

	"event-harvest/internal/domain/entity"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https", "https://events.example.com/calendar", false},
		{"valid http", "http://events.example.com", false},
		{"empty", "", true},
		{"no scheme", "events.example.com", true},
		{"ftp scheme", "ftp://events.example.com", true},
		{"no host", "https://", true},
		{"loopback", "http://127.0.0.1/feed", true},
		{"private network", "http://192.168.1.10/feed", true},
		{"metadata endpoint", "http://169.254.169.254/latest", true},
		{"too long", "https://example.com/" + strings.Repeat("a", 2048), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := entity.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
