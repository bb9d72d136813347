package pagination_test

import (
	"testing"

	"event-harvest/internal/common/pagination"
)

func TestParams_Validate(t *testing.T) {
	t.Parallel()

	config := pagination.Config{
		DefaultPage:  1,
		DefaultLimit: 25,
		MaxLimit:     100,
	}

	tests := []struct {
		name      string
		params    pagination.Params
		wantError bool
	}{
		{"typical listing request", pagination.Params{Page: 1, Limit: 25}, false},
		{"limit at the cap", pagination.Params{Page: 1, Limit: 100}, false},
		{"smallest valid window", pagination.Params{Page: 1, Limit: 1}, false},
		{"deep page", pagination.Params{Page: 400, Limit: 25}, false},
		{"zero page", pagination.Params{Page: 0, Limit: 25}, true},
		{"negative page", pagination.Params{Page: -3, Limit: 25}, true},
		{"zero limit", pagination.Params{Page: 1, Limit: 0}, true},
		{"negative limit", pagination.Params{Page: 1, Limit: -25}, true},
		{"limit one over the cap", pagination.Params{Page: 1, Limit: 101}, true},
		{"everything invalid", pagination.Params{Page: -1, Limit: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate(config)

			if tt.wantError && err == nil {
				t.Errorf("Validate(%+v) error = nil, want error", tt.params)
			}
			if !tt.wantError && err != nil {
				t.Errorf("Validate(%+v) error = %v, want nil", tt.params, err)
			}
		})
	}
}

func TestParams_WithDefaults(t *testing.T) {
	t.Parallel()

	config := pagination.Config{
		DefaultPage:  1,
		DefaultLimit: 25,
		MaxLimit:     100,
	}

	tests := []struct {
		name   string
		params pagination.Params
		want   pagination.Params
	}{
		{"valid params pass through", pagination.Params{Page: 3, Limit: 40}, pagination.Params{Page: 3, Limit: 40}},
		{"zero page gets default", pagination.Params{Page: 0, Limit: 40}, pagination.Params{Page: 1, Limit: 40}},
		{"negative page gets default", pagination.Params{Page: -7, Limit: 40}, pagination.Params{Page: 1, Limit: 40}},
		{"zero limit gets default", pagination.Params{Page: 3, Limit: 0}, pagination.Params{Page: 3, Limit: 25}},
		{"negative limit gets default", pagination.Params{Page: 3, Limit: -25}, pagination.Params{Page: 3, Limit: 25}},
		// 上限超えはエラーにせず上限へ丸める
		{"oversized limit gets capped", pagination.Params{Page: 3, Limit: 500}, pagination.Params{Page: 3, Limit: 100}},
		{"limit at the cap stays", pagination.Params{Page: 3, Limit: 100}, pagination.Params{Page: 3, Limit: 100}},
		{"zero value gets both defaults", pagination.Params{}, pagination.Params{Page: 1, Limit: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.params.WithDefaults(config)

			if got.Page != tt.want.Page {
				t.Errorf("WithDefaults() Page = %d, want %d", got.Page, tt.want.Page)
			}
			if got.Limit != tt.want.Limit {
				t.Errorf("WithDefaults() Limit = %d, want %d", got.Limit, tt.want.Limit)
			}
		})
	}
}
