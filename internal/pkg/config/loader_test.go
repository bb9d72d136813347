package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

/* ───────── LoadEnvString ───────── */

func TestLoadEnvString(t *testing.T) {
	tests := []struct {
		name string
		set  bool
		env  string
		want string
	}{
		{"set", true, "custom_value", "custom_value"},
		{"unset", false, "", "default_value"},
		{"empty uses default", true, "", "default_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("TEST_STRING", tt.env)
			}
			assert.Equal(t, tt.want, LoadEnvString("TEST_STRING", "default_value"))
		})
	}
}

/* ───────── LoadEnvWithFallback ───────── */

func TestLoadEnvWithFallback_ValidValue(t *testing.T) {
	t.Setenv("TEST_CRON", "0 6 * * *")

	result := LoadEnvWithFallback("TEST_CRON", "30 5 * * *", ValidateCronSchedule)

	assert.Equal(t, "0 6 * * *", result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvWithFallback_UnsetUsesDefaultSilently(t *testing.T) {
	result := LoadEnvWithFallback("TEST_CRON", "30 5 * * *", ValidateCronSchedule)

	assert.Equal(t, "30 5 * * *", result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvWithFallback_NilValidatorAcceptsAnything(t *testing.T) {
	t.Setenv("TEST_STRING", "any_value")

	result := LoadEnvWithFallback("TEST_STRING", "default", nil)

	assert.Equal(t, "any_value", result.Value)
	assert.False(t, result.FallbackApplied)
}

// バリデーション失敗時は警告付きでデフォルトへ戻る
func TestLoadEnvWithFallback_InvalidValueFallsBack(t *testing.T) {
	t.Setenv("TEST_CRON", "invalid format")

	result := LoadEnvWithFallback("TEST_CRON", "30 5 * * *", ValidateCronSchedule)

	assert.Equal(t, "30 5 * * *", result.Value)
	assert.True(t, result.FallbackApplied)
	assert.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Invalid TEST_CRON='invalid format'")
	assert.Contains(t, result.Warnings[0], "falling back to default '30 5 * * *'")
}

func TestLoadEnvWithFallback_InvalidTimezoneFallsBack(t *testing.T) {
	t.Setenv("TEST_TZ", "Invalid/Timezone")

	result := LoadEnvWithFallback("TEST_TZ", "Asia/Tokyo", ValidateTimezone)

	assert.Equal(t, "Asia/Tokyo", result.Value)
	assert.True(t, result.FallbackApplied)
	assert.Contains(t, result.Warnings[0], "Invalid TEST_TZ='Invalid/Timezone'")
}

/* ───────── LoadEnvDuration ───────── */

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		env          string
		want         time.Duration
		wantFallback bool
	}{
		{"valid", "1h", time.Hour, false},
		{"compound", "1h30m45s", time.Hour + 30*time.Minute + 45*time.Second, false},
		{"unset", "", 30 * time.Minute, false},
		{"unparseable", "not-a-duration", 30 * time.Minute, true},
		{"negative rejected", "-30m", 30 * time.Minute, true},
		{"zero rejected", "0s", 30 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("TEST_TIMEOUT", tt.env)
			}
			result := LoadEnvDuration("TEST_TIMEOUT", 30*time.Minute, ValidatePositiveDuration)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.Len(t, result.Warnings, 1)
				assert.Contains(t, result.Warnings[0], "falling back to default '30m0s'")
			} else {
				assert.Empty(t, result.Warnings)
			}
		})
	}
}

func TestLoadEnvDuration_RangeValidator(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "10h")

	result := LoadEnvDuration("TEST_TIMEOUT", 30*time.Minute, func(d time.Duration) error {
		return ValidateDuration(d, time.Minute, 2*time.Hour)
	})

	assert.Equal(t, 30*time.Minute, result.Value)
	assert.True(t, result.FallbackApplied)
	assert.Contains(t, result.Warnings[0], "exceeds maximum")
}

/* ───────── LoadEnvInt ───────── */

func TestLoadEnvInt(t *testing.T) {
	portRange := func(v int) error { return ValidateIntRange(v, 1024, 65535) }

	tests := []struct {
		name         string
		env          string
		validator    func(int) error
		want         int
		wantFallback bool
	}{
		{"valid", "8080", portRange, 8080, false},
		{"unset", "", portRange, 9090, false},
		{"unparseable", "not-a-number", portRange, 9090, true},
		{"below minimum", "100", portRange, 9090, true},
		{"above maximum", "70000", portRange, 9090, true},
		{"negative without validator", "-5", nil, -5, false},
		{"zero without validator", "0", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("TEST_PORT", tt.env)
			}
			result := LoadEnvInt("TEST_PORT", 9090, tt.validator)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvInt_FallbackWarningFormat(t *testing.T) {
	t.Setenv("TEST_PORT", "not-a-number")

	result := LoadEnvInt("TEST_PORT", 9090, nil)

	assert.True(t, result.FallbackApplied)
	assert.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Invalid TEST_PORT='not-a-number'")
	assert.Contains(t, result.Warnings[0], "invalid integer format")
	assert.Contains(t, result.Warnings[0], "falling back to default '9090'")
}

// fmt.Sscanf は先頭の整数部だけ読むので "10.5" は 10 になる
func TestLoadEnvInt_DecimalParsesIntegerPart(t *testing.T) {
	t.Setenv("TEST_COUNT", "10.5")

	result := LoadEnvInt("TEST_COUNT", 100, nil)

	assert.Equal(t, 10, result.Value)
	assert.False(t, result.FallbackApplied)
}

/* ───────── LoadEnvBool ───────── */

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		env          string
		want         bool
		wantFallback bool
	}{
		{"1", true, false},
		{"t", true, false},
		{"T", true, false},
		{"true", true, false},
		{"TRUE", true, false},
		{"True", true, false},
		{"0", false, false},
		{"f", false, false},
		{"F", false, false},
		{"false", false, false},
		{"FALSE", false, false},
		{"False", false, false},
		{"yes", false, true},
		{"no", false, true},
		{"on", false, true},
		{"2", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.env)

			result := LoadEnvBool("TEST_BOOL", false)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.Contains(t, result.Warnings[0], "invalid boolean format")
			}
		})
	}
}

func TestLoadEnvBool_UnsetUsesDefault(t *testing.T) {
	result := LoadEnvBool("TEST_BOOL", true)

	assert.Equal(t, true, result.Value)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.FallbackApplied)
}

/* ───────── combined load, the worker startup shape ───────── */

func TestMultipleFallbacks(t *testing.T) {
	t.Setenv("CLEAN_SCHEDULE", "invalid")
	t.Setenv("WORKER_TIMEZONE", "Invalid/Zone")
	t.Setenv("SCRAPE_TIMEOUT", "-5m")

	fallbackCount := 0
	var warnings []string

	cronResult := LoadEnvWithFallback("CLEAN_SCHEDULE", "0 4 * * *", ValidateCronSchedule)
	tzResult := LoadEnvWithFallback("WORKER_TIMEZONE", "UTC", ValidateTimezone)
	timeoutResult := LoadEnvDuration("SCRAPE_TIMEOUT", 2*time.Minute, ValidatePositiveDuration)

	for _, r := range []ConfigLoadResult{cronResult, tzResult, timeoutResult} {
		if r.FallbackApplied {
			fallbackCount++
			warnings = append(warnings, r.Warnings...)
		}
	}

	assert.Equal(t, 3, fallbackCount)
	assert.Len(t, warnings, 3)
	assert.Equal(t, "0 4 * * *", cronResult.Value)
	assert.Equal(t, "UTC", tzResult.Value)
	assert.Equal(t, 2*time.Minute, timeoutResult.Value)
}
