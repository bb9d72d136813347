// Standalone diagnostic for registered event sources. It walks every source
// in the database, probes the URL the extractor would fetch, and writes a
// report so broken sources can be fixed or retired before they burn through
// their error budget in production.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run scripts/diagnose_sources.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mmcdole/gofeed"
)

// SourceDiagnostic is the probe result for a single source.
type SourceDiagnostic struct {
	Name         string `json:"name"`
	SourceType   string `json:"source_type"`
	URL          string `json:"url"`
	Status       string `json:"status"` // "OK", "HTTP_ERROR", "PARSE_ERROR", "EMPTY", "TIMEOUT"
	HTTPCode     int    `json:"http_code,omitempty"`
	ItemCount    int    `json:"item_count,omitempty"`
	Active       bool   `json:"active"`
	ErrorCount   int    `json:"error_count"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

type sourceRow struct {
	ID         string
	Name       string
	BaseURL    string
	SourceType string
	FeedURL    sql.NullString
	Endpoint   sql.NullString
	Active     bool
	ErrorCount int
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	sources, err := fetchSources(db)
	if err != nil {
		log.Fatalf("Failed to fetch sources: %v", err)
	}

	log.Printf("Diagnosing %d sources...\n", len(sources))

	diagnostics := make([]SourceDiagnostic, 0, len(sources))
	for i, src := range sources {
		log.Printf("[%d/%d] %s (%s)", i+1, len(sources), src.Name, src.SourceType)
		diagnostics = append(diagnostics, diagnose(src, 30*time.Second))

		// スクレイプ先への負荷を抑える
		time.Sleep(500 * time.Millisecond)
	}

	printReport(diagnostics)
	writeJSONReport(diagnostics)
}

func fetchSources(db *sql.DB) ([]sourceRow, error) {
	rows, err := db.Query(`
SELECT id, name, base_url, source_type,
       scrape_config->>'feed_url', scrape_config->>'endpoint',
       active, error_count
FROM sources ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var sources []sourceRow
	for rows.Next() {
		var s sourceRow
		if err := rows.Scan(&s.ID, &s.Name, &s.BaseURL, &s.SourceType,
			&s.FeedURL, &s.Endpoint, &s.Active, &s.ErrorCount); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// probeURL picks the URL the matching extractor would fetch.
func probeURL(src sourceRow) string {
	switch src.SourceType {
	case "Feed":
		if src.FeedURL.Valid && src.FeedURL.String != "" {
			return src.FeedURL.String
		}
	case "API":
		if src.Endpoint.Valid && src.Endpoint.String != "" {
			return src.Endpoint.String
		}
	}
	return src.BaseURL
}

func diagnose(src sourceRow, timeout time.Duration) SourceDiagnostic {
	diag := SourceDiagnostic{
		Name:       src.Name,
		SourceType: src.SourceType,
		URL:        probeURL(src),
		Active:     src.Active,
		ErrorCount: src.ErrorCount,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	start := time.Now()

	if src.SourceType == "Feed" {
		parsed, err := gofeed.NewParser().ParseURLWithContext(diag.URL, ctx)
		diag.ResponseTime = time.Since(start).Milliseconds()
		if err != nil {
			if ctx.Err() != nil {
				diag.Status = "TIMEOUT"
			} else {
				diag.Status = "PARSE_ERROR"
			}
			diag.ErrorMessage = err.Error()
			return diag
		}
		diag.ItemCount = len(parsed.Items)
		if diag.ItemCount == 0 {
			diag.Status = "EMPTY"
		} else {
			diag.Status = "OK"
		}
		return diag
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, diag.URL, nil)
	if err != nil {
		diag.Status = "HTTP_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}
	resp, err := http.DefaultClient.Do(req)
	diag.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			diag.Status = "TIMEOUT"
		} else {
			diag.Status = "HTTP_ERROR"
		}
		diag.ErrorMessage = err.Error()
		return diag
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	diag.HTTPCode = resp.StatusCode
	if resp.StatusCode >= 400 {
		diag.Status = "HTTP_ERROR"
	} else {
		diag.Status = "OK"
	}
	return diag
}

func printReport(diagnostics []SourceDiagnostic) {
	var ok, broken int
	fmt.Println("\n=== Source Diagnostic Report ===")
	for _, d := range diagnostics {
		marker := "✓"
		if d.Status != "OK" {
			marker = "✗"
			broken++
		} else {
			ok++
		}
		fmt.Printf("%s %-40s %-5s %-12s %4dms", marker, d.Name, d.SourceType, d.Status, d.ResponseTime)
		if d.ItemCount > 0 {
			fmt.Printf("  items=%d", d.ItemCount)
		}
		if d.ErrorCount > 0 {
			fmt.Printf("  error_count=%d", d.ErrorCount)
		}
		if d.ErrorMessage != "" {
			fmt.Printf("  (%s)", d.ErrorMessage)
		}
		fmt.Println()
	}
	fmt.Printf("\nTotal: %d  OK: %d  Broken: %d\n", len(diagnostics), ok, broken)
}

func writeJSONReport(diagnostics []SourceDiagnostic) {
	data, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal JSON report: %v", err)
		return
	}
	path := "source_diagnostics.json"
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("Failed to write JSON report: %v", err)
		return
	}
	log.Printf("JSON report written to %s", path)
}
