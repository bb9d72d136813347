package sourcemgr

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"event-harvest/internal/domain/entity"
)

// staticFile is the on-disk shape of the static source declarations.
type staticFile struct {
	Sources []staticSource `yaml:"sources"`
}

type staticSource struct {
	Name                 string            `yaml:"name"`
	BaseURL              string            `yaml:"base_url"`
	SourceType           string            `yaml:"source_type"`
	FeedURL              string            `yaml:"feed_url"`
	Endpoint             string            `yaml:"endpoint"`
	Options              map[string]string `yaml:"options"`
	ScrapeFrequencyHours int               `yaml:"scrape_frequency_hours"`
}

// LoadStaticSources reads statically declared sources from a YAML file.
// These are merged into the registry at startup and are the only sources
// available in degraded mode. A missing path is not an error: it simply
// yields no declarations.
func LoadStaticSources(path string) ([]*entity.EventSource, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read static sources: %w", err)
	}

	var file staticFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse static sources: %w", err)
	}

	sources := make([]*entity.EventSource, 0, len(file.Sources))
	for i, decl := range file.Sources {
		src := &entity.EventSource{
			Name:                 decl.Name,
			BaseURL:              decl.BaseURL,
			SourceType:           decl.SourceType,
			ScrapeFrequencyHours: decl.ScrapeFrequencyHours,
		}
		if decl.FeedURL != "" || decl.Endpoint != "" || len(decl.Options) > 0 {
			src.ScrapeConfig = &entity.ScrapeConfig{
				FeedURL:  decl.FeedURL,
				Endpoint: decl.Endpoint,
				Options:  decl.Options,
			}
		}
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("static source %d (%q): %w", i, decl.Name, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
