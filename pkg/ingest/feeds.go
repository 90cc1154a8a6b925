package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes one RSS/Atom feed to poll.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// Priority is attached to events as a hint, higher means more important.
	Priority int `yaml:"priority"`
}

// LoadFeeds reads the feed list from a YAML file with a top-level feeds key.
// Entries without a name or URL are rejected.
func LoadFeeds(path string) ([]FeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds config: %w", err)
	}

	var doc struct {
		Feeds []FeedConfig `yaml:"feeds"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing feeds config %s: %w", path, err)
	}
	for i, f := range doc.Feeds {
		if f.Name == "" || f.URL == "" {
			return nil, fmt.Errorf("feeds config %s: entry %d needs both name and url", path, i)
		}
	}
	return doc.Feeds, nil
}

// ProvidersFromFeeds maps feed configs to live RSS providers.
func ProvidersFromFeeds(feeds []FeedConfig) []Provider {
	out := make([]Provider, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, NewRSSProvider(f.Name, f.URL, f.Priority))
	}
	return out
}
