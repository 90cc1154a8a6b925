package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvWhitelistPath overrides the whitelist location.
const EnvWhitelistPath = "INGEST_WHITELIST_PATH"

var whitelistFallbacks = []string{
	"config/ingest_whitelist.yaml",
	"config/ingest_whitelist.json",
}

// LoadWhitelist reads a source whitelist from path. YAML files carry a
// sources list; JSON files are a bare string array. Entries are trimmed,
// deduplicated, and sorted.
func LoadWhitelist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading whitelist: %w", err)
	}

	if strings.HasSuffix(path, ".json") {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parsing whitelist %s: %w", path, err)
		}
		return cleanList(items), nil
	}

	var doc struct {
		Sources []string `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing whitelist %s: %w", path, err)
	}
	return cleanList(doc.Sources), nil
}

// LoadWhitelistDefault resolves the whitelist location: the
// INGEST_WHITELIST_PATH env var first, then config/ingest_whitelist.yaml,
// then config/ingest_whitelist.json. No file at all yields an empty list,
// which admits every source.
func LoadWhitelistDefault() ([]string, error) {
	if p := os.Getenv(EnvWhitelistPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%s points to unreadable path: %w", EnvWhitelistPath, err)
		}
		return LoadWhitelist(p)
	}
	for _, p := range whitelistFallbacks {
		if _, err := os.Stat(p); err == nil {
			return LoadWhitelist(p)
		}
	}
	return nil, nil
}

func cleanList(items []string) []string {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			set[t] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
