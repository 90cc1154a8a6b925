package relevance

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables understood by the gate.
const (
	EnvConfigPath = "RELEVANCE_CONFIG_PATH"
	EnvThreshold  = "RELEVANCE_THRESHOLD"
	EnvHotReload  = "RELEVANCE_HOT_RELOAD"
	EnvAppEnv     = "APP_ENV"
)

// Defaults applied when the config or environment is silent.
const (
	DefaultConfigPath = "config/relevance.yaml"
	DefaultThreshold  = 0.5
)

// singleStockTag marks anchors that also name an unrelated single company.
const singleStockTag = "single_stock_only"

// Config is the declarative rule file for the relevance gate.
type Config struct {
	Relevance Section             `yaml:"relevance"`
	Weights   map[string]int      `yaml:"weights"`
	Anchors   []AnchorConfig      `yaml:"anchors"`
	Blockers  []BlockerConfig     `yaml:"blockers"`
	Combos    ComboConfig         `yaml:"combos"`
	Aliases   map[string][]string `yaml:"aliases"`
}

// Section holds the gate-wide knobs.
type Section struct {
	Threshold float64 `yaml:"threshold"`
	// NearDefaultWindow is informational only; each near constraint carries
	// its own window.
	NearDefaultWindow int `yaml:"near_default_window"`
}

// AnchorConfig is one pattern that can indicate relevance.
type AnchorConfig struct {
	ID       string      `yaml:"id"`
	Category string      `yaml:"category"`
	Pattern  string      `yaml:"pattern"`
	Near     *NearConfig `yaml:"near,omitempty"`
	Tag      string      `yaml:"tag,omitempty"`
}

// BlockerConfig is a hard veto with an optional exception.
type BlockerConfig struct {
	ID      string `yaml:"id"`
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason"`
	// Action is reserved; "block" is the only behavior today.
	Action     string      `yaml:"action,omitempty"`
	Near       *NearConfig `yaml:"near,omitempty"`
	UnlessNear *NearConfig `yaml:"unless_near,omitempty"`
}

// NearConfig requires a secondary pattern within window tokens.
type NearConfig struct {
	Pattern string `yaml:"pattern"`
	Window  int    `yaml:"window"`
}

// ComboConfig lists category multisets of which at least one must be
// satisfiable for a text to be structurally relevant.
type ComboConfig struct {
	PassAny []ComboNeed `yaml:"pass_any"`
}

// ComboNeed is one recipe, e.g. need: [macro, macro, verb_or_semi].
type ComboNeed struct {
	Need []string `yaml:"need"`
}

// ConfigError reports a rule file that failed to parse or compile. RuleID is
// empty for document-level failures.
type ConfigError struct {
	RuleID string
	Field  string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("relevance config: %v", e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("relevance config: rule %q: %s: %v", e.RuleID, e.Field, e.Err)
	}
	return fmt.Sprintf("relevance config: rule %q: %v", e.RuleID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ParseConfig decodes the YAML rule file and validates its structure.
// Pattern compilation happens later in NewEngine.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Err: err}
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if !isFinite(cfg.Relevance.Threshold) {
		cfg.Relevance.Threshold = DefaultThreshold
	}

	ids := make(map[string]bool, len(cfg.Anchors)+len(cfg.Blockers))
	for i := range cfg.Anchors {
		a := &cfg.Anchors[i]
		if a.ID == "" {
			return &ConfigError{Err: fmt.Errorf("anchor %d has no id", i)}
		}
		if ids[a.ID] {
			return &ConfigError{RuleID: a.ID, Err: fmt.Errorf("duplicate rule id")}
		}
		ids[a.ID] = true
		if a.Category == "" {
			return &ConfigError{RuleID: a.ID, Field: "category", Err: fmt.Errorf("empty")}
		}
		if a.Pattern == "" {
			return &ConfigError{RuleID: a.ID, Field: "pattern", Err: fmt.Errorf("empty")}
		}
	}
	for i := range cfg.Blockers {
		b := &cfg.Blockers[i]
		if b.ID == "" {
			return &ConfigError{Err: fmt.Errorf("blocker %d has no id", i)}
		}
		if ids[b.ID] {
			return &ConfigError{RuleID: b.ID, Err: fmt.Errorf("duplicate rule id")}
		}
		ids[b.ID] = true
		if b.Pattern == "" {
			return &ConfigError{RuleID: b.ID, Field: "pattern", Err: fmt.Errorf("empty")}
		}
	}
	for i, combo := range cfg.Combos.PassAny {
		if len(combo.Need) == 0 {
			return &ConfigError{Err: fmt.Errorf("combo %d has an empty need list", i)}
		}
		for _, need := range combo.Need {
			if strings.TrimSpace(need) == "" {
				return &ConfigError{Err: fmt.Errorf("combo %d names an empty category", i)}
			}
		}
	}
	for name, targets := range cfg.Aliases {
		if len(targets) == 0 {
			return &ConfigError{Err: fmt.Errorf("alias %q expands to nothing", name)}
		}
	}
	return nil
}

// thresholdFromEnv parses the optional threshold override. Malformed values
// are ignored; out-of-range values are clamped to [0,1].
func thresholdFromEnv() (float64, bool) {
	raw, ok := os.LookupEnv(EnvThreshold)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return clamp01(v), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
