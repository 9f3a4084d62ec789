package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete IKB configuration (v2 schema)
type Config struct {
	Version int    `json:"version" mapstructure:"version"`
	DataDir string `json:"dataDir" mapstructure:"dataDir"`

	Store     StoreConfig     `json:"store" mapstructure:"store"`
	Search    SearchConfig    `json:"search" mapstructure:"search"`
	Retrieval RetrievalConfig `json:"retrieval" mapstructure:"retrieval"`
	Answer    AnswerConfig    `json:"answer" mapstructure:"answer"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// StoreConfig contains incident store configuration
type StoreConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// SearchConfig contains search backend configuration
type SearchConfig struct {
	// TopK is the candidate pool size fetched before filtering.
	TopK int `json:"topK" mapstructure:"topK"`
	// RerankScale is the upper bound of the reranker score range used
	// when blending rerank and lexical scores.
	RerankScale float64 `json:"rerankScale" mapstructure:"rerankScale"`
}

// ThresholdProfile is one row of the gate table: minimum scores a
// candidate must clear plus the result cap for that profile.
type ThresholdProfile struct {
	SearchThreshold float64 `json:"searchThreshold" mapstructure:"searchThreshold"`
	RerankThreshold float64 `json:"rerankThreshold" mapstructure:"rerankThreshold"`
	HybridThreshold float64 `json:"hybridThreshold" mapstructure:"hybridThreshold"`
	MaxResults      int     `json:"maxResults" mapstructure:"maxResults"`
}

// ThresholdProfiles groups the gate table rows by query profile.
type ThresholdProfiles struct {
	Statistical  ThresholdProfile `json:"statistical" mapstructure:"statistical"`
	Repair       ThresholdProfile `json:"repair" mapstructure:"repair"`
	RepairBroad  ThresholdProfile `json:"repairBroad" mapstructure:"repairBroad"`
	CauseSimilar ThresholdProfile `json:"causeSimilar" mapstructure:"causeSimilar"`
	Base         ThresholdProfile `json:"base" mapstructure:"base"`
}

// FallbackConfig controls the loosened second-pass retrieval used when
// the primary pass filters everything out.
type FallbackConfig struct {
	MinScore   float64 `json:"minScore" mapstructure:"minScore"`
	MaxResults int     `json:"maxResults" mapstructure:"maxResults"`
	TopK       int     `json:"topK" mapstructure:"topK"`
}

// RetrievalConfig contains relevance filtering configuration
type RetrievalConfig struct {
	Profiles ThresholdProfiles `json:"profiles" mapstructure:"profiles"`
	// StatKeywords flips any query onto the statistical profile.
	StatKeywords []string `json:"statKeywords" mapstructure:"statKeywords"`
	// BroadSymptomKeywords mark repair queries whose symptom wording is
	// too generic for tight gates (login/connect/failure style phrasing).
	BroadSymptomKeywords []string       `json:"broadSymptomKeywords" mapstructure:"broadSymptomKeywords"`
	Fallback             FallbackConfig `json:"fallback" mapstructure:"fallback"`
}

// AnswerConfig contains answer synthesis configuration
type AnswerConfig struct {
	Enabled         bool   `json:"enabled" mapstructure:"enabled"`
	Model           string `json:"model" mapstructure:"model"`
	MaxOutputTokens int    `json:"maxOutputTokens" mapstructure:"maxOutputTokens"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 2,
		DataDir: ".ikb",
		Store: StoreConfig{
			Path: ".ikb/incidents.db",
		},
		Search: SearchConfig{
			TopK:        20,
			RerankScale: 4.0,
		},
		Retrieval: RetrievalConfig{
			Profiles: ThresholdProfiles{
				Statistical: ThresholdProfile{
					SearchThreshold: 0.1,
					RerankThreshold: 1.0,
					HybridThreshold: 0.25,
					MaxResults:      15,
				},
				Repair: ThresholdProfile{
					SearchThreshold: 0.3,
					RerankThreshold: 1.6,
					HybridThreshold: 0.5,
					MaxResults:      8,
				},
				RepairBroad: ThresholdProfile{
					SearchThreshold: 0.05,
					RerankThreshold: 1.0,
					HybridThreshold: 0.2,
					MaxResults:      12,
				},
				CauseSimilar: ThresholdProfile{
					SearchThreshold: 0.25,
					RerankThreshold: 1.5,
					HybridThreshold: 0.45,
					MaxResults:      8,
				},
				Base: ThresholdProfile{
					SearchThreshold: 0.3,
					RerankThreshold: 1.5,
					HybridThreshold: 0.5,
					MaxResults:      8,
				},
			},
			StatKeywords: []string{
				"년도", "년", "월별", "기간", "현황", "통계", "건수", "발생", "발생일자", "언제",
			},
			BroadSymptomKeywords: []string{
				"보험", "가입", "불가", "접속", "단말", "휴대폰", "실패", "안됨", "오류", "사용자",
			},
			Fallback: FallbackConfig{
				MinScore:   0.1,
				MaxResults: 8,
				TopK:       15,
			},
		},
		Answer: AnswerConfig{
			Enabled:         true,
			Model:           "gpt-4o-mini",
			MaxOutputTokens: 1500,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .ikb/config.json
func LoadConfig(root string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("version", 2)
	v.SetDefault("dataDir", ".ikb")

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ".ikb"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Start from defaults so a sparse file only overrides what it names
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .ikb/config.json
func (c *Config) Save(root string) error {
	configPath := filepath.Join(root, ".ikb", "config.json")

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Write to file
	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 2 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Search.TopK <= 0 {
		return &ConfigError{Field: "search.topK", Message: "must be positive"}
	}
	if c.Search.RerankScale <= 0 {
		return &ConfigError{Field: "search.rerankScale", Message: "must be positive"}
	}
	for name, p := range map[string]ThresholdProfile{
		"statistical":  c.Retrieval.Profiles.Statistical,
		"repair":       c.Retrieval.Profiles.Repair,
		"repairBroad":  c.Retrieval.Profiles.RepairBroad,
		"causeSimilar": c.Retrieval.Profiles.CauseSimilar,
		"base":         c.Retrieval.Profiles.Base,
	} {
		if p.MaxResults <= 0 {
			return &ConfigError{Field: "retrieval.profiles." + name + ".maxResults", Message: "must be positive"}
		}
		if p.SearchThreshold < 0 || p.RerankThreshold < 0 || p.HybridThreshold < 0 {
			return &ConfigError{Field: "retrieval.profiles." + name, Message: "thresholds must not be negative"}
		}
	}
	if c.Retrieval.Fallback.MaxResults <= 0 {
		return &ConfigError{Field: "retrieval.fallback.maxResults", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
