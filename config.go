package curricula

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dquintero/curricula/standards"
)

// Config holds all configuration for the curricula engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.curricula/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "curricula".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is not
	// explicitly set. Options: "home" (default) uses ~/.curricula/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// LLM providers. Vision is optional; without it the structural fallback
	// is the only extraction path.
	Chat      LLMConfig `json:"chat" yaml:"chat"`
	Embedding LLMConfig `json:"embedding" yaml:"embedding"`
	Vision    LLMConfig `json:"vision" yaml:"vision"`

	// Parser behavior.
	DisableVision   bool          `json:"disable_vision" yaml:"disable_vision"`
	SkipPages       []int         `json:"skip_pages" yaml:"skip_pages"`
	VisionPageDelay time.Duration `json:"vision_page_delay" yaml:"vision_page_delay"`
	RenderDPI       float64       `json:"render_dpi" yaml:"render_dpi"`

	// Validation thresholds gating acceptance of vision output.
	Validation standards.ValidationConfig `json:"validation" yaml:"validation"`

	// Embedding dimensions (must match model).
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // openai, gemini, ollama, openrouter, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
// Database is stored in ~/.curricula/curricula.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:     "curricula",
		StorageDir: "home",
		Chat: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		Embedding: LLMConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		Vision: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.2-vision",
			BaseURL:  "http://localhost:11434",
		},
		VisionPageDelay: 2 * time.Second,
		RenderDPI:       150,
		Validation:      standards.DefaultValidationConfig(),
		EmbeddingDim:    768,
	}
}

// validate rejects configuration values the engine cannot start with.
func (c *Config) validate() error {
	if c.Chat.Provider == "" {
		return fmt.Errorf("%w: chat provider not set", ErrInvalidConfig)
	}
	if c.Embedding.Provider == "" {
		return fmt.Errorf("%w: embedding provider not set", ErrInvalidConfig)
	}
	if c.EmbeddingDim < 0 {
		return fmt.Errorf("%w: embedding_dim %d", ErrInvalidConfig, c.EmbeddingDim)
	}
	if c.RenderDPI < 0 {
		return fmt.Errorf("%w: render_dpi %v", ErrInvalidConfig, c.RenderDPI)
	}
	for _, p := range c.SkipPages {
		if p < 1 {
			return fmt.Errorf("%w: skip_pages entries are 1-indexed, got %d", ErrInvalidConfig, p)
		}
	}
	return nil
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "curricula"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".curricula")
		return filepath.Join(dir, name+".db")
	}
}
