package llm

import (
	"fmt"
	"reflect"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
	}{
		{"openai", "*llm.openAIProvider"},
		{"gemini", "*llm.geminiProvider"},
		{"ollama", "*llm.ollamaProvider"},
		{"openrouter", "*llm.openRouterProvider"},
		{"custom", "*llm.openAICompatProvider"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := Config{
				Provider: tt.provider,
				Model:    "test-model",
			}
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider(%q) returned error: %v", tt.provider, err)
			}
			gotType := fmt.Sprintf("%T", p)
			if gotType != tt.wantType {
				t.Errorf("NewProvider(%q) type = %s, want %s", tt.provider, gotType, tt.wantType)
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "doesnotexist", Model: "test-model"})
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
	want := "unknown llm provider: doesnotexist"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestNewProviderEmpty(t *testing.T) {
	_, err := NewProvider(Config{Provider: "", Model: "test-model"})
	if err == nil {
		t.Fatal("expected error for empty provider, got nil")
	}
	want := "llm provider not specified"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

// baseURLOf reaches base.cfg.BaseURL on the concrete provider type.
func baseURLOf(t *testing.T, p Provider) string {
	t.Helper()
	v := reflect.ValueOf(p).Elem()
	return v.FieldByName("base").FieldByName("cfg").FieldByName("BaseURL").String()
}

// TestDefaultBaseURLs verifies that when BaseURL is empty in the config,
// each provider constructor sets the correct default.
func TestDefaultBaseURLs(t *testing.T) {
	tests := []struct {
		provider string
		wantURL  string
	}{
		{"openai", "https://api.openai.com"},
		{"gemini", "https://generativelanguage.googleapis.com/v1beta/openai"},
		{"ollama", "http://localhost:11434"},
		{"openrouter", "https://openrouter.ai/api"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "test-model"})
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", tt.provider, err)
			}
			if got := baseURLOf(t, p); got != tt.wantURL {
				t.Errorf("default BaseURL for %q = %q, want %q", tt.provider, got, tt.wantURL)
			}
		})
	}
}

// TestExplicitBaseURLPreserved verifies that a user-supplied BaseURL
// is not overwritten by the default.
func TestExplicitBaseURLPreserved(t *testing.T) {
	customURL := "http://my-server:9999"

	for _, provider := range []string{"openai", "gemini", "ollama", "openrouter", "custom"} {
		t.Run(provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: provider, Model: "test-model", BaseURL: customURL})
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", provider, err)
			}
			if got := baseURLOf(t, p); got != customURL {
				t.Errorf("provider %q BaseURL = %q, want %q", provider, got, customURL)
			}
		})
	}
}

// TestNewVisionProvider confirms every built-in provider supports the vision
// path: the standards parser depends on it.
func TestNewVisionProvider(t *testing.T) {
	for _, provider := range []string{"openai", "gemini", "ollama", "openrouter", "custom"} {
		t.Run(provider, func(t *testing.T) {
			vp, err := NewVisionProvider(Config{Provider: provider, Model: "m"})
			if err != nil {
				t.Fatalf("NewVisionProvider(%q): %v", provider, err)
			}
			if vp == nil {
				t.Fatal("vision provider is nil")
			}
		})
	}
}

func TestModelPassedThrough(t *testing.T) {
	p, err := NewProvider(Config{Provider: "ollama", Model: "llama3.2-vision"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	v := reflect.ValueOf(p).Elem()
	got := v.FieldByName("base").FieldByName("cfg").FieldByName("Model").String()
	if got != "llama3.2-vision" {
		t.Errorf("model = %q, want %q", got, "llama3.2-vision")
	}
}

func TestAPIKeyPassedThrough(t *testing.T) {
	p, err := NewProvider(Config{Provider: "openrouter", Model: "test", APIKey: "sk-test-key-123"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	v := reflect.ValueOf(p).Elem()
	got := v.FieldByName("base").FieldByName("cfg").FieldByName("APIKey").String()
	if got != "sk-test-key-123" {
		t.Errorf("api key = %q, want %q", got, "sk-test-key-123")
	}
}
