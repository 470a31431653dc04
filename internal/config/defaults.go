package config

// DefaultConfig returns the default configuration with the built-in backends
// and task type routing.
func DefaultConfig() *Config {
	return &Config{
		Backends: []string{"codex", "claude", "gemini"},
		TaskTypes: []TaskTypeConfig{
			{
				Name:     "ui",
				Patterns: []string{".css", ".scss", ".tsx", ".jsx", ".vue", "tailwind", "style", "component", "ui", "frontend"},
				Backend:  "gemini",
			},
			{
				Name:     "quick-fix",
				Patterns: []string{"config", "fix", "typo", "rename", "small", "minor", "update version"},
				Backend:  "claude",
			},
			{
				Name:    "default",
				Backend: "codex",
			},
		},
		DefaultType:  "default",
		Fallback:     []string{"codex", "claude", "gemini"},
		Concurrency:  0,
		TestCommand:  "npm test -- --coverage",
		Deliverables: "code + unit tests + coverage ≥90% + coverage summary",
		StorePath:    ".batchplan/catalog.db",
	}
}
