package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

type keywordsFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadInvalidReasoningKeywords returns the lower-cased keyword list the
// pre-filter scans filter_validation_reasoning for. With an empty path the
// embedded default list is used.
func LoadInvalidReasoningKeywords(path string) ([]string, error) {
	raw := defaultKeywordsYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("op=config.LoadKeywords: %w", err)
		}
		raw = b
	}
	var f keywordsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("op=config.LoadKeywords: %w", err)
	}
	out := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out, nil
}
