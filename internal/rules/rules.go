// Package rules loads the external, versioned structural rule set consumed by
// the structure-validation capability. The orchestration engine itself never
// reads rules; they pass through opaquely.
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one structural rule. Critical rules trigger the handoff path when
// violated.
type Rule struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Critical    bool   `yaml:"critical"`
}

// Load reads a YAML rule file containing a list of rules.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %q: %w", path, err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %q: %w", path, err)
	}
	for i, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule file %q: rule at index %d has no id", path, i)
		}
	}
	return rules, nil
}

// Format renders the rule list as one readable line per rule, the form the
// validation prompt embeds.
func Format(rules []Rule) string {
	var sb strings.Builder
	for _, r := range rules {
		fmt.Fprintf(&sb, "- %s: %s (Critical: %t)\n", r.ID, r.Description, r.Critical)
	}
	return sb.String()
}
