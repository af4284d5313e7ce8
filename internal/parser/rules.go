package parser

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// rulesFile is the optional YAML overlay that adds label synonyms per
// field without touching the matching logic. Example:
//
//	fields:
//	  email:
//	    labels: ["E-mail"]
//	  product:
//	    labels: ["Plan"]
type rulesFile struct {
	Fields map[string]struct {
		Labels []string `yaml:"labels"`
	} `yaml:"fields"`
}

// LoadExtractor builds an extractor from the default table, extended with
// synonyms from the YAML file at path. An empty path yields the defaults.
func LoadExtractor(path string) (*Extractor, error) {
	rules := defaultRules()
	if path == "" {
		return newExtractor(rules)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parser rules: %w", err)
	}
	var overlay rulesFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse parser rules: %w", err)
	}

	for name, extra := range overlay.Fields {
		if len(extra.Labels) == 0 {
			continue
		}
		found := false
		for i := range rules {
			if rules[i].Field == Field(name) {
				rules[i].Labels = append(rules[i].Labels, quoteLabels(extra.Labels)...)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("parser rules reference unknown field %q", name)
		}
	}
	return newExtractor(rules)
}

// quoteLabels escapes user-supplied synonyms; unlike the built-in table
// they are plain text, not regex fragments.
func quoteLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, regexp.QuoteMeta(l))
	}
	return out
}
