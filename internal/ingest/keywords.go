package ingest

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var DefaultKeywords = []string{
	"computer", "internet", "software", "apple", "microsoft", "google",
	"nasa", "space", "robot", "web", "semiconductor", "chip",
}

// Keywords matches text that contains any keyword, ignoring case.
type Keywords struct {
	folded []string
}

func NewKeywords(words []string) Keywords {
	folder := cases.Fold()
	k := Keywords{}
	seen := map[string]bool{}
	for _, word := range words {
		word = folder.String(strings.TrimSpace(word))
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		k.folded = append(k.folded, word)
	}
	return k
}

func (k Keywords) Match(text string) bool {
	if text == "" {
		return false
	}
	folded := cases.Fold().String(text)
	for _, word := range k.folded {
		if strings.Contains(folded, word) {
			return true
		}
	}
	return false
}

func (k Keywords) Len() int {
	return len(k.folded)
}

type keywordsFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywords reads a YAML file of the form `keywords: [a, b]`. An empty path yields
// the default set.
func LoadKeywords(path string) (Keywords, error) {
	if strings.TrimSpace(path) == "" {
		return NewKeywords(DefaultKeywords), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("read keywords: %w", err)
	}
	var file keywordsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Keywords{}, fmt.Errorf("parse keywords %s: %w", path, err)
	}
	k := NewKeywords(file.Keywords)
	if k.Len() == 0 {
		return Keywords{}, fmt.Errorf("keywords %s: no keywords listed", path)
	}
	return k, nil
}
