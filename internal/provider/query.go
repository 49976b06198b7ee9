package provider

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Canonical query languages. Providers translate them to their own codes.
const (
	LangEnglish = "eng"
	LangKorean  = "kor"
)

// Query is one search term and the language it should be fetched in.
type Query struct {
	Text     string `yaml:"text"`
	Language string `yaml:"language"`
}

// QueriesConfig is the YAML layout of the queries file:
//
//	queries:
//	  - text: '"digital credential"'
//	    language: eng
type QueriesConfig struct {
	Queries []Query `yaml:"queries"`
}

// DefaultQueries is used when no queries file exists.
var DefaultQueries = []Query{
	{Text: `"digital credential" OR "digital credentials"`, Language: LangEnglish},
	{Text: `"open badge" OR "open badges" OR "micro-credential"`, Language: LangEnglish},
	{Text: `"blockchain credential" OR "verifiable credential"`, Language: LangEnglish},
}

// LoadQueries reads the ordered query list from a YAML file. A missing file
// yields DefaultQueries.
func LoadQueries(path string) ([]Query, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return DefaultQueries, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg QueriesConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := make([]Query, 0, len(cfg.Queries))
	for i, q := range cfg.Queries {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return nil, fmt.Errorf("%s: query %d has empty text", path, i)
		}
		q.Language = NormalizeLanguage(q.Language)
		out = append(out, q)
	}
	if len(out) == 0 {
		return DefaultQueries, nil
	}
	return out, nil
}

// NormalizeLanguage maps the accepted spellings onto LangEnglish or LangKorean.
// Anything unrecognised is treated as English.
func NormalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "kor", "ko", "korean":
		return LangKorean
	default:
		return LangEnglish
	}
}
