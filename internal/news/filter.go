package news

import (
	"fmt"
	"strings"
)

// Filter decides whether a normalized article is relevant enough to keep.
type Filter interface {
	Name() string
	Accept(a Article) bool
}

// LanguageFilter keeps HTTP(S) articles that are Korean or plausibly English.
type LanguageFilter struct{}

func (LanguageFilter) Name() string { return "language" }

func (LanguageFilter) Accept(a Article) bool {
	lower := strings.ToLower(a.URL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	korean := a.Language == LanguageKorean || IsKoreanTag(a.Language) ||
		ContainsHangul(a.Title) || ContainsHangul(a.Description) || hasKoreanHost(a.URL)
	english := a.Language == LanguageEnglish || IsEnglishTag(a.Language) || hasGenericTLD(a.URL)
	if !korean && !english {
		return false
	}

	// Title is mandatory after normalization, so this only matters for
	// articles built by hand.
	return a.Description != "" || a.Title != ""
}

// KeywordFilter keeps articles whose title, description or content contains
// at least one keyword, case-insensitively.
type KeywordFilter struct {
	keywords []string
}

// NewKeywordFilter lower-cases and trims keywords, dropping blanks.
func NewKeywordFilter(keywords []string) *KeywordFilter {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	return &KeywordFilter{keywords: kw}
}

func (f *KeywordFilter) Name() string { return "keyword" }

func (f *KeywordFilter) Accept(a Article) bool {
	text := strings.ToLower(a.Title + " " + a.Description + " " + a.Content)
	for _, k := range f.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// NewFilter builds the filter strategy named by strategy ("language" or "keyword").
func NewFilter(strategy string, keywords []string) (Filter, error) {
	switch strings.ToLower(strategy) {
	case "", "language":
		return LanguageFilter{}, nil
	case "keyword":
		f := NewKeywordFilter(keywords)
		if len(f.keywords) == 0 {
			return nil, fmt.Errorf("keyword filter needs at least one keyword")
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown filter strategy %q", strategy)
	}
}
