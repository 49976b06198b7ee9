// Package news holds the canonical article model and the pure pipeline
// stages that operate on it: date normalization, language classification,
// relevance filtering, deduplication and ordering.
package news

import (
	"net/url"
	"strings"
)

const (
	LanguageKorean  = "Korean"
	LanguageEnglish = "English"

	// UnknownSource is used when a record carries no publisher name.
	UnknownSource = "Unknown"
)

var (
	koreanMarkers  = []string{"korean", "kor", "ko"}
	englishMarkers = []string{"english", "eng", "en"}
	genericTLDs    = []string{".com", ".org", ".net"}
)

// Source identifies the publisher of an article.
type Source struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// Article is the provider-independent representation of one news item.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage,omitempty"`
	PublishedAt string `json:"publishedAt"`
	Source      Source `json:"source"`
	Language    string `json:"language"`
	Summary     string `json:"summary,omitempty"`
}

// Key is the case-insensitive identity used for deduplication and storage.
func (a Article) Key() string {
	return strings.ToLower(a.URL)
}

// Host returns the lower-cased host of the article URL, or "" if it cannot be parsed.
func (a Article) Host() string {
	return hostOf(a.URL)
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// ContainsHangul reports whether s contains a precomposed Hangul syllable.
func ContainsHangul(s string) bool {
	for _, r := range s {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return true
		}
	}
	return false
}

// IsKoreanTag reports whether a provider language label denotes Korean.
func IsKoreanTag(tag string) bool {
	return matchesMarker(tag, koreanMarkers)
}

// IsEnglishTag reports whether a provider language label denotes English.
func IsEnglishTag(tag string) bool {
	return matchesMarker(tag, englishMarkers)
}

func matchesMarker(tag string, markers []string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	for _, m := range markers {
		if tag == m {
			return true
		}
	}
	return false
}

func hasKoreanHost(rawURL string) bool {
	return strings.HasSuffix(hostOf(rawURL), ".kr")
}

func hasGenericTLD(rawURL string) bool {
	host := hostOf(rawURL)
	for _, tld := range genericTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	return false
}

// ClassifyLanguage tags an article Korean or English from its text, the
// provider's raw label and its URL host. Unrecognised labels pass through;
// an empty label defaults to English.
func ClassifyLanguage(title, description, rawLanguage, rawURL string) string {
	switch {
	case ContainsHangul(title) || ContainsHangul(description) ||
		IsKoreanTag(rawLanguage) || hasKoreanHost(rawURL):
		return LanguageKorean
	case IsEnglishTag(rawLanguage) || hasGenericTLD(rawURL):
		return LanguageEnglish
	case strings.TrimSpace(rawLanguage) != "":
		return rawLanguage
	default:
		return LanguageEnglish
	}
}
