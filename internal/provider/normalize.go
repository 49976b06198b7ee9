package provider

import (
	"net/url"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/news"
)

// rawArticle collects every field alias seen across upstream providers.
type rawArticle struct {
	Title    string `mapstructure:"title"`
	SEOTitle string `mapstructure:"seo_title"`

	URL  string `mapstructure:"url"`
	Link string `mapstructure:"link"`

	Content        string `mapstructure:"content"`
	Summary        string `mapstructure:"summary"`
	Description    string `mapstructure:"description"`
	Snippet        string `mapstructure:"snippet"`
	SEODescription string `mapstructure:"seo_description"`

	SocialImage string `mapstructure:"socialimage"`
	Image       string `mapstructure:"image"`
	URLToImage  string `mapstructure:"urlToImage"`

	DatePublished    string `mapstructure:"date_published"`
	SeenDate         string `mapstructure:"seendate"`
	PublishedAt      string `mapstructure:"publishedAt"`
	SEODatePublished string `mapstructure:"seo_date_published"`

	Domain        string    `mapstructure:"domain"`
	SourceCountry string    `mapstructure:"sourcecountry"`
	Source        rawSource `mapstructure:"source"`
	Language      string    `mapstructure:"language"`
}

type rawSource struct {
	Name    string `mapstructure:"name"`
	Country string `mapstructure:"country"`
}

// Normalizer converts loosely shaped upstream records into canonical articles.
type Normalizer struct {
	log logger.Logger
}

func NewNormalizer(log logger.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize returns the canonical article for record, or ok=false when the
// record has no usable title or absolute URL.
func (n *Normalizer) Normalize(record any) (news.Article, bool) {
	m, isMap := record.(map[string]any)
	if !isMap {
		return news.Article{}, false
	}

	var raw rawArticle
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(sourceHook, dropNested),
		Result:           &raw,
	})
	if err != nil {
		return news.Article{}, false
	}
	if err := dec.Decode(m); err != nil {
		n.log.Debug("Record has incompatible field types", logger.Error(err))
		return news.Article{}, false
	}

	title := firstNonBlank(raw.Title, raw.SEOTitle)
	link := firstAbsoluteURL(raw.URL, raw.Link)
	if title == "" || link == "" {
		return news.Article{}, false
	}

	description := firstNonBlank(raw.Content, raw.Summary, raw.Description, raw.Snippet, raw.SEODescription)
	if description == "" {
		description = title
	}

	rawDate := firstNonBlank(raw.DatePublished, raw.SeenDate, raw.PublishedAt, raw.SEODatePublished)
	publishedAt, ok := news.FormatDate(rawDate)
	if !ok {
		n.log.Warn("Unexpected date format", logger.String("date", rawDate), logger.String("url", link))
	}

	sourceName := firstNonBlank(raw.Domain, raw.Source.Name)
	if sourceName == "" {
		sourceName = news.UnknownSource
	}

	return news.Article{
		Title:       title,
		Description: description,
		URL:         link,
		URLToImage:  firstNonBlank(raw.SocialImage, raw.Image, raw.URLToImage),
		PublishedAt: publishedAt,
		Source: news.Source{
			Name:    sourceName,
			Country: firstNonBlank(raw.SourceCountry, raw.Source.Country),
		},
		Language: news.ClassifyLanguage(title, description, raw.Language, link),
	}, true
}

// sourceHook accepts a bare string where a source object is expected.
func sourceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(rawSource{}) {
		return data, nil
	}
	if from.Kind() == reflect.String {
		return map[string]any{"name": data}, nil
	}
	return data, nil
}

// dropNested blanks out objects and lists found where a string is expected,
// so one odd field does not cost the whole record.
func dropNested(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return "", nil
	}
	return data, nil
}

// firstNonBlank returns the first value that is not blank, unmodified.
func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstAbsoluteURL(values ...string) string {
	for _, v := range values {
		if isAbsoluteURL(v) {
			return v
		}
	}
	return ""
}

func isAbsoluteURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
