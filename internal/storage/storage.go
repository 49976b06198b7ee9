// Package storage persists articles and daily summaries in SQLite or Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"

	"github.com/deusflow/crednews/internal/news"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Error wraps a failed storage operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// DailySummary is the digest of one ingestion day.
type DailySummary struct {
	Date         string    `db:"date" json:"date"`
	ArticleCount int       `db:"article_count" json:"article_count"`
	SourceCount  int       `db:"source_count" json:"source_count"`
	Summary      string    `db:"summary" json:"summary"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Stats summarizes the article table.
type Stats struct {
	TotalArticles   int     `db:"total_articles" json:"total_articles"`
	TotalSources    int     `db:"total_sources" json:"total_sources"`
	EarliestArticle *string `db:"earliest_article" json:"earliest_article"`
	LatestArticle   *string `db:"latest_article" json:"latest_article"`
}

type dbArticle struct {
	Title         string         `db:"title"`
	Description   sql.NullString `db:"description"`
	Content       sql.NullString `db:"content"`
	URL           string         `db:"url"`
	URLToImage    sql.NullString `db:"url_to_image"`
	SourceName    sql.NullString `db:"source_name"`
	SourceCountry sql.NullString `db:"source_country"`
	Language      sql.NullString `db:"language"`
	Summary       sql.NullString `db:"summary"`
	PublishedAt   sql.NullString `db:"published_at"`
}

func (r dbArticle) toArticle() news.Article {
	return news.Article{
		Title:       r.Title,
		Description: r.Description.String,
		Content:     r.Content.String,
		URL:         r.URL,
		URLToImage:  r.URLToImage.String,
		PublishedAt: r.PublishedAt.String,
		Source: news.Source{
			Name:    r.SourceName.String,
			Country: r.SourceCountry.String,
		},
		Language: r.Language.String,
		Summary:  r.Summary.String,
	}
}

const articleColumns = `title, description, content, url, url_to_image, source_name,
	source_country, language, summary, published_at`

// Store is the relational persistence gateway.
type Store struct {
	db *sqlx.DB
}

// Open connects to driver ("sqlite3" or "postgres") and creates the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, wrap("connect", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	s := NewStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection without touching the schema.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return wrap("ping", s.db.PingContext(ctx))
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(s.db.DriverName()) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return wrap("migrate", err)
		}
	}
	return nil
}

// SaveArticle inserts the article or replaces the stored copy with the same URL.
func (s *Store) SaveArticle(ctx context.Context, a news.Article) (news.Article, error) {
	query := s.db.Rebind(`
		INSERT INTO articles (url_key, ` + articleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url_key) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			content = excluded.content,
			url = excluded.url,
			url_to_image = excluded.url_to_image,
			source_name = excluded.source_name,
			source_country = excluded.source_country,
			language = excluded.language,
			summary = excluded.summary,
			published_at = excluded.published_at`)

	_, err := s.db.ExecContext(ctx, query,
		a.Key(), a.Title, a.Description, a.Content, a.URL, a.URLToImage, a.Source.Name,
		a.Source.Country, a.Language, a.Summary, a.PublishedAt,
	)
	if err != nil {
		return news.Article{}, wrap("save article", err)
	}
	return a, nil
}

// SaveDailySummary inserts the summary or replaces the one stored for its date.
func (s *Store) SaveDailySummary(ctx context.Context, d DailySummary) (DailySummary, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	query := s.db.Rebind(`
		INSERT INTO daily_summaries (date, article_count, source_count, summary, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			article_count = excluded.article_count,
			source_count = excluded.source_count,
			summary = excluded.summary,
			created_at = excluded.created_at`)

	if _, err := s.db.ExecContext(ctx, query, d.Date, d.ArticleCount, d.SourceCount, d.Summary, d.CreatedAt); err != nil {
		return DailySummary{}, wrap("save daily summary", err)
	}
	return d, nil
}

// GetDailySummary returns the summary stored for date (YYYY-MM-DD).
func (s *Store) GetDailySummary(ctx context.Context, date string) (DailySummary, error) {
	var d DailySummary
	query := s.db.Rebind(`
		SELECT date, article_count, source_count, summary, created_at
		FROM daily_summaries WHERE date = ?`)
	err := s.db.GetContext(ctx, &d, query, date)
	if errors.Is(err, sql.ErrNoRows) {
		return DailySummary{}, wrap("get daily summary", ErrNotFound)
	}
	if err != nil {
		return DailySummary{}, wrap("get daily summary", err)
	}
	return d, nil
}

// GetArticlesByDate returns articles published on date (YYYY-MM-DD), newest first.
func (s *Store) GetArticlesByDate(ctx context.Context, date string) ([]news.Article, error) {
	query := s.db.Rebind(`
		SELECT ` + articleColumns + `
		FROM articles
		WHERE substr(published_at, 1, 10) = ?
		ORDER BY published_at DESC`)
	return s.selectArticles(ctx, "get articles by date", query, date)
}

// GetArticlesByTopic returns articles mentioning topic in title, description or content.
func (s *Store) GetArticlesByTopic(ctx context.Context, topic string) ([]news.Article, error) {
	return s.match(ctx, "get articles by topic", topic)
}

// SearchArticles returns articles mentioning keyword in title, description or content.
func (s *Store) SearchArticles(ctx context.Context, keyword string) ([]news.Article, error) {
	return s.match(ctx, "search articles", keyword)
}

func (s *Store) match(ctx context.Context, op, text string) ([]news.Article, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	query := s.db.Rebind(`
		SELECT ` + articleColumns + `
		FROM articles
		WHERE LOWER(title) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(content, '')) LIKE ? ESCAPE '\'
		ORDER BY published_at DESC`)
	return s.selectArticles(ctx, op, query, pattern, pattern, pattern)
}

// GetStats counts articles and sources and reports the publication range.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			COUNT(*) AS total_articles,
			COUNT(DISTINCT source_name) AS total_sources,
			MIN(NULLIF(published_at, '')) AS earliest_article,
			MAX(NULLIF(published_at, '')) AS latest_article
		FROM articles`)
	if err != nil {
		return Stats{}, wrap("get stats", err)
	}
	return st, nil
}

func (s *Store) selectArticles(ctx context.Context, op, query string, args ...any) ([]news.Article, error) {
	var rows []dbArticle
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(op, err)
	}
	return lo.Map(rows, func(r dbArticle, _ int) news.Article {
		return r.toArticle()
	}), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
