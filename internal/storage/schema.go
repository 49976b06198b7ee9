package storage

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url_key TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT,
		content TEXT,
		url TEXT NOT NULL,
		url_to_image TEXT,
		source_name TEXT,
		source_country TEXT,
		language TEXT,
		summary TEXT,
		published_at TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at)`,
	`CREATE TABLE IF NOT EXISTS daily_summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		article_count INTEGER NOT NULL,
		source_count INTEGER NOT NULL,
		summary TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id SERIAL PRIMARY KEY,
		url_key TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT,
		content TEXT,
		url TEXT NOT NULL,
		url_to_image TEXT,
		source_name TEXT,
		source_country TEXT,
		language TEXT,
		summary TEXT,
		published_at TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at)`,
	`CREATE TABLE IF NOT EXISTS daily_summaries (
		id SERIAL PRIMARY KEY,
		date VARCHAR(10) NOT NULL UNIQUE,
		article_count INTEGER NOT NULL,
		source_count INTEGER NOT NULL,
		summary TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
}

func schemaFor(driver string) []string {
	if driver == "postgres" {
		return postgresSchema
	}
	return sqliteSchema
}
