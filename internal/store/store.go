// Package store provides the SQLite-backed sentence store the extractor
// reads: one row per wiki sentence, with its tokens and entity links kept as
// JSON columns.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	fet "github.com/ELISA-IE/bert-fet"
)

const schema = `
CREATE TABLE IF NOT EXISTS sentences (
	doc_id    TEXT    NOT NULL,
	tokens    TEXT    NOT NULL,
	links     TEXT    NOT NULL,
	len_links INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sentences_len_links ON sentences(len_links);
`

// Option configures a Store.
type Option func(*Store)

// WithTitleField sets the link field holding the entity title
// (default: "title").
func WithTitleField(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.titleField = name
		}
	}
}

// Store reads and writes wiki sentences in a SQLite database.
type Store struct {
	db         *sql.DB
	titleField string
}

// Open opens (and if needed initializes) the sentence store at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	s := &Store{db: db, titleField: "title"}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Documents streams sentences carrying at least one link, in insertion
// order, calling fn once per sentence.
func (s *Store) Documents(ctx context.Context, fn func(doc *fet.Document) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, tokens, links FROM sentences WHERE len_links > 0 ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("querying sentences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id         string
			tokensJSON []byte
			linksJSON  []byte
		)
		if err := rows.Scan(&id, &tokensJSON, &linksJSON); err != nil {
			return fmt.Errorf("scanning sentence: %w", err)
		}
		doc, err := s.decodeDocument(id, tokensJSON, linksJSON)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating sentences: %w", err)
	}
	return nil
}

// decodeDocument rebuilds a Document from the stored JSON columns. The title
// field name is configurable, so links are decoded generically and the title
// pulled out by key; a link without the field gets an empty Title.
func (s *Store) decodeDocument(id string, tokensJSON, linksJSON []byte) (*fet.Document, error) {
	var tokens []fet.Token
	if err := json.Unmarshal(tokensJSON, &tokens); err != nil {
		return nil, fmt.Errorf("decoding tokens of %s: %w", id, err)
	}

	var rawLinks []map[string]json.RawMessage
	if err := json.Unmarshal(linksJSON, &rawLinks); err != nil {
		return nil, fmt.Errorf("decoding links of %s: %w", id, err)
	}

	links := make([]fet.Link, len(rawLinks))
	for i, raw := range rawLinks {
		l := &links[i]
		if v, ok := raw[s.titleField]; ok {
			if err := json.Unmarshal(v, &l.Title); err != nil {
				return nil, fmt.Errorf("decoding link title of %s: %w", id, err)
			}
		}
		if v, ok := raw["text"]; ok {
			if err := json.Unmarshal(v, &l.Text); err != nil {
				return nil, fmt.Errorf("decoding link text of %s: %w", id, err)
			}
		}
		if v, ok := raw["start"]; ok {
			if err := json.Unmarshal(v, &l.Start); err != nil {
				return nil, fmt.Errorf("decoding link start of %s: %w", id, err)
			}
		}
		if v, ok := raw["end"]; ok {
			if err := json.Unmarshal(v, &l.End); err != nil {
				return nil, fmt.Errorf("decoding link end of %s: %w", id, err)
			}
		}
	}

	return &fet.Document{ID: id, Tokens: tokens, Links: links}, nil
}
