package store

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
)

// importBatchSize bounds how many sentences go into one transaction.
const importBatchSize = 1000

// dumpLine is one line of a JSONL sentence dump. Tokens and links are kept
// as raw JSON so the stored columns preserve whatever fields the dump
// carries, title field included.
type dumpLine struct {
	ID     string            `json:"id"`
	Tokens json.RawMessage   `json:"tokens"`
	Links  []json.RawMessage `json:"links"`
}

// ImportDump loads a JSONL sentence dump into the store, one sentence per
// line, and returns the number of sentences inserted.
func (s *Store) ImportDump(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		tx       *sql.Tx
		inserted int
		lineNum  int
	)

	commit := func() error {
		if tx == nil {
			return nil
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing batch: %w", err)
		}
		tx = nil
		return nil
	}

	for scanner.Scan() {
		lineNum++
		var line dumpLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			if tx != nil {
				_ = tx.Rollback()
			}
			return inserted, fmt.Errorf("parsing dump line %d: %w", lineNum, err)
		}

		linksJSON, err := json.Marshal(line.Links)
		if err != nil {
			if tx != nil {
				_ = tx.Rollback()
			}
			return inserted, fmt.Errorf("encoding links of line %d: %w", lineNum, err)
		}

		if tx == nil {
			tx, err = s.db.BeginTx(ctx, nil)
			if err != nil {
				return inserted, fmt.Errorf("starting batch: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sentences (doc_id, tokens, links, len_links) VALUES (?, ?, ?, ?)`,
			line.ID, string(line.Tokens), string(linksJSON), len(line.Links))
		if err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("inserting line %d: %w", lineNum, err)
		}
		inserted++

		if inserted%importBatchSize == 0 {
			if err := commit(); err != nil {
				return inserted, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if tx != nil {
			_ = tx.Rollback()
		}
		return inserted, fmt.Errorf("reading dump: %w", err)
	}
	if err := commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}
