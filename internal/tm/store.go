package tm

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// pair is one stored translation unit: a source string and its approved
// translation for one target language.
type pair struct {
	Lang        string
	SourceHash  string
	Source      string
	Translation string
}

// hashSource returns the hex SHA-256 of a source string. The hash is the
// stable pair identity shared by the store, the index and the cache.
func hashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// store is the durable side of the translation memory, a single SQLite
// database holding translation pairs keyed by language and source hash.
type store struct {
	db *sql.DB
}

func openStore(path string) (*store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open translation store: %w", err)
	}

	version, err := getSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version == "0" {
		if err := createSchema(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &store{db: db}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

const upsertPairSQL = `
	INSERT INTO translations (pair_id, lang, source_hash, source, translation, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(lang, source_hash) DO UPDATE SET
		translation = excluded.translation,
		updated_at = excluded.updated_at
`

// upsert stores one pair, replacing the translation of an existing
// language+source row.
func (s *store) upsert(ctx context.Context, p pair) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, upsertPairSQL,
		uuid.NewString(), p.Lang, p.SourceHash, p.Source, p.Translation, now)
	if err != nil {
		return fmt.Errorf("failed to store translation pair: %w", err)
	}
	return nil
}

// upsertAll stores a batch of pairs in one transaction.
func (s *store) upsertAll(ctx context.Context, pairs []pair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPairSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range pairs {
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), p.Lang, p.SourceHash, p.Source, p.Translation, now); err != nil {
			return fmt.Errorf("failed to store translation pair: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// exact returns the stored translation for a language+source hash, if any.
func (s *store) exact(ctx context.Context, lang, sourceHash string) (string, bool, error) {
	var translation string
	query := "SELECT translation FROM translations WHERE lang = ? AND source_hash = ?"
	err := s.db.QueryRowContext(ctx, query, lang, sourceHash).Scan(&translation)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query translation: %w", err)
	}
	return translation, true, nil
}

func (s *store) count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM translations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count translation pairs: %w", err)
	}
	return n, nil
}

func (s *store) countByLang(ctx context.Context) ([]LanguageStat, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT lang, COUNT(*) FROM translations GROUP BY lang ORDER BY lang")
	if err != nil {
		return nil, fmt.Errorf("failed to count translation pairs: %w", err)
	}
	defer rows.Close()

	var stats []LanguageStat
	for rows.Next() {
		var st LanguageStat
		if err := rows.Scan(&st.Lang, &st.Pairs); err != nil {
			return nil, fmt.Errorf("failed to scan language count: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count translation pairs: %w", err)
	}
	return stats, nil
}

// all streams every stored pair through fn, used to rebuild the index.
func (s *store) all(ctx context.Context, fn func(pair) error) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT lang, source_hash, source, translation FROM translations")
	if err != nil {
		return fmt.Errorf("failed to read translation pairs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.Lang, &p.SourceHash, &p.Source, &p.Translation); err != nil {
			return fmt.Errorf("failed to scan translation pair: %w", err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read translation pairs: %w", err)
	}
	return nil
}

// getSchemaVersion retrieves the schema version from tm_metadata.
// Returns "0" if the table doesn't exist (new database).
func getSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tm_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check tm_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM tm_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in tm_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// createSchema creates the tables and indexes of a fresh translation store.
func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []struct {
		name string
		ddl  string
	}{
		{"translations", createTranslationsTable},
		{"tm_metadata", createMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	if _, err := tx.Exec("CREATE INDEX idx_translations_lang ON translations(lang)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := "INSERT INTO tm_metadata (key, value, updated_at) VALUES ('schema_version', '1', ?)"
	if _, err := tx.Exec(bootstrapSQL, now); err != nil {
		return fmt.Errorf("failed to bootstrap tm_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

const createTranslationsTable = `
CREATE TABLE translations (
    pair_id TEXT PRIMARY KEY,                    -- UUID
    lang TEXT NOT NULL,                          -- target language code, e.g. fr, pt_BR
    source_hash TEXT NOT NULL,                   -- SHA-256 of source (lookup key)
    source TEXT NOT NULL,                        -- source string
    translation TEXT NOT NULL,                   -- approved translation
    updated_at TEXT NOT NULL,                    -- ISO 8601
    UNIQUE(lang, source_hash)
)
`

const createMetadataTable = `
CREATE TABLE tm_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`
