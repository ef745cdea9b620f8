package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
)

// dsnOptions make every committed append durable and let independent
// processes append and list concurrently.
const dsnOptions = "_busy_timeout=5000&_journal_mode=WAL&_synchronous=FULL&_txlock=immediate"

// Open opens (creating if needed) the journal cache at path and applies
// the schema. The caller owns the returned handle and must Close it.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, &journal.StoreError{Op: "open", Err: fmt.Errorf("store path is empty")}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &journal.StoreError{Op: "open", Err: fmt.Errorf("create store directory %s: %w", dir, err)}
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, &journal.StoreError{Op: "open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &journal.StoreError{Op: "open", Err: fmt.Errorf("%s: %w", path, err)}
	}
	if err := NewMigrator(db).Migrate(ctx); err != nil {
		db.Close()
		return nil, &journal.StoreError{Op: "migrate", Err: err}
	}
	return db, nil
}

// dsn builds the URI filename for path. Each segment is percent-encoded so
// '?', '#' and '%' in directory or file names stay part of the path.
func dsn(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("file:%s?%s", strings.Join(segments, "/"), dsnOptions)
}
