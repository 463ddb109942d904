package pubcontent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubcontent/markdown"
)

// Store persists built collection entries in SQLite so the site can serve
// the last good build while a new one is validated.
type Store struct {
	db *sql.DB
}

// SyncStats counts what a Sync changed.
type SyncStats struct {
	Added     int
	Updated   int
	Unchanged int
	Removed   int
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers continue while a rebuild writes; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS entries (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    digest TEXT NOT NULL,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    description TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    body TEXT NOT NULL,
    html TEXT NOT NULL,
    headings TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS entries_date ON entries (collection, date DESC);
`)
	return err
}

// storedDateLayout sorts lexically in date order.
const storedDateLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = `id, file_path, digest, title, date, description, tags, body, html, headings`

// Sync makes the stored entries of collection match posts: new ids are
// inserted, changed digests rewritten and ids no longer present deleted.
// Everything happens in one transaction.
func (s *Store) Sync(ctx context.Context, collection string, posts []BlogPost) (SyncStats, error) {
	var stats SyncStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	existing := map[string]string{}
	rows, err := tx.QueryContext(ctx, `SELECT id, digest FROM entries WHERE collection = ?`, collection)
	if err != nil {
		return stats, err
	}
	for rows.Next() {
		var id, digest string
		if err := rows.Scan(&id, &digest); err != nil {
			rows.Close()
			return stats, err
		}
		existing[id] = digest
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return stats, err
	}
	rows.Close()

	for _, p := range posts {
		prev, found := existing[p.ID]
		delete(existing, p.ID)
		if found && prev == p.Digest {
			stats.Unchanged++
			continue
		}
		headings, err := json.Marshal(p.Headings)
		if err != nil {
			return stats, fmt.Errorf("pubcontent: encode headings of %s: %w", p.ID, err)
		}
		tags, err := encodeTags(p.Tags)
		if err != nil {
			return stats, fmt.Errorf("pubcontent: encode tags of %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO entries (collection, `+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			collection, p.ID, p.FilePath, p.Digest, p.Title, p.Date.UTC().Format(storedDateLayout),
			p.Description, tags, p.Body, p.HTML, string(headings)); err != nil {
			return stats, err
		}
		if found {
			stats.Updated++
		} else {
			stats.Added++
		}
	}

	for id := range existing {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE collection = ? AND id = ?`, collection, id); err != nil {
			return stats, err
		}
		stats.Removed++
	}

	if err := tx.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

// ListPosts returns the posts of collection ordered by date descending.
// If tag is non-empty, results are filtered to posts carrying that tag.
func (s *Store) ListPosts(collection, tag string) ([]BlogPost, error) {
	var rows *sql.Rows
	var err error
	if tag == "" {
		rows, err = s.db.Query(`SELECT `+entryColumns+` FROM entries WHERE collection = ? ORDER BY date DESC, id`, collection)
	} else {
		normalizedTag := normalizeTag(tag)
		rows, err = s.db.Query(`SELECT `+entryColumns+` FROM entries WHERE collection = ? AND EXISTS (SELECT 1 FROM json_each(entries.tags) WHERE lower(trim(json_each.value)) = ?) ORDER BY date DESC, id`, collection, normalizedTag)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListTags returns a sorted, deduplicated, lowercased slice of every tag in collection.
func (s *Store) ListTags(collection string) ([]string, error) {
	rows, err := s.db.Query(`SELECT tags FROM entries WHERE collection = ?`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		parsed, err := decodeTags(tags)
		if err != nil {
			return nil, err
		}
		for _, t := range parsed {
			if n := normalizeTag(t); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetPost returns a single post by id. It returns ErrNotFound when missing.
func (s *Store) GetPost(collection, id string) (BlogPost, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE collection = ? AND id = ?`, collection, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return BlogPost{}, ErrNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner) (BlogPost, error) {
	var p BlogPost
	var date, tags, headings string
	if err := sc.Scan(&p.ID, &p.FilePath, &p.Digest, &p.Title, &date, &p.Description, &tags, &p.Body, &p.HTML, &headings); err != nil {
		return BlogPost{}, err
	}
	t, err := time.Parse(storedDateLayout, date)
	if err != nil {
		return BlogPost{}, fmt.Errorf("pubcontent: entry %s has bad date %q: %w", p.ID, date, err)
	}
	p.Date = t
	if p.Tags, err = decodeTags(tags); err != nil {
		return BlogPost{}, fmt.Errorf("pubcontent: entry %s has bad tags: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(headings), &p.Headings); err != nil {
		return BlogPost{}, fmt.Errorf("pubcontent: entry %s has bad headings: %w", p.ID, err)
	}
	if p.Headings == nil {
		p.Headings = []markdown.Heading{}
	}
	p.Link = PostLink(p.ID)
	return p, nil
}

// encodeTags stores tags as a JSON array so they read back exactly as
// written, in order.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

func decodeTags(column string) ([]string, error) {
	tags := []string{}
	if err := json.Unmarshal([]byte(column), &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
