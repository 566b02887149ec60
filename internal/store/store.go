// Package store persists IndexUnits and FileRecords: spec.md §4.4's two
// logical tables, backed by SQLite (the teacher's own pure-Go driver) with
// a single serialized write connection.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/dryscan/dryscan/internal/dryerrors"
	"github.com/dryscan/dryscan/internal/unit"
)

// DBFileName is the SQLite database's filename under the .dry directory.
const DBFileName = "index.db"

// Store is the index store: units and files, one write connection at a
// time (guarded by writeMu and, across processes, a flock).
type Store struct {
	db       *sql.DB
	writeMu  sync.Mutex
	fileLock *flock.Flock
	dir      string
	closed   bool
}

// Init creates {repoRoot}/.dry (and its reports subdirectory) if needed and
// opens (creating, if absent) the unit/file database.
func Init(repoRoot string) (*Store, error) {
	dir := filepath.Join(repoRoot, ".dry")
	if err := os.MkdirAll(filepath.Join(dir, "reports"), 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // the store holds a single write connection at a time

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}

	lock := flock.New(filepath.Join(dir, "index.lock"))

	return &Store{db: db, fileLock: lock, dir: dir}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	file_path TEXT PRIMARY KEY,
	checksum  TEXT NOT NULL,
	mtime     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS units (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	file_path   TEXT NOT NULL,
	kind        TEXT NOT NULL,
	start_line  INTEGER NOT NULL,
	end_line    INTEGER NOT NULL,
	code        TEXT NOT NULL,
	parent_id   TEXT NOT NULL DEFAULT '',
	embedding   TEXT
);
CREATE INDEX IF NOT EXISTS idx_units_file_path ON units(file_path);
CREATE INDEX IF NOT EXISTS idx_units_kind ON units(kind);
`

// ReportsDir returns the directory report artifacts are written to.
func (s *Store) ReportsDir() string {
	return filepath.Join(s.dir, "reports")
}

// Dir returns the store's .dry directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) withWriteLock(fn func() error) error {
	if s.closed {
		return &dryerrors.StoreUninitializedError{Operation: "write"}
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.fileLock.Lock(); err != nil {
		return err
	}
	defer s.fileLock.Unlock()
	return fn()
}

// SaveUnits upserts one or more units.
func (s *Store) SaveUnits(units []*unit.Unit) error {
	if s.closed {
		return &dryerrors.StoreUninitializedError{Operation: "SaveUnits"}
	}
	return s.withWriteLock(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO units (id, name, file_path, kind, start_line, end_line, code, parent_id, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name=excluded.name, file_path=excluded.file_path, kind=excluded.kind,
				start_line=excluded.start_line, end_line=excluded.end_line,
				code=excluded.code, parent_id=excluded.parent_id, embedding=excluded.embedding
		`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, u := range units {
			embJSON, err := marshalEmbedding(u.Embedding)
			if err != nil {
				tx.Rollback()
				return err
			}
			if _, err := stmt.Exec(u.ID, u.Name, u.FilePath, string(u.Kind), u.StartLine, u.EndLine, u.Code, u.ParentID, embJSON); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// UpdateUnitEmbedding updates only the embedding column for an existing unit.
func (s *Store) UpdateUnitEmbedding(id string, embedding []float32) error {
	return s.withWriteLock(func() error {
		embJSON, err := marshalEmbedding(embedding)
		if err != nil {
			return err
		}
		_, err = s.db.Exec(`UPDATE units SET embedding = ? WHERE id = ?`, embJSON, id)
		return err
	})
}

// DeleteUnitsByFilePaths removes all units whose file_path is in paths.
func (s *Store) DeleteUnitsByFilePaths(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return s.withWriteLock(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(`DELETE FROM units WHERE file_path = ?`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()
		for _, p := range paths {
			if _, err := stmt.Exec(p); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// GetUnit returns a single unit by id, with Children populated from the
// current unit set (one extra query).
func (s *Store) GetUnit(id string) (*unit.Unit, error) {
	row := s.db.QueryRow(`SELECT id, name, file_path, kind, start_line, end_line, code, parent_id, embedding FROM units WHERE id = ?`, id)
	u, err := scanUnit(row)
	if err != nil {
		return nil, err
	}
	children, err := s.childrenOf(u.ID)
	if err != nil {
		return nil, err
	}
	u.Children = children
	return u, nil
}

func (s *Store) childrenOf(parentID string) ([]*unit.Unit, error) {
	rows, err := s.db.Query(`SELECT id, name, file_path, kind, start_line, end_line, code, parent_id, embedding FROM units WHERE parent_id = ?`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*unit.Unit
	for rows.Next() {
		u, err := scanUnitRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListUnits returns every stored unit with parent/child relations
// reconstructed (spec.md §4.4: "the engine sees an in-memory tree").
func (s *Store) ListUnits() ([]*unit.Unit, error) {
	rows, err := s.db.Query(`SELECT id, name, file_path, kind, start_line, end_line, code, parent_id, embedding FROM units`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*unit.Unit)
	var all []*unit.Unit
	for rows.Next() {
		u, err := scanUnitRows(rows)
		if err != nil {
			return nil, err
		}
		byID[u.ID] = u
		all = append(all, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, u := range all {
		if u.ParentID == "" {
			continue
		}
		if parent, ok := byID[u.ParentID]; ok {
			parent.Children = append(parent.Children, u)
		}
	}
	return all, nil
}

// CountUnits returns the total number of stored units.
func (s *Store) CountUnits() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM units`).Scan(&n)
	return n, err
}

// SaveFileRecords upserts one or more file records.
func (s *Store) SaveFileRecords(records []unit.FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.withWriteLock(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO files (file_path, checksum, mtime) VALUES (?, ?, ?)
			ON CONFLICT(file_path) DO UPDATE SET checksum=excluded.checksum, mtime=excluded.mtime
		`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()
		for _, r := range records {
			if _, err := stmt.Exec(r.FilePath, r.Checksum, r.MTime); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// GetFileRecord returns the record for a path, or nil if untracked.
func (s *Store) GetFileRecord(path string) (*unit.FileRecord, error) {
	row := s.db.QueryRow(`SELECT file_path, checksum, mtime FROM files WHERE file_path = ?`, path)
	var r unit.FileRecord
	err := row.Scan(&r.FilePath, &r.Checksum, &r.MTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListFileRecords returns every tracked file record.
func (s *Store) ListFileRecords() ([]unit.FileRecord, error) {
	rows, err := s.db.Query(`SELECT file_path, checksum, mtime FROM files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []unit.FileRecord
	for rows.Next() {
		var r unit.FileRecord
		if err := rows.Scan(&r.FilePath, &r.Checksum, &r.MTime); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteFileRecords removes the given file records by path.
func (s *Store) DeleteFileRecords(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return s.withWriteLock(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(`DELETE FROM files WHERE file_path = ?`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()
		for _, p := range paths {
			if _, err := stmt.Exec(p); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// Close releases the store's resources.
func (s *Store) Close() error {
	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUnit(row *sql.Row) (*unit.Unit, error) {
	return scanAny(row)
}

func scanUnitRows(rows *sql.Rows) (*unit.Unit, error) {
	return scanAny(rows)
}

func scanAny(s scanner) (*unit.Unit, error) {
	var u unit.Unit
	var kind string
	var embJSON sql.NullString
	err := s.Scan(&u.ID, &u.Name, &u.FilePath, &kind, &u.StartLine, &u.EndLine, &u.Code, &u.ParentID, &embJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Kind = unit.Kind(kind)
	if embJSON.Valid && embJSON.String != "" {
		if err := json.Unmarshal([]byte(embJSON.String), &u.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", u.ID, err)
		}
	}
	return &u, nil
}

func marshalEmbedding(v []float32) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
