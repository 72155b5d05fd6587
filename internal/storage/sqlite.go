package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"planner/internal/task"
)

// SQLiteStore keeps tasks in a single sqlite table. Save rewrites the table
// inside one transaction, so a reader sees either the old or the new list.
type SQLiteStore struct {
	path  string
	opts  Options
	db    *sql.DB
	ready bool
}

func OpenSQLite(dbPath string, opts Options) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	s := &SQLiteStore{path: dbPath, opts: opts}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) open() error {
	db, err := sql.Open("sqlite", sqliteDSN(s.path))
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	s.db = db
	s.ready = false
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Lock takes the database's sibling lock file. Paths given as a file: URI
// are not locked.
func (s *SQLiteStore) Lock() (func(), error) {
	if strings.HasPrefix(s.path, "file:") {
		return func() {}, nil
	}
	return lockFile(s.path + lockSuffix)
}

func (s *SQLiteStore) ensureSchema() error {
	if s.ready {
		return nil
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	position INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	due TEXT NOT NULL DEFAULT '',
	remind INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'Open'
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	if err := s.ensureTaskColumns(); err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *SQLiteStore) ensureTaskColumns() error {
	required := map[string]string{
		"category": "ALTER TABLE tasks ADD COLUMN category TEXT NOT NULL DEFAULT '';",
		"notified": "ALTER TABLE tasks ADD COLUMN notified INTEGER NOT NULL DEFAULT 0;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// Load reads all tasks in insertion order. A corrupt database is moved aside
// to <path>.bak and replaced by an empty one, and an error wrapping ErrReset
// is returned with the empty result. Other errors, such as a busy database,
// are returned as they are.
func (s *SQLiteStore) Load() ([]task.Task, error) {
	tasks, err := s.fetchTasks()
	if err == nil {
		return tasks, nil
	}
	if !isCorrupt(err) {
		return nil, err
	}
	return s.reset(err)
}

// isCorrupt reports whether err means the file is not a usable database.
func isCorrupt(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return true
	default:
		return false
	}
}

func (s *SQLiteStore) fetchTasks() ([]task.Task, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT id, name, due, remind, category, status, notified FROM tasks ORDER BY position;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var r record
		var notified int
		if err := rows.Scan(&r.ID, &r.Name, &r.Due, &r.Remind, &r.Category, &r.Status, &notified); err != nil {
			return nil, err
		}
		r.Notified = notified == 1
		tasks = append(tasks, r.toTask(s.opts))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *SQLiteStore) reset(cause error) ([]task.Task, error) {
	s.Close()
	if err := os.Rename(s.path, s.path+backupSuffix); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%v (keep backup: %w)", cause, err)
	}
	if err := s.open(); err != nil {
		return []task.Task{}, fmt.Errorf("%w: %v (reopen: %v)", ErrReset, cause, err)
	}
	if err := s.ensureSchema(); err != nil {
		return []task.Task{}, fmt.Errorf("%w: %v (reinitialize: %v)", ErrReset, cause, err)
	}
	return []task.Task{}, fmt.Errorf("%w: %v", ErrReset, cause)
}

// Save replaces every stored row with tasks.
func (s *SQLiteStore) Save(tasks []task.Task) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks;`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO tasks (position, id, name, due, remind, category, status, notified) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range tasks {
		r := toRecord(t)
		notified := 0
		if r.Notified {
			notified = 1
		}
		if _, err := stmt.Exec(i, r.ID, r.Name, r.Due, r.Remind, r.Category, r.Status, notified); err != nil {
			return fmt.Errorf("save task %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
