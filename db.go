package main

import (
	"database/sql"
	"sync"
	"time"
)

// DB interface for user and provenance persistence
type DB interface {
	Init() error
	// User operations
	CreateUser(username, passwordHash string) (*User, error)
	GetUserByUsername(username string) (*User, error)
	// Provenance operations (append-only: no update or delete)
	AppendProvenance(owner, contentID string) (*ProvenanceRecord, error)
	ListProvenanceByOwner(owner string) ([]*ProvenanceRecord, error)
}

// Memory DB
type MemDB struct {
	mu      sync.RWMutex
	users   map[string]*User
	records []*ProvenanceRecord
	seq     int64
}

func NewMemoryDB() *MemDB {
	return &MemDB{users: map[string]*User{}, seq: 1}
}

func (m *MemDB) Init() error { return nil }

func (m *MemDB) CreateUser(username, passwordHash string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return nil, ErrConflict
	}
	u := &User{ID: m.seq, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.seq++
	m.users[username] = u
	return u, nil
}

func (m *MemDB) GetUserByUsername(username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, nil
}

func (m *MemDB) AppendProvenance(owner, contentID string) (*ProvenanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &ProvenanceRecord{ID: m.seq, Owner: owner, ContentID: contentID, CreatedAt: time.Now()}
	m.seq++
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *MemDB) ListProvenanceByOwner(owner string) ([]*ProvenanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*ProvenanceRecord
	for _, r := range m.records {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

// SQLite DB
type SQLiteDB struct {
	db   *sql.DB
	path string
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteDB{db: d, path: path}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteDB) Init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY AUTOINCREMENT, username TEXT UNIQUE, password_hash TEXT, created_at TEXT);`,
		`CREATE TABLE IF NOT EXISTS provenance_records (id INTEGER PRIMARY KEY AUTOINCREMENT, owner TEXT, content_id TEXT, created_at TEXT);`,
		`CREATE INDEX IF NOT EXISTS idx_provenance_owner ON provenance_records(owner);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDB) CreateUser(username, passwordHash string) (*User, error) {
	existing, err := s.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}
	res, err := s.db.Exec(`INSERT INTO users(username,password_hash,created_at) VALUES(?,?,datetime('now'))`, username, passwordHash)
	if err != nil {
		// unique index backstop for concurrent registrations
		return nil, ErrConflict
	}
	id, _ := res.LastInsertId()
	return &User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

func (s *SQLiteDB) GetUserByUsername(username string) (*User, error) {
	row := s.db.QueryRow(`SELECT id,username,password_hash,created_at FROM users WHERE username = ?`, username)
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteDB) AppendProvenance(owner, contentID string) (*ProvenanceRecord, error) {
	res, err := s.db.Exec(`INSERT INTO provenance_records(owner,content_id,created_at) VALUES(?,?,datetime('now'))`, owner, contentID)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &ProvenanceRecord{ID: id, Owner: owner, ContentID: contentID, CreatedAt: time.Now()}, nil
}

func (s *SQLiteDB) ListProvenanceByOwner(owner string) ([]*ProvenanceRecord, error) {
	rows, err := s.db.Query(`SELECT id,owner,content_id,created_at FROM provenance_records WHERE owner = ? ORDER BY id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ProvenanceRecord
	for rows.Next() {
		var r ProvenanceRecord
		var created string
		if err := rows.Scan(&r.ID, &r.Owner, &r.ContentID, &created); err != nil {
			return nil, err
		}
		if t, err := time.Parse("2006-01-02 15:04:05", created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// lifecycle helpers
func (m *MemDB) close() error { return nil }
func (m *MemDB) ping() bool   { return true }

func (s *SQLiteDB) close() error { return s.db.Close() }
func (s *SQLiteDB) ping() bool   { return s.db.Ping() == nil }
