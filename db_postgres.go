package main

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type PostgresDB struct {
	db  *sql.DB
	dsn string
}

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	p := &PostgresDB{db: d, dsn: dsn}
	if err := p.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresDB) Init() error {
	// rely on migrations to create tables; just verify connectivity
	if err := p.db.Ping(); err != nil {
		return err
	}
	return nil
}

func (p *PostgresDB) CreateUser(username, passwordHash string) (*User, error) {
	existing, err := p.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}
	var id int64
	err = p.db.QueryRow(`INSERT INTO users(username,password_hash,created_at) VALUES($1,$2,now()) RETURNING id`, username, passwordHash).Scan(&id)
	if err != nil {
		// unique index backstop for concurrent registrations
		return nil, ErrConflict
	}
	return &User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

func (p *PostgresDB) GetUserByUsername(username string) (*User, error) {
	row := p.db.QueryRow(`SELECT id,username,password_hash,created_at FROM users WHERE username = $1`, username)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (p *PostgresDB) AppendProvenance(owner, contentID string) (*ProvenanceRecord, error) {
	var id int64
	var created time.Time
	err := p.db.QueryRow(`INSERT INTO provenance_records(owner,content_id,created_at) VALUES($1,$2,now()) RETURNING id,created_at`, owner, contentID).Scan(&id, &created)
	if err != nil {
		return nil, err
	}
	return &ProvenanceRecord{ID: id, Owner: owner, ContentID: contentID, CreatedAt: created}, nil
}

func (p *PostgresDB) ListProvenanceByOwner(owner string) ([]*ProvenanceRecord, error) {
	rows, err := p.db.Query(`SELECT id,owner,content_id,created_at FROM provenance_records WHERE owner = $1 ORDER BY id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ProvenanceRecord
	for rows.Next() {
		var r ProvenanceRecord
		if err := rows.Scan(&r.ID, &r.Owner, &r.ContentID, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (p *PostgresDB) close() error { return p.db.Close() }
func (p *PostgresDB) ping() bool   { return p.db.Ping() == nil }
