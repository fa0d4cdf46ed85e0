package main

import "time"

// User represents a registered account. Passwords are stored as bcrypt
// hashes only; the plaintext never reaches the DB layer.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// ProvenanceRecord binds an owner to a content identifier. Records are
// append-only: there is no update or delete path anywhere in the code.
type ProvenanceRecord struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	ContentID string    `json:"contentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// UploadResult is what a completed pipeline run returns to the caller.
type UploadResult struct {
	ContentID string   `json:"contentId"`
	Tags      []string `json:"tags"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type recommendRequest struct {
	Features []float64 `json:"features"`
}
