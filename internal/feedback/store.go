// Package feedback persists answer ratings in sqlite.
package feedback

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Record is one answered question awaiting or carrying a rating. A nil
// IsHelpful means not yet rated.
type Record struct {
	ID        int64
	User      string
	Question  string
	Answer    string
	Checklist *string
	IsHelpful *bool
	CreatedAt time.Time
}

// Store is the sqlite-backed feedback store.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the feedback database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS feedback (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user TEXT NOT NULL,
        question TEXT NOT NULL,
        answer TEXT NOT NULL,
        checklist TEXT,
        is_helpful BOOLEAN,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Create stores a new feedback entry for an answered question and returns
// it with its assigned id.
func (s *Store) Create(user, question, answer string, checklist *string) (*Record, error) {
	now := time.Now()
	res, err := s.db.Exec(
		"INSERT INTO feedback (user, question, answer, checklist, created_at) VALUES (?, ?, ?, ?, ?)",
		user, question, answer, checklist, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}

	return &Record{
		ID:        id,
		User:      user,
		Question:  question,
		Answer:    answer,
		Checklist: checklist,
		CreatedAt: now,
	}, nil
}

// SetRating records whether the answer helped. Returns the updated record,
// or nil when no record has that id.
func (s *Store) SetRating(id int64, helpful bool) (*Record, error) {
	res, err := s.db.Exec("UPDATE feedback SET is_helpful = ? WHERE id = ?", helpful, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update rating: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.Get(id)
}

// Get returns the record with the given id, or nil when it doesn't exist.
func (s *Store) Get(id int64) (*Record, error) {
	var rec Record
	var checklist sql.NullString
	var helpful sql.NullBool

	err := s.db.QueryRow(
		"SELECT id, user, question, answer, checklist, is_helpful, created_at FROM feedback WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.User, &rec.Question, &rec.Answer, &checklist, &helpful, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}

	if checklist.Valid {
		rec.Checklist = &checklist.String
	}
	if helpful.Valid {
		rec.IsHelpful = &helpful.Bool
	}
	return &rec, nil
}
