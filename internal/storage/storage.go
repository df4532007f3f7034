package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("storage: record not found")

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Storage struct {
	db *sql.DB
}

// Registration is one archived submission. The live wizard never reads
// this table; it exists for moderator decisions and /status lookups.
type Registration struct {
	ID           int64
	TrackingCode string
	UserID       int64
	Username     string
	DisplayName  string

	CharacterName string
	Race          string
	BirthDate     string
	ParentNames   string
	Subclass      string
	RawForm       string

	PortraitFileID string
	SongFileID     string
	CoverFileID    string

	Status    string
	CreatedAt time.Time
}

func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	s := &Storage{db: db}
	if err = s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize database schema: %w", err)
	}
	log.Println("Database connection successful and schema initialized.")
	return s, nil
}

func (s *Storage) initSchema() error {
	query := `CREATE TABLE IF NOT EXISTS registrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tracking_code TEXT NOT NULL UNIQUE,
		user_id INTEGER NOT NULL,
		username TEXT,
		display_name TEXT,
		character_name TEXT NOT NULL,
		race TEXT NOT NULL,
		birth_date TEXT NOT NULL,
		parent_names TEXT NOT NULL,
		subclass TEXT,
		raw_form TEXT NOT NULL,
		portrait_file_id TEXT,
		song_file_id TEXT,
		cover_file_id TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}
	indexQuery := `CREATE INDEX IF NOT EXISTS idx_registrations_user_status
		ON registrations(user_id, status);`
	_, err := s.db.Exec(indexQuery)
	return err
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// ArchiveRegistration records a relayed submission with status pending.
func (s *Storage) ArchiveRegistration(reg *Registration) error {
	query := `INSERT INTO registrations (
		tracking_code, user_id, username, display_name,
		character_name, race, birth_date, parent_names, subclass, raw_form,
		portrait_file_id, song_file_id, cover_file_id, status
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.Exec(query,
		reg.TrackingCode, reg.UserID, reg.Username, reg.DisplayName,
		reg.CharacterName, reg.Race, reg.BirthDate, reg.ParentNames, reg.Subclass, reg.RawForm,
		reg.PortraitFileID, reg.SongFileID, reg.CoverFileID, StatusPending)
	if err != nil {
		return fmt.Errorf("could not archive registration: %w", err)
	}
	reg.ID, _ = res.LastInsertId()
	reg.Status = StatusPending
	return nil
}

// ResolvePending flips the user's newest pending registration to status and
// returns it. A second resolution attempt finds nothing pending and gets
// ErrNotFound, which makes moderator decisions idempotent.
func (s *Storage) ResolvePending(userID int64, status string) (*Registration, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT id FROM registrations
		WHERE user_id = ? AND status = ?
		ORDER BY id DESC LIMIT 1`, userID, StatusPending)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not look up pending registration: %w", err)
	}

	if _, err := tx.Exec(`UPDATE registrations SET status = ? WHERE id = ?`, status, id); err != nil {
		return nil, fmt.Errorf("could not update registration status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit resolution: %w", err)
	}
	return s.registrationBy("id", id)
}

// RegistrationByCode serves /status lookups.
func (s *Storage) RegistrationByCode(code string) (*Registration, error) {
	return s.registrationBy("tracking_code", code)
}

func (s *Storage) registrationBy(column string, value interface{}) (*Registration, error) {
	query := fmt.Sprintf(`SELECT id, tracking_code, user_id, username, display_name,
		character_name, race, birth_date, parent_names, subclass, raw_form,
		portrait_file_id, song_file_id, cover_file_id, status, created_at
		FROM registrations WHERE %s = ?`, column)
	row := s.db.QueryRow(query, value)
	var reg Registration
	err := row.Scan(&reg.ID, &reg.TrackingCode, &reg.UserID, &reg.Username, &reg.DisplayName,
		&reg.CharacterName, &reg.Race, &reg.BirthDate, &reg.ParentNames, &reg.Subclass, &reg.RawForm,
		&reg.PortraitFileID, &reg.SongFileID, &reg.CoverFileID, &reg.Status, &reg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read registration: %w", err)
	}
	return &reg, nil
}

// CountByStatus seeds the in-memory certificate counter at startup.
func (s *Storage) CountByStatus(status string) (int64, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM registrations WHERE status = ?`, status)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("could not count registrations: %w", err)
	}
	return n, nil
}
