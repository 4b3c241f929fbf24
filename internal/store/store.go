// Package store persists historical records: emotion-encoding sessions,
// decoder guesses and video-call metadata. It is a collaborator of the
// HTTP layer only; the game engine never touches it.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	constants "github.com/Knocktern/The-Quiet-Game/internal/constants"
	util "github.com/Knocktern/The-Quiet-Game/internal/util"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

type SessionRecord struct {
	ID            int64          `json:"id"`
	SessionCode   string         `json:"session_code"`
	Emotion       string         `json:"emotion"`
	PatternConfig map[string]any `json:"pattern_config"`
	CreatedAt     time.Time      `json:"created_at"`
}

type GuessRecord struct {
	ID             int64     `json:"id"`
	SessionCode    string    `json:"session_code"`
	GuessedEmotion string    `json:"guessed_emotion"`
	IsCorrect      bool      `json:"is_correct"`
	CreatedAt      time.Time `json:"created_at"`
}

type VideoCallRecord struct {
	ID          int64      `json:"id"`
	RoomCode    string     `json:"room_code"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	MoodUpdates int        `json:"mood_updates"`
}

// Open creates the database file if needed and applies the schema.
// WAL mode and a busy timeout keep concurrent HTTP writers happy.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		util.LogWarn("Couldn't enable WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		util.LogWarn("Couldn't set busy timeout: %v", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_code TEXT UNIQUE NOT NULL,
			emotion TEXT NOT NULL,
			pattern_config TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS guesses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_code TEXT NOT NULL,
			guessed_emotion TEXT NOT NULL,
			is_correct INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_code) REFERENCES sessions(session_code)
		);`,
		`CREATE TABLE IF NOT EXISTS video_calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_code TEXT UNIQUE NOT NULL,
			start_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			end_time TIMESTAMP,
			mood_updates INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_guesses_session ON guesses(session_code);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	util.LogInfo("Record store initialized at %s", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession stores an emotion-encoding session under a fresh
// shareable code, retrying on the unlikely code collision.
func (s *Store) CreateSession(emotion string, patternConfig map[string]any) (SessionRecord, error) {
	if emotion == "" || len(patternConfig) == 0 {
		return SessionRecord{}, errors.New("emotion and pattern config are required")
	}

	patternJSON, err := json.Marshal(patternConfig)
	if err != nil {
		return SessionRecord{}, err
	}

	const maxRetries = 5
	var code string
	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		code = generateSessionCode()
		res, err := s.db.Exec(
			`INSERT INTO sessions (session_code, emotion, pattern_config) VALUES (?, ?, ?)`,
			code, emotion, string(patternJSON),
		)
		if err == nil {
			id, _ = res.LastInsertId()
			break
		}
		if attempt == maxRetries-1 {
			return SessionRecord{}, err
		}
	}

	return SessionRecord{
		ID:            id,
		SessionCode:   code,
		Emotion:       emotion,
		PatternConfig: patternConfig,
		CreatedAt:     time.Now(),
	}, nil
}

func (s *Store) GetSession(code string) (SessionRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, session_code, emotion, pattern_config, created_at FROM sessions WHERE session_code = ?`,
		code,
	)

	var rec SessionRecord
	var patternJSON string
	if err := row.Scan(&rec.ID, &rec.SessionCode, &rec.Emotion, &patternJSON, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionRecord{}, ErrNotFound
		}
		return SessionRecord{}, err
	}
	if err := json.Unmarshal([]byte(patternJSON), &rec.PatternConfig); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

// RecordGuess stores one decoder guess against a session and reports
// whether it matched the encoded emotion.
func (s *Store) RecordGuess(sessionCode, guessedEmotion string) (GuessRecord, error) {
	session, err := s.GetSession(sessionCode)
	if err != nil {
		return GuessRecord{}, err
	}

	correct := session.Emotion == guessedEmotion
	res, err := s.db.Exec(
		`INSERT INTO guesses (session_code, guessed_emotion, is_correct) VALUES (?, ?, ?)`,
		sessionCode, guessedEmotion, boolToInt(correct),
	)
	if err != nil {
		return GuessRecord{}, err
	}
	id, _ := res.LastInsertId()

	return GuessRecord{
		ID:             id,
		SessionCode:    sessionCode,
		GuessedEmotion: guessedEmotion,
		IsCorrect:      correct,
		CreatedAt:      time.Now(),
	}, nil
}

// CreateVideoCall opens a call record under a fresh room code.
func (s *Store) CreateVideoCall() (VideoCallRecord, error) {
	const maxRetries = 5
	var code string
	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		code = util.GenerateRoomCode()
		res, err := s.db.Exec(`INSERT INTO video_calls (room_code) VALUES (?)`, code)
		if err == nil {
			id, _ = res.LastInsertId()
			break
		}
		if attempt == maxRetries-1 {
			return VideoCallRecord{}, err
		}
	}

	return VideoCallRecord{
		ID:        id,
		RoomCode:  code,
		StartTime: time.Now(),
	}, nil
}

func (s *Store) GetVideoCall(roomCode string) (VideoCallRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, room_code, start_time, end_time, mood_updates FROM video_calls WHERE room_code = ?`,
		roomCode,
	)

	var rec VideoCallRecord
	if err := row.Scan(&rec.ID, &rec.RoomCode, &rec.StartTime, &rec.EndTime, &rec.MoodUpdates); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VideoCallRecord{}, ErrNotFound
		}
		return VideoCallRecord{}, err
	}
	return rec, nil
}

// EndVideoCall marks the call finished. Ending an already-ended or
// unknown call reports ErrNotFound.
func (s *Store) EndVideoCall(roomCode string) (VideoCallRecord, error) {
	res, err := s.db.Exec(
		`UPDATE video_calls SET end_time = CURRENT_TIMESTAMP WHERE room_code = ? AND end_time IS NULL`,
		roomCode,
	)
	if err != nil {
		return VideoCallRecord{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return VideoCallRecord{}, ErrNotFound
	}
	return s.GetVideoCall(roomCode)
}

func generateSessionCode() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = constants.RoomCodeAlphabet[util.RandIndex(len(constants.RoomCodeAlphabet))]
	}
	return string(b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
