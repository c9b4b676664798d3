// Package json persists conversation sessions as JSON files, one versioned
// envelope per session, and implements analyst.MessageLog over a directory of
// them.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/analyst"
)

// Envelope versions. Version 1 files carry no stats block and are still
// read; they are rewritten as version 2 on the next save.
const (
	legacyVersion   = 1
	envelopeVersion = 2
)

// envelope is the on-disk format for a persisted session.
type envelope struct {
	Version   int          `json:"version"`
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Stats     *statsDTO    `json:"stats,omitempty"`
	Messages  []messageDTO `json:"messages"`
}

// statsDTO summarizes the messages so listing sessions can skip decoding
// them.
type statsDTO struct {
	MessageCount int       `json:"message_count"`
	FirstAt      time.Time `json:"first_at"`
	LastAt       time.Time `json:"last_at"`
}

// header is an envelope without its messages.
type header struct {
	Version int       `json:"version"`
	ID      string    `json:"id"`
	Stats   *statsDTO `json:"stats"`
}

func summarize(msgs []analyst.Message) *statsDTO {
	st := &statsDTO{MessageCount: len(msgs)}
	if len(msgs) > 0 {
		st.FirstAt = msgs[0].Timestamp
		st.LastAt = msgs[len(msgs)-1].Timestamp
	}
	return st
}

func (s *statsDTO) equal(o *statsDTO) bool {
	return s.MessageCount == o.MessageCount && s.FirstAt.Equal(o.FirstAt) && s.LastAt.Equal(o.LastAt)
}

// MarshalSession serializes a Session to JSON in the current envelope format.
func MarshalSession(s analyst.Session) ([]byte, error) {
	env := envelope{
		Version:   envelopeVersion,
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Stats:     summarize(s.Messages),
		Messages:  make([]messageDTO, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		dto, err := marshalMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalSession deserializes a Session from a version 1 or 2 envelope. A
// version 2 stats block that disagrees with the messages is rejected.
func UnmarshalSession(data []byte) (analyst.Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return analyst.Session{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != envelopeVersion && env.Version != legacyVersion {
		return analyst.Session{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]analyst.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return analyst.Session{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	if env.Version == envelopeVersion {
		if env.Stats == nil {
			return analyst.Session{}, errors.New("envelope: missing stats")
		}
		if got := summarize(msgs); !got.equal(env.Stats) {
			return analyst.Session{}, fmt.Errorf("envelope: stats say %d messages, found %d", env.Stats.MessageCount, got.MessageCount)
		}
	}
	return analyst.Session{
		ID:        env.ID,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Messages:  msgs,
	}, nil
}

// Save writes a Session to a JSON file, creating parent directories as needed.
// The file is replaced atomically.
func Save(path string, s analyst.Session) error {
	data, err := MarshalSession(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LoadStats reads the session summary from a JSON file. Version 2 files are
// answered from the stats block; older files are fully decoded.
func LoadStats(path string) (analyst.SessionStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return analyst.SessionStats{}, fmt.Errorf("read file: %w", err)
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return analyst.SessionStats{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	st := h.Stats
	if h.Version != envelopeVersion || st == nil {
		s, err := UnmarshalSession(data)
		if err != nil {
			return analyst.SessionStats{}, err
		}
		st = summarize(s.Messages)
	}
	return analyst.SessionStats{
		ID:           h.ID,
		MessageCount: st.MessageCount,
		FirstAt:      st.FirstAt,
		LastAt:       st.LastAt,
	}, nil
}

// Load reads a Session from a JSON file.
func Load(path string) (analyst.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return analyst.Session{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalSession(data)
}
