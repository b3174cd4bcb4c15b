package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// SessionTTL is how long an idle session survives before it is considered
// expired. Age is measured by the session directory's modification time,
// which every chunk write refreshes.
const SessionTTL = 24 * time.Hour

const metadataFile = "session.json"

// Errors surfaced by the session store and coordinator.
var (
	// ErrSessionNotFound indicates a missing or expired session.
	ErrSessionNotFound = errors.New("upload session not found")

	// ErrIncompleteUpload indicates completion was requested before every
	// chunk arrived.
	ErrIncompleteUpload = errors.New("upload incomplete")
)

// MissingChunkError indicates an expected chunk file was absent at merge
// time, naming the missing index.
type MissingChunkError struct {
	Index int
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("missing chunk %d", e.Index)
}

// Status is the lifecycle state of a session. Transitions only move
// forward: initialized -> receiving -> complete.
type Status string

const (
	// StatusInitialized means no chunk has arrived yet.
	StatusInitialized Status = "initialized"
	// StatusReceiving means some but not all chunks have arrived.
	StatusReceiving Status = "receiving"
	// StatusComplete means every declared chunk is on disk.
	StatusComplete Status = "complete"
)

// Session is the metadata record for one chunked upload.
type Session struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	TotalChunks int       `json:"totalChunks"`
	Received    int       `json:"received"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProgressPercent returns the received fraction as a percentage.
func (s *Session) ProgressPercent() float64 {
	if s.TotalChunks == 0 {
		return 0
	}
	return float64(s.Received) / float64(s.TotalChunks) * 100
}

// Store persists sessions as directories on the local filesystem.
type Store struct {
	dir string
}

// NewStore creates the sessions directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the sessions directory path.
func (st *Store) Dir() string { return st.dir }

// SessionDir returns the directory holding one session's files.
func (st *Store) SessionDir(id string) string {
	return filepath.Join(st.dir, id)
}

// ChunkPath returns the file path for one chunk. The zero-padded index
// guarantees lexical order equals numeric order.
func (st *Store) ChunkPath(id string, index int) string {
	return filepath.Join(st.SessionDir(id), fmt.Sprintf("chunk_%06d", index))
}

// Create allocates the session directory and writes the metadata record.
// The session ID is generated here.
func (st *Store) Create(sess *Session) error {
	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now()
	sess.Status = StatusInitialized

	if err := os.Mkdir(st.SessionDir(sess.ID), 0o755); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	if err := st.Save(sess); err != nil {
		_ = os.RemoveAll(st.SessionDir(sess.ID))
		return err
	}

	st.updateActiveGauge()
	return nil
}

// Load reads a session's metadata. Missing, malformed-id, and expired
// sessions all surface as ErrSessionNotFound.
func (st *Store) Load(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	info, err := os.Stat(st.SessionDir(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if time.Since(info.ModTime()) > SessionTTL {
		return nil, fmt.Errorf("%w: %s (expired)", ErrSessionNotFound, id)
	}

	data, err := os.ReadFile(filepath.Join(st.SessionDir(id), metadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %s (corrupt metadata)", ErrSessionNotFound, id)
	}
	return &sess, nil
}

// Save writes the metadata record atomically.
func (st *Store) Save(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}

	dir := st.SessionDir(sess.ID)
	tmp, err := os.CreateTemp(dir, ".meta-*")
	if err != nil {
		return fmt.Errorf("failed to write session metadata: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, metadataFile)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write session metadata: %w", err)
	}
	return nil
}

// WriteChunk stores one chunk, overwriting any previous delivery of the same
// index. Returns the number of bytes written.
func (st *Store) WriteChunk(id string, index int, r io.Reader) (int64, error) {
	dir := st.SessionDir(id)
	tmp, err := os.CreateTemp(dir, ".chunk-*")
	if err != nil {
		return 0, fmt.Errorf("failed to stage chunk %d: %w", index, err)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write chunk %d: %w", index, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write chunk %d: %w", index, err)
	}

	if err := os.Rename(tmp.Name(), st.ChunkPath(id, index)); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to store chunk %d: %w", index, err)
	}
	return n, nil
}

// CountChunks counts the distinct chunk files on disk for a session.
// Retried deliveries overwrite in place, so this is the true received count.
func (st *Store) CountChunks(id string) (int, error) {
	entries, err := os.ReadDir(st.SessionDir(id))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), "chunk_") {
			count++
		}
	}
	return count, nil
}

// Remove deletes a session directory and everything in it.
func (st *Store) Remove(id string) {
	if err := os.RemoveAll(st.SessionDir(id)); err != nil {
		logging.Warn("Failed to remove session dir %s: %v", id, err)
		return
	}
	st.updateActiveGauge()
}

// SweepExpired removes every session directory idle longer than SessionTTL,
// regardless of status, and returns the number removed.
func (st *Store) SweepExpired() int {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		logging.Warn("Failed to read sessions dir: %v", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= SessionTTL {
			continue
		}
		if err := os.RemoveAll(filepath.Join(st.dir, entry.Name())); err != nil {
			logging.Warn("Failed to remove expired session %s: %v", entry.Name(), err)
			continue
		}
		removed++
		logging.Info("Removed expired upload session %s", entry.Name())
	}

	if removed > 0 {
		st.updateActiveGauge()
	}
	return removed
}

func (st *Store) updateActiveGauge() {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			count++
		}
	}
	metrics.UploadSessionsActive.Set(float64(count))
}
