// Package state holds the agent's sync state: last-applied schedules and
// playlists, the version vector, playback flags and the retry bookkeeping.
// One mutex guards it all; every loop on the device goes through this store.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"signage/internal/domain/entity"
	"signage/internal/errors"

	"github.com/google/uuid"
)

const stateFilename = "sync_state.json"

// SyncState is everything the device remembers between heartbeats. It is
// persisted so a restart resumes with the last-known schedule and playlist
// rather than a blank screen.
type SyncState struct {
	DeviceID   int64     `json:"device_id"`
	DeviceUUID uuid.UUID `json:"device_uuid"`

	Versions  entity.VersionVector      `json:"versions"`
	Schedules []*entity.Schedule        `json:"schedules"`
	Playlists map[int64]*entity.Playlist `json:"playlists"`

	IsPlaylistActive  bool  `json:"is_playlist_active"`
	CurrentPlaylistID int64 `json:"current_playlist_id"`

	FailureCount   int       `json:"failure_count"`
	LastSuccess    time.Time `json:"last_success"`
	LastEscalation time.Time `json:"last_escalation"`

	// RetryInFlight is the single-flight guard shared by every loop. It is
	// process state, never persisted.
	RetryInFlight bool `json:"-"`
}

// Registered reports whether the device holds a server identity.
func (s *SyncState) Registered() bool {
	return s.DeviceID != 0
}

// ResetIdentity drops the server-assigned identity after a 404: the device
// must re-register from scratch. The durable UUID is kept.
func (s *SyncState) ResetIdentity() {
	s.DeviceID = 0
	s.Versions = entity.VersionVector{}
}

// Playlist returns the cached playlist by id, or nil.
func (s *SyncState) Playlist(id int64) *entity.Playlist {
	if s.Playlists == nil {
		return nil
	}

	return s.Playlists[id]
}

// Store owns the SyncState behind a single lock and persists it to disk.
type Store struct {
	mu    sync.Mutex
	path  string
	state SyncState
}

// NewStore loads the persisted state from stateDir, starting fresh (with a
// new durable UUID) when no usable file exists.
func NewStore(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create state directory")
	}

	store := &Store{
		path: filepath.Join(stateDir, stateFilename),
	}

	raw, err := os.ReadFile(store.path)
	switch {
	case err == nil:
		if unmarshalErr := json.Unmarshal(raw, &store.state); unmarshalErr != nil {
			// A corrupt file is not fatal, the device re-syncs from scratch.
			store.state = SyncState{}
		}
	case os.IsNotExist(err):
		// First boot.
	default:
		return nil, errors.Wrap(err, "failed to read state file")
	}

	if store.state.DeviceUUID == uuid.Nil {
		store.state.DeviceUUID = uuid.New()
	}
	if store.state.Playlists == nil {
		store.state.Playlists = make(map[int64]*entity.Playlist)
	}

	return store, nil
}

// Update runs fn under the state lock and persists the result. All state
// mutations go through here so the single-flight and escalation invariants
// hold across loops.
func (s *Store) Update(fn func(state *SyncState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)

	return s.persistLocked()
}

// Mutate runs fn under the state lock without persisting. Used for
// process-only fields like the retry flag.
func (s *Store) Mutate(fn func(state *SyncState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state
	snapshot.Schedules = append([]*entity.Schedule(nil), s.state.Schedules...)
	snapshot.Playlists = make(map[int64]*entity.Playlist, len(s.state.Playlists))
	for id, playlist := range s.state.Playlists {
		snapshot.Playlists[id] = playlist
	}

	return snapshot
}

// persistLocked writes the state file via a temp-file rename so a crash mid
// write never leaves a truncated file.
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(&s.state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal sync state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "failed to write sync state")
	}

	return errors.Wrap(os.Rename(tmp, s.path), "failed to replace sync state")
}
