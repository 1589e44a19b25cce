package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"omvsetup/constants"
	"omvsetup/logger"
)

// storeFile is the on-disk layout.
type storeFile struct {
	Version int      `json:"version"`
	Entries []*Entry `json:"entries"`
}

// Version 1 files marked sealed passwords by prefix only.
const storeVersion = 2

// FileStore keeps entries in memory and mirrors them to a JSON file.
type FileStore struct {
	path string
	box  *SecretBox

	mu      sync.Mutex
	entries []*Entry
	now     func() time.Time
}

var _ EntryStore = (*FileStore)(nil)

// OpenFileStore loads path, starting empty if the file does not exist.
// When box is non-nil passwords are encrypted on disk.
func OpenFileStore(path string, box *SecretBox) (*FileStore, error) {
	s := &FileStore{
		path: path,
		box:  box,
		now:  time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	log := logger.Get().With().Str("store_file", s.path).Logger()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Msg("Store file not found, starting with no entries")
			s.entries = []*Entry{}
			return nil
		}
		return fmt.Errorf("failed to read store file: %w", err)
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to unmarshal store file: %w", err)
	}

	for _, e := range f.Entries {
		if e.Data == nil {
			e.Data = map[string]interface{}{}
		}
		if e.Options == nil {
			e.Options = map[string]interface{}{}
		}
		normalizeNumbers(e.Options)
		if f.Version < 2 {
			pw, _ := e.Data[constants.ConfPassword].(string)
			e.PasswordSealed = IsSealed(pw)
		}
		if err := s.openSecrets(e); err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
	}
	s.entries = f.Entries
	if s.entries == nil {
		s.entries = []*Entry{}
	}

	log.Debug().Int("entries", len(s.entries)).Msg("Store loaded")
	return nil
}

func (s *FileStore) openSecrets(e *Entry) error {
	if !e.PasswordSealed {
		return nil
	}
	e.PasswordSealed = false
	pw, ok := e.Data[constants.ConfPassword].(string)
	if !ok {
		return errors.New("sealed password is not a string")
	}
	if s.box == nil {
		return errors.New("password is encrypted but no secret key is configured")
	}
	plain, err := s.box.Open(pw)
	if err != nil {
		return err
	}
	e.Data[constants.ConfPassword] = plain
	return nil
}

// save writes the current entries. Callers hold s.mu.
func (s *FileStore) save() error {
	out := storeFile{Version: storeVersion, Entries: make([]*Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		c := e.clone()
		if pw, ok := c.Data[constants.ConfPassword].(string); ok && s.box != nil && pw != "" {
			sealed, err := s.box.Seal(pw)
			if err != nil {
				return err
			}
			c.Data[constants.ConfPassword] = sealed
			c.PasswordSealed = true
		}
		out.Entries = append(out.Entries, &c)
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	logger.Get().Debug().Str("store_file", s.path).Int("entries", len(s.entries)).Msg("Store saved")
	return nil
}

// ListDisplayNames returns the display names of every persisted entry.
func (s *FileStore) ListDisplayNames(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		names[e.DisplayName()] = struct{}{}
	}
	return names, nil
}

// Create persists a new entry. The name check and the write happen under one lock,
// so two sessions racing on the same name cannot both succeed.
func (s *FileStore) Create(ctx context.Context, title string, data map[string]interface{}) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name, _ := data[constants.ConfName].(string)
	for _, e := range s.entries {
		if e.DisplayName() == name {
			return Entry{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}

	now := s.now().UTC()
	e := &Entry{
		ID:        uuid.NewString(),
		Title:     title,
		Data:      maps.Clone(data),
		Options:   map[string]interface{}{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.entries = append(s.entries, e)
	if err := s.save(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return Entry{}, err
	}

	logger.Get().Info().Str("entry_id", e.ID).Str("title", title).Msg("Configuration entry created")
	return e.clone(), nil
}

// Entries returns a copy of every entry.
func (s *FileStore) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.clone())
	}
	return out, nil
}

// Get returns the entry with the given ID.
func (s *FileStore) Get(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.find(id); e != nil {
		return e.clone(), nil
	}
	return Entry{}, ErrEntryNotFound
}

// UpdateOptions replaces the stored options of an entry.
func (s *FileStore) UpdateOptions(ctx context.Context, id string, options map[string]interface{}) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.find(id)
	if e == nil {
		return Entry{}, ErrEntryNotFound
	}
	prev, prevUpdated := e.Options, e.UpdatedAt
	e.Options = maps.Clone(options)
	if e.Options == nil {
		e.Options = map[string]interface{}{}
	}
	e.UpdatedAt = s.now().UTC()
	if err := s.save(); err != nil {
		e.Options, e.UpdatedAt = prev, prevUpdated
		return Entry{}, err
	}

	logger.Get().Info().Str("entry_id", id).Interface("options", options).Msg("Entry options updated")
	return e.clone(), nil
}

func (s *FileStore) find(id string) *Entry {
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}
