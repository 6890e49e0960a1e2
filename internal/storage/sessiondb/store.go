// Package sessiondb provides file-based JSON persistence for session records.
package sessiondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/models"
)

// Store persists one JSON file per session under basePath. Writes are atomic
// (temp file + rename) and serialized by a mutex; reads take the same lock so
// a hydrating read never observes a half-written record.
type Store struct {
	basePath string
	logger   *common.Logger
	mu       sync.Mutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory %s: %w", path, err)
	}

	s := &Store{
		basePath: path,
		logger:   logger,
	}

	logger.Debug().Str("path", path).Msg("Session store opened")
	return s, nil
}

// sanitizeKey makes a key safe for use as a filename.
// Replaces /, \, : with _ and collapses ".." to "_" to prevent path traversal.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (s *Store) filePath(userID string) string {
	return filepath.Join(s.basePath, sanitizeKey(userID)+".json")
}

// Get returns the stored user for userID.
func (s *Store) Get(ctx context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.filePath(userID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session '%s' not found", userID)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &user, nil
}

// Save writes the user record, creating or replacing it.
func (s *Store) Save(ctx context.Context, user *models.User) error {
	if user == nil || user.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jsonData, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	jsonData = append(jsonData, '\n')

	// Atomic write: temp file in the same directory, then rename
	tmpFile, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath(user.UserID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Delete removes the user record. Deleting an absent record is not an error.
func (s *Store) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath(userID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session %s: %w", userID, err)
	}
	return nil
}

// List returns the stored user IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Close releases store resources.
func (s *Store) Close() error {
	return nil
}
