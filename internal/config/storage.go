package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"appctl/pkg/logging"
)

// ErrEntityNotFound is returned by Load and Delete for missing entities.
var ErrEntityNotFound = errors.New("entity not found")

// Storage stores YAML documents grouped by entity type under a single
// configuration directory: <configPath>/<entityType>/<name>.yaml.
type Storage struct {
	mu         sync.RWMutex
	configPath string // When empty, ~/.config/appctl is used
}

// NewStorage creates a new Storage instance using the default configuration directory
func NewStorage() *Storage {
	return &Storage{}
}

// NewStorageWithPath creates a new Storage instance with a custom config path
func NewStorageWithPath(configPath string) *Storage {
	return &Storage{
		configPath: configPath,
	}
}

// Save stores data for the given entity type and name, replacing any
// previous document.
func (ds *Storage) Save(entityType string, name string, data []byte) error {
	if err := checkKey(entityType, name); err != nil {
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	targetDir, err := ds.entityDir(entityType)
	if err != nil {
		return fmt.Errorf("failed to resolve directory for entity type %s: %w", entityType, err)
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", targetDir, err)
	}

	filePath := filepath.Join(targetDir, ds.sanitizeFilename(name)+".yaml")

	// Write through a temporary file so readers never see a partial document.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", filePath, err)
	}

	logging.Debug("Storage", "Saved %s/%s to %s", entityType, name, filePath)
	return nil
}

// Load retrieves data for the given entity type and name. Missing entities
// yield an error wrapping ErrEntityNotFound.
func (ds *Storage) Load(entityType string, name string) ([]byte, error) {
	if err := checkKey(entityType, name); err != nil {
		return nil, err
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()

	dir, err := ds.entityDir(entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration directory: %w", err)
	}

	filePath := filepath.Join(dir, ds.sanitizeFilename(name)+".yaml")
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", entityType, name, ErrEntityNotFound)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	logging.Debug("Storage", "Loaded %s/%s from %s", entityType, name, filePath)
	return data, nil
}

// Delete removes the file for the given entity type and name
func (ds *Storage) Delete(entityType string, name string) error {
	if err := checkKey(entityType, name); err != nil {
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	dir, err := ds.entityDir(entityType)
	if err != nil {
		return fmt.Errorf("failed to get configuration directory: %w", err)
	}

	filePath := filepath.Join(dir, ds.sanitizeFilename(name)+".yaml")
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s/%s: %w", entityType, name, ErrEntityNotFound)
		}
		return fmt.Errorf("failed to delete file %s: %w", filePath, err)
	}

	logging.Debug("Storage", "Deleted %s/%s from %s", entityType, name, filePath)
	return nil
}

// List returns the sorted names stored for the given entity type. A missing
// directory yields an empty list.
func (ds *Storage) List(entityType string) ([]string, error) {
	if entityType == "" {
		return nil, fmt.Errorf("entityType cannot be empty")
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()

	dir, err := ds.entityDir(entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", entityType, err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)

	logging.Debug("Storage", "Listed %d %s entities", len(names), entityType)
	return names, nil
}

func checkKey(entityType, name string) error {
	if entityType == "" {
		return fmt.Errorf("entityType cannot be empty")
	}
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

func (ds *Storage) entityDir(entityType string) (string, error) {
	configDir := ds.configPath
	if configDir == "" {
		var err error
		if configDir, err = GetUserConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(configDir, entityType), nil
}

// sanitizeFilename ensures the filename is safe for filesystem operations
func (ds *Storage) sanitizeFilename(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '.', ' ':
			return '_'
		}
		return r
	}, name)

	// Collapse multiple consecutive underscores to single underscore
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
