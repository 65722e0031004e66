// Package fs provides a dao.Service persisting one JSON document per key on
// any afs supported storage (local file system, memory, cloud buckets).
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/routegate/service/dao"
)

// Store implements a file based entity storage.
type Store[T any] struct {
	basePath    string
	fs          afs.Service
	keySelector func(*T) string
	mu          sync.RWMutex
}

// Save persists an entity.
func (s *Store[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	if key == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.entityPath(key)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves an entity.
func (s *Store[T]) Load(ctx context.Context, key string) (*T, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.entityPath(key)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", filePath, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	var ret T
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filePath, err)
	}
	return &ret, nil
}

// Delete removes an entity.
func (s *Store[T]) Delete(ctx context.Context, key string) error {
	if key == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.entityPath(key)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", filePath, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete %s: %w", filePath, err)
	}
	return nil
}

// List returns all entities matching filters; unreadable documents are skipped.
func (s *Store[T]) List(ctx context.Context, filters ...dao.Filter[T]) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.basePath, err)
	}
	var ret []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			log.Warn().Err(err).Str("url", object.URL()).Msg("dao_fs_read_failed")
			continue
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			log.Warn().Err(err).Str("url", object.URL()).Msg("dao_fs_decode_failed")
			continue
		}
		if dao.Matches(&v, filters...) {
			ret = append(ret, &v)
		}
	}
	return ret, nil
}

func (s *Store[T]) entityPath(key string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", sanitize(key)))
}

func sanitize(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
}

// New creates a file store rooted at basePath.
func New[T any](ctx context.Context, basePath string, keySelector func(*T) string) (*Store[T], error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if keySelector == nil {
		return nil, fmt.Errorf("key selector was nil")
	}
	fs := afs.New()
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Store[T]{
		basePath:    url.Normalize(basePath, file.Scheme),
		fs:          fs,
		keySelector: keySelector,
	}, nil
}
