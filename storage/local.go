package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yeremiapane/restaurant-booking/utils"
)

// LocalStore writes images under Dir and serves them from BaseURL, which the
// router maps to the same directory.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, menuImagePrefix), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: baseURL}, nil
}

func (s *LocalStore) Save(ctx context.Context, filename string, body io.Reader) (string, error) {
	key, _, err := objectKey(filename)
	if err != nil {
		return "", err
	}
	if err := s.write(key, body); err != nil {
		return "", err
	}
	utils.InfoLogger.Printf("Stored image %s", key)
	return joinURL(s.BaseURL, key), nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(s.BaseURL, url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStore) Copy(ctx context.Context, url string) (string, error) {
	key, ok := keyFromURL(s.BaseURL, url)
	if !ok {
		return url, nil
	}
	src, err := os.Open(filepath.Join(s.Dir, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer src.Close()

	newKey, _, err := objectKey(key)
	if err != nil {
		return "", err
	}
	if err := s.write(newKey, src); err != nil {
		return "", err
	}
	return joinURL(s.BaseURL, newKey), nil
}

func (s *LocalStore) write(key string, body io.Reader) error {
	dst := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
