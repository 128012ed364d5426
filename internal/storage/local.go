package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

// Signer issues and checks path-scoped download tokens.
type Signer interface {
	SignPath(path string, ttl time.Duration) (string, error)
	VerifyPath(token, path string) error
}

// Local is a private object bucket on the local filesystem. Objects are only
// reachable through signed URLs under {publicURL}/files/.
type Local struct {
	root      string
	bucket    string
	publicURL string
	signer    Signer
	ttl       time.Duration
}

func NewLocal(dir, bucket, publicURL string, signer Signer, ttl time.Duration) (*Local, error) {
	if bucket == "" {
		bucket = "medical-images"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	root := filepath.Join(dir, bucket)
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return &Local{
		root:      root,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		signer:    signer,
		ttl:       ttl,
	}, nil
}

// Put writes data under key and returns the bucket-qualified object path.
func (l *Local) Put(key string, data []byte) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(l.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return l.bucket + "/" + clean, nil
}

// SignedURL returns a time-limited download URL for an object path.
func (l *Local) SignedURL(objectPath string) (string, error) {
	token, err := l.signer.SignPath(objectPath, l.ttl)
	if err != nil {
		return "", err
	}
	escaped := (&url.URL{Path: objectPath}).EscapedPath()
	return fmt.Sprintf("%s/files/%s?token=%s", l.publicURL, escaped, url.QueryEscape(token)), nil
}

// Open verifies token for objectPath and returns the object's contents.
func (l *Local) Open(objectPath, token string) ([]byte, error) {
	if err := l.signer.VerifyPath(token, objectPath); err != nil {
		return nil, err
	}
	key, ok := strings.CutPrefix(objectPath, l.bucket+"/")
	if !ok {
		return nil, ErrNotFound
	}
	clean, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", ErrInvalidPath
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "/") || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidPath
	}
	return clean, nil
}
