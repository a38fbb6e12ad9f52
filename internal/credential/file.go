package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// FileStore keeps the token in a single XChaCha20-Poly1305 sealed file.
// The sealing key is derived with HKDF-SHA256 from a configured secret, so
// the file is useless without it. Writes replace the file atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
	aad  []byte
	key  []byte
}

// NewFileStore derives the sealing key for the service/account pair. The
// parent directory is created on first Save.
func NewFileStore(path, secret, service, account string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("credential file path is required")
	}
	if secret == "" {
		return nil, errors.New("credential secret is required")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(service), []byte(account))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive credential key: %w", err)
	}
	return &FileStore{
		path: path,
		aad:  []byte(service + "/" + account),
		key:  key,
	}, nil
}

func (s *FileStore) Save(_ context.Context, token string) error {
	if token == "" {
		return errEmptyToken
	}
	sealed, err := s.seal([]byte(token))
	if err != nil {
		return fmt.Errorf("%w: seal: %v", ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: create dir: %v", ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("%w: temp file: %v", ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: chmod: %v", ErrPersistence, err)
	}
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %v", ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replace: %v", ErrPersistence, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context) (string, bool) {
	s.mu.Lock()
	blob, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		return "", false
	}
	plain, err := s.open(blob)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove: %v", ErrPersistence, err)
	}
	return nil
}

func (s *FileStore) seal(plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, s.aad), nil
}

func (s *FileStore) open(blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(blob) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ct := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	return aead.Open(nil, nonce, ct, s.aad)
}
