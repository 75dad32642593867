// Package keyring provides secure storage for provider credentials.
// It uses the system keyring when available, falling back to an
// encrypted file in the config directory when not.
package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yllada/ipcountry-tray/common"
	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = common.ConfigDirName

	probeKey = "ipcountry-tray-probe"
	keyInfo  = "secrets-file"
)

// Backend names reported by Store.Backend.
const (
	BackendSystem = "system keyring"
	BackendFile   = "encrypted file"
)

// Store keeps named secrets. It implements common.SecretStore.
type Store struct {
	mu       sync.RWMutex
	useLocal bool
	file     string
	key      []byte
	local    map[string]string
}

// Open returns a Store whose fallback file lives in the default config
// directory.
func Open() (*Store, error) {
	dir, err := common.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return New(dir), nil
}

// New probes the system keyring and prepares the fallback file under dir.
func New(dir string) *Store {
	s := &Store{
		file:  filepath.Join(dir, common.SecretsFileName),
		key:   deriveKey(),
		local: make(map[string]string),
	}

	if err := keyring.Set(serviceName, probeKey, "probe"); err != nil {
		common.LogInfo("System keyring unavailable, using %s: %v", s.file, err)
		s.useLocal = true
	} else {
		_ = keyring.Delete(serviceName, probeKey)
	}

	s.loadLocal()
	return s
}

// Backend reports where new secrets are written.
func (s *Store) Backend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.useLocal {
		return BackendFile
	}
	return BackendSystem
}

// Set saves a secret.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return errors.New("secret key cannot be empty")
	}
	if value == "" {
		return errors.New("secret value cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.useLocal {
		err := keyring.Set(serviceName, key, value)
		if err == nil {
			return nil
		}
		common.LogWarn("System keyring write failed, switching to %s: %v", s.file, err)
		s.useLocal = true
	}

	s.local[key] = value
	return s.saveLocal()
}

// Get retrieves a secret. A missing secret returns common.ErrSecretNotFound.
func (s *Store) Get(key string) (string, error) {
	if key == "" {
		return "", errors.New("secret key cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.useLocal {
		value, err := keyring.Get(serviceName, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			common.LogDebug("System keyring read failed: %v", err)
		}
	}

	// Secrets written while the keyring was unavailable live in the file.
	value, ok := s.local[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", common.ErrSecretNotFound, key)
	}
	return value, nil
}

// Delete removes a secret from both backends. Deleting a missing secret
// is not an error.
func (s *Store) Delete(key string) error {
	if key == "" {
		return errors.New("secret key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.useLocal {
		if err := keyring.Delete(serviceName, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			common.LogWarn("System keyring delete failed: %v", err)
		}
	}

	if _, ok := s.local[key]; !ok {
		return nil
	}
	delete(s.local, key)
	return s.saveLocal()
}

// Exists checks if a secret is stored under key.
func (s *Store) Exists(key string) bool {
	_, err := s.Get(key)
	return err == nil
}

func (s *Store) loadLocal() {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return
	}

	plaintext, err := decrypt(s.key, data)
	if err != nil {
		common.LogWarn("Ignoring unreadable secrets file %s: %v", s.file, err)
		return
	}

	if err := json.Unmarshal(plaintext, &s.local); err != nil {
		common.LogWarn("Ignoring corrupt secrets file %s: %v", s.file, err)
	}
}

// saveLocal must be called with s.mu held.
func (s *Store) saveLocal() error {
	data, err := json.Marshal(s.local)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrSecretStorage, err)
	}

	encrypted, err := encrypt(s.key, data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.file), 0700); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSecretStorage, err)
	}
	if err := os.WriteFile(s.file, encrypted, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSecretStorage, err)
	}
	return nil
}

// deriveKey binds the fallback file to this machine and user.
func deriveKey() []byte {
	hostname, _ := os.Hostname()
	secret := fmt.Sprintf("%s-%s-%d", hostname, machineID(), os.Getuid())

	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), []byte(common.AppID), []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		panic(err)
	}
	return key
}

func machineID() string {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return "default-machine-id"
}

func encrypt(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	ciphertext := aead.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func decrypt(key, data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrDecryption)
	}

	nonce, ciphertext := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}
