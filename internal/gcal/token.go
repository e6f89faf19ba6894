package gcal

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/oauth2"

	"github.com/quantumlife/lifedesk/internal/core"
)

// TokenFile is the token's file name inside the data directory.
const TokenFile = "google_token.json"

// Argon2id parameters for deriving the sealing key.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	keySize      = chacha20poly1305.KeySize
	saltSize     = 32
)

// SealedToken is an OAuth token encrypted with a passphrase.
type SealedToken struct {
	Ciphertext string `json:"ciphertext"` // Base64 nonce||ciphertext
	Salt       string `json:"salt"`       // Base64 encoded
	Algorithm  string `json:"algorithm"`  // "argon2id+xchacha20poly1305"
}

// SealToken encrypts token with a key derived from passphrase.
func SealToken(token *oauth2.Token, passphrase string) (*SealedToken, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase is required", core.ErrMissingRequired)
	}

	plain, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &SealedToken{
		Ciphertext: base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, plain, nil)),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Algorithm:  "argon2id+xchacha20poly1305",
	}, nil
}

// Open decrypts the token. A wrong passphrase yields core.ErrDecryptionFailed.
func (st *SealedToken) Open(passphrase string) (*oauth2.Token, error) {
	salt, err := base64.StdEncoding.DecodeString(st.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(st.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", core.ErrDecryptionFailed)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w (wrong passphrase?)", core.ErrDecryptionFailed)
	}

	var token oauth2.Token
	if err := json.Unmarshal(plain, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, keySize)
}

// SaveToken seals token and writes it to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token, passphrase string) error {
	sealed, err := SealToken(token, passphrase)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sealed, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// LoadToken reads and opens a sealed token. A missing file yields
// core.ErrNotConfigured.
func LoadToken(path, passphrase string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no Google token, run the import once interactively", core.ErrNotConfigured)
	}
	if err != nil {
		return nil, err
	}

	var sealed SealedToken
	if err := json.Unmarshal(data, &sealed); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return sealed.Open(passphrase)
}
