package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256 key length

	envelopeVersion = 1
)

// ErrWrongPassphrase is returned when an envelope cannot be opened
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted data")

// Envelope is a passphrase-sealed blob
type Envelope struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

// Params tunes the scrypt cost. Tests lower N.
type Params struct {
	N, R, P int
}

// DefaultParams are used by Seal
var DefaultParams = Params{N: ScryptN, R: ScryptR, P: ScryptP}

// Seal encrypts plaintext with a key derived from passphrase
func Seal(passphrase string, plaintext []byte) (*Envelope, error) {
	return SealWithParams(passphrase, plaintext, DefaultParams)
}

// SealWithParams is Seal with explicit scrypt parameters
func SealWithParams(passphrase string, plaintext []byte, params Params) (*Envelope, error) {
	// Generate random salt
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(passphrase, salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	nonce := make([]byte, 12)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Version: envelopeVersion,
		Salt:    salt,
		Nonce:   nonce,
		Data:    aesGCM.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Open decrypts an envelope
func (e *Envelope) Open(passphrase string) ([]byte, error) {
	return e.OpenWithParams(passphrase, DefaultParams)
}

// OpenWithParams is Open with explicit scrypt parameters
func (e *Envelope) OpenWithParams(passphrase string, params Params) ([]byte, error) {
	if e.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", e.Version)
	}

	key, err := deriveKey(passphrase, e.Salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, e.Nonce, e.Data, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

// Marshal encodes the envelope as JSON
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnvelope decodes a JSON envelope
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return &e, nil
}

func deriveKey(passphrase string, salt []byte, params Params) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
