// Package crypto seals the private part of a connection request for servers
// that validate online players.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrNoSecret        = errors.New("crypto: empty session secret")
	ErrShortCiphertext = errors.New("crypto: ciphertext too short")
	ErrAuthFailed      = errors.New("crypto: message authentication failed")
)

const keyInfo = "kart-lobby connection request v1"

type ClientCrypto struct {
	aead cipher.AEAD
}

// New derives an AES-256 key from the online session secret. The online id
// salts the derivation so one secret never yields the same key for two
// accounts.
func New(secret []byte, onlineID uint32) (*ClientCrypto, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	salt := binary.BigEndian.AppendUint32(nil, onlineID)
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &ClientCrypto{aead: aead}, nil
}

// EncryptConnectionRequest returns nonce || ciphertext || tag.
func (c *ClientCrypto) EncryptConnectionRequest(plain []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}

// Decrypt opens a block produced by EncryptConnectionRequest with the same
// key.
func (c *ClientCrypto) Decrypt(sealed []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return nil, ErrShortCiphertext
	}
	plain, err := c.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plain, nil
}
