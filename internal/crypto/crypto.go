// Package crypto defines the encryption collaborator applied to records
// before they reach the remote store. The engine operates on decrypted
// records only; concrete ciphers live with the hosting application.
package crypto

import "context"

// Encryptor encrypts a record's serialized form before storage and
// decrypts it after reads.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// Passthrough is the no-op Encryptor used when encryption at rest is
// handled outside the application (or disabled).
type Passthrough struct{}

// Encrypt returns the plaintext unchanged.
func (Passthrough) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	return plaintext, nil
}

// Decrypt returns the ciphertext unchanged.
func (Passthrough) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	return ciphertext, nil
}
