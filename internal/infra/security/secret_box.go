package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	EncryptedPrefix = "enc:v1:"
	LegacyPrefix    = "plain:"

	nonceSize = 12
	tagSize   = 16
)

var (
	ErrUnmarkedSecret  = errors.New("segredo sem marcador enc:v1: ou plain:")
	ErrNoEncryptionKey = errors.New("ENCRYPTION_KEY não configurada")
	ErrDecryptFailed   = errors.New("falha ao decifrar segredo")
)

// SecretBox decifra os segredos guardados em crm_settings.
//
//	enc:v1:<base64(nonce|tag|ciphertext)>  AES-256-GCM
//	plain:<valor>                          legado explícito, ainda não migrado
//
// Qualquer outra coisa é erro de configuração; falha de decifragem nunca vira texto puro.
type SecretBox struct {
	aead cipher.AEAD
}

func NewSecretBox(keyB64 string) (*SecretBox, error) {
	keyB64 = strings.TrimSpace(keyB64)
	if keyB64 == "" {
		return &SecretBox{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY inválida: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY deve ter 32 bytes, tem %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecretBox{aead: aead}, nil
}

// Open devolve o valor em claro e se ele veio do formato legado.
func (b *SecretBox) Open(stored string) (plain string, legacy bool, err error) {
	switch {
	case strings.HasPrefix(stored, EncryptedPrefix):
		plain, err = b.decrypt(strings.TrimPrefix(stored, EncryptedPrefix))
		return plain, false, err
	case strings.HasPrefix(stored, LegacyPrefix):
		return strings.TrimPrefix(stored, LegacyPrefix), true, nil
	default:
		return "", false, ErrUnmarkedSecret
	}
}

func (b *SecretBox) seal(plain string) (string, error) {
	if b.aead == nil {
		return "", ErrNoEncryptionKey
	}
	if plain == "" {
		return "", errors.New("não é possível cifrar segredo vazio")
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := b.aead.Seal(nil, nonce, []byte(plain), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	combined := make([]byte, 0, nonceSize+len(sealed))
	combined = append(combined, nonce...)
	combined = append(combined, tag...)
	combined = append(combined, ct...)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(combined), nil
}

func (b *SecretBox) decrypt(encoded string) (string, error) {
	if b.aead == nil {
		return "", ErrNoEncryptionKey
	}
	combined, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", ErrDecryptFailed, err)
	}
	if len(combined) < nonceSize+tagSize {
		return "", fmt.Errorf("%w: payload curto", ErrDecryptFailed)
	}
	nonce := combined[:nonceSize]
	tag := combined[nonceSize : nonceSize+tagSize]
	ct := combined[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return string(plain), nil
}
