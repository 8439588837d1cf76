package sessionstore

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keyInfo = "snippet-bff session keys"

// DeriveKeys はセッション秘密鍵から Cookie の署名鍵（32バイト）と暗号化鍵（AES-256 用 32バイト）を導出します。
func DeriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	if secret == "" {
		return nil, nil, errors.New("session secret is empty")
	}
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	hashKey = make([]byte, 32)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(reader, hashKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive hash key: %w", err)
	}
	if _, err := io.ReadFull(reader, blockKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive block key: %w", err)
	}
	return hashKey, blockKey, nil
}
