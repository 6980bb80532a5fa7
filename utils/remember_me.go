// utils/remember_me.go
package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// RememberedSession is the encrypted session record stored in Redis
// for the "Remember Me" login option.
type RememberedSession struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GenerateRememberMeToken generates a secure opaque token.
func GenerateRememberMeToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func encryptionKey() ([]byte, error) {
	key := os.Getenv("REMEMBER_ME_ENCRYPTION_KEY")
	if key == "" {
		return nil, errors.New("REMEMBER_ME_ENCRYPTION_KEY is not set")
	}
	if len(key) < 32 {
		return nil, errors.New("REMEMBER_ME_ENCRYPTION_KEY must be at least 32 bytes")
	}
	return []byte(key)[:32], nil
}

// EncryptSession encrypts the session before storing in Redis
func EncryptSession(session RememberedSession) (string, error) {
	key, err := encryptionKey()
	if err != nil {
		return "", err
	}
	jsonData, err := json.Marshal(session)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nonce, nonce, jsonData, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptSession decrypts a session record from Redis
func DecryptSession(encryptedData string) (*RememberedSession, error) {
	key, err := encryptionKey()
	if err != nil {
		return nil, err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}

	var session RememberedSession
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// StoreRememberedSession stores an encrypted session in Redis with a TTL.
func StoreRememberedSession(redisClient *redis.Client, token string, session RememberedSession, expiration time.Duration) error {
	if redisClient == nil {
		return errors.New("redis client not available")
	}
	encryptedData, err := EncryptSession(session)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}
	key := fmt.Sprintf("remember_me:%s", token)
	if err := redisClient.Set(context.Background(), key, encryptedData, expiration).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}
	return nil
}

// RetrieveRememberedSession retrieves and decrypts a session from Redis.
func RetrieveRememberedSession(redisClient *redis.Client, token string) (*RememberedSession, error) {
	if redisClient == nil {
		return nil, errors.New("redis client not available")
	}
	ctx := context.Background()
	key := fmt.Sprintf("remember_me:%s", token)
	encryptedData, err := redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("remember me token not found or expired")
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	session, err := DecryptSession(encryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		redisClient.Del(ctx, key)
		return nil, errors.New("remember me token expired")
	}
	return session, nil
}

// RemoveRememberedSession removes the session from Redis on logout.
func RemoveRememberedSession(redisClient *redis.Client, token string) error {
	if redisClient == nil {
		return errors.New("redis client not available")
	}
	return redisClient.Del(context.Background(), fmt.Sprintf("remember_me:%s", token)).Err()
}
