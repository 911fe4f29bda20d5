package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/redis/go-redis/v9"
)

// Wallet-proof login: the server hands out a one-time nonce, the wallet
// signs it with the account's ed25519 key, and the server checks the
// signature against the public key embedded in the address. No password,
// no user table.

const (
	// nonceTTL bounds how long a challenge stays redeemable.
	nonceTTL = 5 * time.Minute

	challengePrefix = "dynaqr-login:"
)

// NonceStore holds issued challenges until they are redeemed or expire.
// Every nonce is single-use.
type NonceStore interface {
	Save(ctx context.Context, address, nonce string, ttl time.Duration) error
	// Take returns the stored nonce for the address and deletes it.
	Take(ctx context.Context, address string) (string, error)
}

// RedisNonceStore keeps challenges in redis so login survives an API
// restart and works across replicas.
type RedisNonceStore struct {
	client *redis.Client
}

func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

func nonceKey(address string) string { return "auth:nonce:" + address }

func (s *RedisNonceStore) Save(ctx context.Context, address, nonce string, ttl time.Duration) error {
	return s.client.Set(ctx, nonceKey(address), nonce, ttl).Err()
}

func (s *RedisNonceStore) Take(ctx context.Context, address string) (string, error) {
	nonce, err := s.client.GetDel(ctx, nonceKey(address)).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("no pending challenge for %s", address)
	}
	return nonce, err
}

// MemoryNonceStore is the single-process fallback used in tests and when
// redis is disabled.
type MemoryNonceStore struct {
	mu      sync.Mutex
	entries map[string]memoryNonce
}

type memoryNonce struct {
	nonce   string
	expires time.Time
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{entries: make(map[string]memoryNonce)}
}

func (s *MemoryNonceStore) Save(_ context.Context, address, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[address] = memoryNonce{nonce: nonce, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryNonceStore) Take(_ context.Context, address string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[address]
	delete(s.entries, address)
	if !ok || time.Now().After(entry.expires) {
		return "", fmt.Errorf("no pending challenge for %s", address)
	}
	return entry.nonce, nil
}

// Challenger issues and verifies wallet-proof challenges.
type Challenger struct {
	store NonceStore
}

func NewChallenger(store NonceStore) *Challenger {
	return &Challenger{store: store}
}

// Challenge creates a fresh nonce for the address. The wallet must sign
// the returned message byte-for-byte.
func (c *Challenger) Challenge(ctx context.Context, address string) (string, error) {
	if _, err := types.DecodeAddress(address); err != nil {
		return "", fmt.Errorf("invalid address: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(raw)

	if err := c.store.Save(ctx, address, nonce, nonceTTL); err != nil {
		return "", err
	}
	return challengePrefix + nonce, nil
}

// Verify checks the base64 signature over the challenge message. The
// address itself is the public key: an Algorand address is the ed25519
// key plus a checksum, so no extra key registry is needed.
func (c *Challenger) Verify(ctx context.Context, address, signatureB64 string) error {
	addr, err := types.DecodeAddress(address)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	nonce, err := c.store.Take(ctx, address)
	if err != nil {
		return err
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}

	message := []byte(challengePrefix + nonce)
	if !ed25519.Verify(addr[:], message, sig) {
		return fmt.Errorf("signature does not match address %s", address)
	}
	return nil
}
