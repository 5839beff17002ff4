package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"subvault/pkg/pda"
)

var (
	ErrChallengeNotFound = errors.New("no pending challenge for this wallet")
	ErrInvalidSignature  = errors.New("signature does not verify against wallet key")
)

const challengeTTL = 5 * time.Minute

type challenge struct {
	nonce     string
	expiresAt time.Time
}

// Service authenticates wallets: a one-time nonce is handed out, the caller
// signs it with the ed25519 key that is their on-ledger identity, and a JWT
// comes back. No passwords exist anywhere in the system.
type Service struct {
	mu         sync.Mutex
	challenges map[pda.Address]challenge
	jwt        *JWTManager
}

func NewService(jwtSecret string) *Service {
	return &Service{
		challenges: make(map[pda.Address]challenge),
		jwt:        NewJWTManager(jwtSecret),
	}
}

// Challenge issues a fresh nonce for the wallet, replacing any pending one.
func (s *Service) Challenge(wallet pda.Address) (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	nonce := "subvault:login:" + base58.Encode(raw[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.challenges[wallet] = challenge{
		nonce:     nonce,
		expiresAt: time.Now().Add(challengeTTL),
	}
	return nonce, nil
}

// Login verifies the signed nonce and returns a JWT whose subject is the
// wallet address. Challenges are single-use.
func (s *Service) Login(wallet pda.Address, signature []byte) (string, error) {
	s.mu.Lock()
	ch, ok := s.challenges[wallet]
	delete(s.challenges, wallet)
	s.mu.Unlock()

	if !ok || time.Now().After(ch.expiresAt) {
		return "", ErrChallengeNotFound
	}
	if !ed25519.Verify(ed25519.PublicKey(wallet[:]), []byte(ch.nonce), signature) {
		return "", ErrInvalidSignature
	}
	return s.jwt.Generate(wallet)
}

// prune drops expired challenges. Caller holds the lock.
func (s *Service) prune() {
	now := time.Now()
	for wallet, ch := range s.challenges {
		if now.After(ch.expiresAt) {
			delete(s.challenges, wallet)
		}
	}
}
