package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subvault/pkg/pda"
)

const testSecret = "test-secret"

func newKeypair(t *testing.T) (pda.Address, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	var wallet pda.Address
	copy(wallet[:], pub)
	return wallet, priv
}

func TestChallengeLogin_RoundTrip(t *testing.T) {
	svc := NewService(testSecret)
	wallet, priv := newKeypair(t)

	nonce, err := svc.Challenge(wallet)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(nonce, "subvault:login:"))

	token, err := svc.Login(wallet, ed25519.Sign(priv, []byte(nonce)))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(tk *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, wallet.String(), sub)
}

func TestChallenge_ReplacesPendingNonce(t *testing.T) {
	svc := NewService(testSecret)
	wallet, priv := newKeypair(t)

	first, err := svc.Challenge(wallet)
	require.NoError(t, err)
	second, err := svc.Challenge(wallet)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// the earlier nonce no longer counts
	_, err = svc.Login(wallet, ed25519.Sign(priv, []byte(first)))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestLogin_NoPendingChallenge(t *testing.T) {
	svc := NewService(testSecret)
	wallet, priv := newKeypair(t)

	_, err := svc.Login(wallet, ed25519.Sign(priv, []byte("anything")))
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestLogin_WrongKeyRejected(t *testing.T) {
	svc := NewService(testSecret)
	wallet, _ := newKeypair(t)
	_, otherPriv := newKeypair(t)

	nonce, err := svc.Challenge(wallet)
	require.NoError(t, err)

	_, err = svc.Login(wallet, ed25519.Sign(otherPriv, []byte(nonce)))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestLogin_ChallengeIsSingleUse(t *testing.T) {
	svc := NewService(testSecret)
	wallet, priv := newKeypair(t)

	nonce, err := svc.Challenge(wallet)
	require.NoError(t, err)
	sig := ed25519.Sign(priv, []byte(nonce))

	_, err = svc.Login(wallet, sig)
	require.NoError(t, err)

	_, err = svc.Login(wallet, sig)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}
