package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subvault/internal/ledger"
	planrepo "subvault/internal/plan/repository"
	"subvault/internal/subscription"
	subrepo "subvault/internal/subscription/repository"
	"subvault/internal/subscription/service"
	"subvault/pkg/middleware"
	"subvault/pkg/pda"
)

const testSol = uint64(1_000_000_000)

var testProgramID = pda.MustAddress("8hSScVud3dY7iV2r4aGDFBduXAZh5j31X3P8GnCaznZd")

type fixture struct {
	router  chi.Router
	led     ledger.Ledger
	plans   *planrepo.PlanRepository
	now     *int64
	creator pda.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := int64(1_700_000_000)
	f := &fixture{now: &now}
	f.led = ledger.NewMemoryWithClock(func() int64 { return *f.now })
	f.plans = planrepo.NewPlanRepository(f.led, testProgramID)

	subs := subrepo.NewSubscriptionRepository(f.led, testProgramID)
	svc := service.NewService(subs, f.plans, f.led)
	h := NewSubscriptionHandler(svc, testProgramID)

	f.router = chi.NewRouter()
	f.router.Post("/api/subscriptions", h.Subscribe)
	f.router.Get("/api/subscriptions/{address}", h.Check)
	f.router.Get("/api/address/subscription", h.DeriveAddress)

	f.creator = f.newWallet(t, 10*testSol)
	_, err := f.plans.Create(context.Background(), f.creator, 1, "Premium", 2*testSol, 30)
	require.NoError(t, err)

	return f
}

func (f *fixture) newWallet(t *testing.T, lamports uint64) pda.Address {
	t.Helper()
	var w pda.Address
	_, err := rand.Read(w[:])
	require.NoError(t, err)
	if lamports > 0 {
		require.NoError(t, f.led.Airdrop(context.Background(), w, lamports))
	}
	return w
}

// subscribe posts as the given wallet and returns the recorder.
func (f *fixture) subscribe(t *testing.T, wallet pda.Address, creator pda.Address, planID uint64) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"creator": creator.String(),
		"plan_id": planID,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.WalletKey, wallet))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSubscribe_CreatedThenConflict(t *testing.T) {
	f := newFixture(t)
	subscriber := f.newWallet(t, 5*testSol)

	rec := f.subscribe(t, subscriber, f.creator, 1)
	require.Equal(t, http.StatusCreated, rec.Code)

	var sub subscription.Subscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, subscriber, sub.Subscriber)
	assert.Equal(t, *f.now+30*subscription.SecondsPerDay, sub.ExpiresAt)

	rec = f.subscribe(t, subscriber, f.creator, 1)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubscribe_PlanNotFound(t *testing.T) {
	f := newFixture(t)
	subscriber := f.newWallet(t, 5*testSol)

	rec := f.subscribe(t, subscriber, f.creator, 404)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribe_OwnPlanForbidden(t *testing.T) {
	f := newFixture(t)

	rec := f.subscribe(t, f.creator, f.creator, 1)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubscribe_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	broke := f.newWallet(t, 100)

	rec := f.subscribe(t, broke, f.creator, 1)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestSubscribe_BadRequestBodies(t *testing.T) {
	f := newFixture(t)
	subscriber := f.newWallet(t, 5*testSol)

	for _, body := range []string{
		`{not json`,
		`{"plan_id": 1}`,
		`{"creator": "!!!not-base58!!!", "plan_id": 1}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", bytes.NewReader([]byte(body)))
		req = req.WithContext(context.WithValue(req.Context(), middleware.WalletKey, subscriber))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestCheck_ActiveThenGone(t *testing.T) {
	f := newFixture(t)
	subscriber := f.newWallet(t, 5*testSol)

	rec := f.subscribe(t, subscriber, f.creator, 1)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sub subscription.Subscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/"+sub.Address.String(), nil)
		out := httptest.NewRecorder()
		f.router.ServeHTTP(out, req)
		return out
	}

	out := get()
	require.Equal(t, http.StatusOK, out.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &status))
	assert.Equal(t, true, status["active"])

	*f.now = sub.ExpiresAt // boundary instant already counts as expired
	out = get()
	require.Equal(t, http.StatusGone, out.Code)
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &status))
	assert.Equal(t, false, status["active"])
	assert.EqualValues(t, sub.ExpiresAt, status["expires_at"])
}

func TestCheck_UnknownAddress(t *testing.T) {
	f := newFixture(t)
	ghost := f.newWallet(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/"+ghost.String(), nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeriveAddress(t *testing.T) {
	f := newFixture(t)
	subscriber := f.newWallet(t, 0)

	url := fmt.Sprintf("/api/address/subscription?subscriber=%s&creator=%s&plan_id=1",
		subscriber.String(), f.creator.String())
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Address string `json:"address"`
		Bump    uint8  `json:"bump"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	want, bump, err := subscription.DeriveAddress(testProgramID, subscriber, f.creator, 1)
	require.NoError(t, err)
	assert.Equal(t, want.String(), resp.Address)
	assert.Equal(t, bump, resp.Bump)

	bad := httptest.NewRequest(http.MethodGet, "/api/address/subscription?subscriber=x&creator=y&plan_id=z", nil)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
