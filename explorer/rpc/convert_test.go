package rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/address"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/shopspring/decimal"
	"github.com/zeebo/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{badRequest("nope"), http.StatusBadRequest},
		{fmt.Errorf("resolve: %w", address.ErrInvalidAddressFormat), http.StatusBadRequest},
		{fmt.Errorf("validator: %w", lcd.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("tx: %w", lcd.ErrMalformedResponse), http.StatusBadGateway},
		{fmt.Errorf("pool: %w", lcd.ErrUnexpectedStatus), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errEVMDisabled, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, statusFor(tt.err), tt.want)
	}
}

func TestUptime(t *testing.T) {
	assert.Equal(t, uptime(100, 10000).String(), "99")
	assert.Equal(t, uptime(0, 10000).String(), "100")
	assert.Equal(t, uptime(20000, 10000).String(), "0")
	assert.Equal(t, uptime(5, 0).String(), "0")
}

func TestVotingPowerShare(t *testing.T) {
	assert.Equal(t, votingPowerShare(decimal.NewFromInt(1), decimal.NewFromInt(3)).String(), "33.33")
	assert.Equal(t, votingPowerShare(decimal.NewFromInt(1), decimal.Zero).String(), "0")
}

func TestProposerAddress(t *testing.T) {
	cons, err := proposerAddress("Zmh6rfhivXdsj8GLjp+OIAiXFIU=", "kiivalcons")
	assert.NoError(t, err)
	assert.Equal(t, cons, "kiivalcons1ve584t0cv27hwmy0cx9ca8uwyqyfw9y9xk4sfz")

	_, err = proposerAddress("%%%", "kiivalcons")
	assert.Error(t, err)
}

func TestBase64ToHex(t *testing.T) {
	assert.Equal(t, base64ToHex("3q2+7w=="), "DEADBEEF")
	assert.Equal(t, base64ToHex("not base64!"), "not base64!")
}

func TestMessageActions(t *testing.T) {
	events := []lcd.Event{
		{Type: "message", Attributes: []lcd.EventAttribute{{Key: "action", Value: "/a"}}},
		{Type: "transfer", Attributes: []lcd.EventAttribute{{Key: "action", Value: "/ignored"}}},
		{Type: "message", Attributes: []lcd.EventAttribute{{Key: "action", Value: "/b"}}},
		{Type: "message", Attributes: []lcd.EventAttribute{{Key: "action", Value: "/a"}}},
	}
	assert.DeepEqual(t, messageActions(events), []string{"/a", "/b"})
	assert.DeepEqual(t, messageActions(nil), []string{})
}

func TestMessageTypes(t *testing.T) {
	got := messageTypes([][]byte{
		[]byte(`{"@type":"/cosmos.gov.v1.MsgExecLegacyContent","authority":"x"}`),
		[]byte(`{}`),
	})
	assert.DeepEqual(t, got, []string{"/cosmos.gov.v1.MsgExecLegacyContent", ""})
}

func TestStatusFilters(t *testing.T) {
	s, err := proposalStatus("Voting")
	assert.NoError(t, err)
	assert.Equal(t, s, lcd.ProposalStatusVotingPeriod)
	_, err = proposalStatus("open")
	assert.Error(t, err)

	s, err = validatorStatus("")
	assert.NoError(t, err)
	assert.Equal(t, s, "")
	s, err = validatorStatus("unbonding")
	assert.NoError(t, err)
	assert.Equal(t, s, lcd.StatusUnbonding)
}

func TestRealIPMiddleware(t *testing.T) {
	var seen string
	h := realIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, seen, "203.0.113.7")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, seen, "198.51.100.2")
}

func TestRecovererAnswersJSON(t *testing.T) {
	h := zerologRecoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, rec.Code, http.StatusInternalServerError)
	assert.Equal(t, rec.Header().Get("Content-Type"), "application/json")
}
