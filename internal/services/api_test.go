package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkapad/staking-ledger/internal/db/model"
	"github.com/polkapad/staking-ledger/internal/types"
)

func doRequest(t *testing.T, handler http.Handler, method, path string, caller *types.ActorID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != nil {
		req.Header.Set(ActorIDHeader, caller.String())
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code types.ErrorCode) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decodeResponse[ErrorResponse](t, rec)
	assert.Equal(t, code.String(), resp.ErrorCode)
	assert.NotEmpty(t, resp.Message)
}

func TestAPI_StakeAndWithdraw(t *testing.T) {
	svc := newTestService(t, nil, nil)
	router := svc.Router()

	rec := doRequest(t, router, http.MethodPost, "/v1/token/approve", &deployer,
		`{"spender":"`+programID.String()+`","amount":"500"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approval := decodeResponse[TokenEventResponse](t, rec)
	assert.Equal(t, "approval", approval.Kind)
	assert.Equal(t, programID, approval.To)

	rec = doRequest(t, router, http.MethodPost, "/v1/staking/stake", &deployer, `{"amount":"200"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	event := decodeResponse[StakingEventResponse](t, rec)
	assert.Equal(t, "staked", event.Kind)
	assert.Equal(t, "200", event.Amount.String())
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))

	rec = doRequest(t, router, http.MethodPost, "/v1/staking/withdraw", &deployer, `{"amount":"50"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	event = decodeResponse[StakingEventResponse](t, rec)
	assert.Equal(t, "withdrawed", event.Kind)
	assert.Equal(t, "50", event.Amount.String())

	rec = doRequest(t, router, http.MethodGet, "/v1/staking/stakers/"+deployer.String(), &alice, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	event = decodeResponse[StakingEventResponse](t, rec)
	assert.Equal(t, "staked", event.Kind)
	assert.Equal(t, "150", event.Amount.String())

	rec = doRequest(t, router, http.MethodGet, "/v1/staking/state/total-staked", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decodeResponse[StateResponse](t, rec)
	require.NotNil(t, state.Amount)
	assert.Equal(t, "150", state.Amount.String())
	assert.Nil(t, state.Account)

	rec = doRequest(t, router, http.MethodGet, "/v1/token/balances/"+programID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	balance := decodeResponse[BalanceResponse](t, rec)
	assert.Equal(t, "150", balance.Balance.String())
}

func TestAPI_Errors(t *testing.T) {
	svc := newTestService(t, nil, nil)
	router := svc.Router()

	tests := []struct {
		name   string
		method string
		path   string
		caller *types.ActorID
		body   string
		status int
		code   types.ErrorCode
	}{
		{"missing caller", http.MethodPost, "/v1/staking/stake", nil, `{"amount":"1"}`, http.StatusBadRequest, types.ValidationError},
		{"malformed body", http.MethodPost, "/v1/staking/stake", &alice, `{"amount":1`, http.StatusBadRequest, types.ValidationError},
		{"unknown field", http.MethodPost, "/v1/staking/stake", &alice, `{"value":"1"}`, http.StatusBadRequest, types.ValidationError},
		{"zero stake", http.MethodPost, "/v1/staking/stake", &alice, `{"amount":"0"}`, http.StatusBadRequest, types.InvalidAmount},
		{"unknown staker", http.MethodPost, "/v1/staking/withdraw", &alice, `{"amount":"1"}`, http.StatusNotFound, types.UnknownStaker},
		{"invalid account", http.MethodGet, "/v1/staking/state/stake-of/0x12", nil, "", http.StatusBadRequest, types.ValidationError},
		{
			"configuration by non-owner", http.MethodPut, "/v1/staking/configuration", &alice,
			`{"token_address":"` + alice.String() + `"}`, http.StatusForbidden, types.Unauthorized,
		},
		{"events without db", http.MethodGet, "/v1/staking/events", nil, "", http.StatusNotImplemented, types.NotFound},
		{"invalid limit", http.MethodGet, "/v1/staking/events?limit=-1", nil, "", http.StatusBadRequest, types.ValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, tt.method, tt.path, tt.caller, tt.body)
			requireErrorCode(t, rec, tt.status, tt.code)
		})
	}
}

func TestAPI_State(t *testing.T) {
	svc := newTestService(t, nil, nil)
	router := svc.Router()
	approveAndStake(t, svc, 30)

	rec := doRequest(t, router, http.MethodGet, "/v1/staking/state/owner", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decodeResponse[StateResponse](t, rec)
	require.NotNil(t, state.Account)
	assert.Equal(t, deployer, *state.Account)

	rec = doRequest(t, router, http.MethodGet, "/v1/staking/state/token-address", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decodeResponse[StateResponse](t, rec)
	require.NotNil(t, state.Account)
	assert.Equal(t, tokenID, *state.Account)

	rec = doRequest(t, router, http.MethodGet, "/v1/staking/state/stake-of/"+deployer.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decodeResponse[StateResponse](t, rec)
	require.NotNil(t, state.Amount)
	assert.Equal(t, "30", state.Amount.String())

	rec = doRequest(t, router, http.MethodPut, "/v1/staking/configuration", &deployer,
		`{"token_address":"`+alice.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "configuration_update", decodeResponse[StakingEventResponse](t, rec).Kind)

	rec = doRequest(t, router, http.MethodGet, "/v1/staking/state/token-address", nil, "")
	state = decodeResponse[StateResponse](t, rec)
	require.NotNil(t, state.Account)
	assert.Equal(t, alice, *state.Account)
}

func TestAPI_Events(t *testing.T) {
	database := &fakeDb{}
	svc := newTestService(t, database, nil)
	router := svc.Router()
	approveAndStake(t, svc, 30)
	approveAndStake(t, svc, 20)

	rec := doRequest(t, router, http.MethodGet, "/v1/staking/events?account="+deployer.String()+"&limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	events := decodeResponse[[]model.StakingEventDocument](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(2), events[0].Seq)
	assert.Equal(t, "50", events[0].TotalStaked)

	rec = doRequest(t, router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	database.failWith = errUnavailable
	rec = doRequest(t, router, http.MethodGet, "/healthz", nil, "")
	requireErrorCode(t, rec, http.StatusServiceUnavailable, types.InternalServiceError)
}

func TestAPI_Token(t *testing.T) {
	svc := newTestService(t, nil, nil)
	router := svc.Router()

	rec := doRequest(t, router, http.MethodGet, "/v1/token/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var metadata map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metadata))
	assert.Equal(t, "STK", metadata["symbol"])
	assert.Equal(t, "1000", metadata["total_supply"])

	rec = doRequest(t, router, http.MethodPost, "/v1/token/transfer", &deployer,
		`{"from":"`+deployer.String()+`","to":"`+alice.String()+`","amount":"25"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "transfer", decodeResponse[TokenEventResponse](t, rec).Kind)

	rec = doRequest(t, router, http.MethodGet, "/v1/token/balances/"+alice.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "25", decodeResponse[BalanceResponse](t, rec).Balance.String())

	rec = doRequest(t, router, http.MethodPost, "/v1/token/transfer", &alice,
		`{"from":"`+deployer.String()+`","to":"`+alice.String()+`","amount":"25"}`)
	requireErrorCode(t, rec, http.StatusForbidden, types.Unauthorized)
}
