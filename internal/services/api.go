package services

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/internal/actor"
	"github.com/polkapad/staking-ledger/internal/codec"
	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/observability/tracing"
	"github.com/polkapad/staking-ledger/internal/types"
)

// ActorIDHeader carries the identity of the account a request is sent from.
const ActorIDHeader = "X-Actor-Id"

type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type AmountRequest struct {
	Amount types.Amount `json:"amount"`
}

type ConfigurationRequest struct {
	TokenAddress types.ActorID `json:"token_address"`
}

type ApproveRequest struct {
	Spender types.ActorID `json:"spender"`
	Amount  types.Amount  `json:"amount"`
}

type TransferRequest struct {
	From   types.ActorID `json:"from"`
	To     types.ActorID `json:"to"`
	Amount types.Amount  `json:"amount"`
}

type StakingEventResponse struct {
	Kind   string       `json:"kind"`
	Amount types.Amount `json:"amount"`
}

type TokenEventResponse struct {
	Kind   string        `json:"kind"`
	From   types.ActorID `json:"from"`
	To     types.ActorID `json:"to"`
	Amount types.Amount  `json:"amount"`
}

type StateResponse struct {
	Account *types.ActorID `json:"account,omitempty"`
	Amount  *types.Amount  `json:"amount,omitempty"`
}

type BalanceResponse struct {
	Account types.ActorID `json:"account"`
	Balance types.Amount  `json:"balance"`
}

// Router returns the http handler of the staking API.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(traceRequest)
	r.Use(recordRequest)

	r.Get("/healthz", s.healthz)

	r.Route("/v1/staking", func(r chi.Router) {
		r.Post("/stake", s.handleStake)
		r.Post("/withdraw", s.handleWithdraw)
		r.Get("/stakers/{account}", s.handleStakeOf)
		r.Put("/configuration", s.handleUpdateConfiguration)
		r.Get("/state/owner", s.handleStateOwner)
		r.Get("/state/total-staked", s.handleStateTotalStaked)
		r.Get("/state/token-address", s.handleStateTokenAddress)
		r.Get("/state/stake-of/{account}", s.handleStateStakeOf)
		r.Get("/events", s.handleEvents)
	})

	r.Route("/v1/token", func(r chi.Router) {
		r.Get("/", s.handleTokenMetadata)
		r.Post("/approve", s.handleApprove)
		r.Post("/transfer", s.handleTransfer)
		r.Get("/balances/{account}", s.handleTokenBalance)
	})

	return r
}

// StartServer serves the API until ctx is done.
func (s *Service) StartServer(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Server.Address(),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		log.Ctx(ctx).Info().Str("address", server.Addr).Msg("Starting API server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.WriteTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func traceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.InjectTraceID(r.Context())
		w.Header().Set("X-Trace-Id", tracing.TraceIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		metrics.RecordAPIRequest(time.Since(startTime), r.Method, route, ww.Status())
	})
}

func (s *Service) healthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, r, types.NewError(http.StatusServiceUnavailable, types.InternalServiceError, err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleStake(w http.ResponseWriter, r *http.Request) {
	caller, req, err := parseAmountRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeStakingEvent(w, r, s.Stake(r.Context(), caller, req.Amount))
}

func (s *Service) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, req, err := parseAmountRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeStakingEvent(w, r, s.Withdraw(r.Context(), caller, req.Amount))
}

func (s *Service) handleStakeOf(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := actorIDParam(r, "account")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeStakingEvent(w, r, s.StakeOf(r.Context(), caller, account))
}

func (s *Service) handleUpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ConfigurationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeStakingEvent(w, r, s.UpdateConfiguration(r.Context(), caller, req.TokenAddress))
}

func (s *Service) handleStateOwner(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, r, codec.StakingStateQuery{Kind: codec.StateOwner})
}

func (s *Service) handleStateTotalStaked(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, r, codec.StakingStateQuery{Kind: codec.StateTotalStaked})
}

func (s *Service) handleStateTokenAddress(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, r, codec.StakingStateQuery{Kind: codec.StateTokenAddress})
}

func (s *Service) handleStateStakeOf(w http.ResponseWriter, r *http.Request) {
	account, err := actorIDParam(r, "account")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeState(w, r, codec.StakingStateQuery{Kind: codec.StateStakeOf, Account: account})
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account != "" {
		id, err := types.ParseActorID(account)
		if err != nil {
			writeError(w, r, types.NewValidationFailedError(err))
			return
		}
		account = id.String()
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(w, r, types.NewErrorWithMsg(http.StatusBadRequest, types.ValidationError, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := s.StakingEvents(r.Context(), account, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleTokenMetadata(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.TokenMetadata())
}

func (s *Service) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ApproveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTokenEvent(w, r, s.Approve(r.Context(), caller, req.Spender, req.Amount))
}

func (s *Service) handleTransfer(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req TransferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTokenEvent(w, r, s.TransferTokens(r.Context(), caller, req.From, req.To, req.Amount))
}

func (s *Service) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	account, err := actorIDParam(r, "account")
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := s.TokenBalance(s.tokenID, account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: balance})
}

func (s *Service) writeStakingEvent(w http.ResponseWriter, r *http.Request, res *actor.RunResult) {
	if res.Failed() {
		writeError(w, r, res.Err)
		return
	}
	event, err := codec.Decode[codec.StakingEvent](res.Reply)
	if err != nil {
		writeError(w, r, types.NewInternalServiceError(err))
		return
	}
	writeJSON(w, http.StatusOK, StakingEventResponse{Kind: event.Kind.String(), Amount: event.Amount})
}

func (s *Service) writeTokenEvent(w http.ResponseWriter, r *http.Request, res *actor.RunResult) {
	if res.Failed() {
		writeError(w, r, res.Err)
		return
	}
	event, err := codec.Decode[codec.FTEvent](res.Reply)
	if err != nil {
		writeError(w, r, types.NewInternalServiceError(err))
		return
	}
	writeJSON(w, http.StatusOK, TokenEventResponse{
		Kind:   event.Kind.String(),
		From:   event.From,
		To:     event.To,
		Amount: event.Amount,
	})
}

func (s *Service) writeState(w http.ResponseWriter, r *http.Request, query codec.StakingStateQuery) {
	reply, err := s.QueryState(query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var resp StateResponse
	switch reply.Kind {
	case codec.StateOwner, codec.StateTokenAddress:
		resp.Account = &reply.Account
	case codec.StateStakeOf:
		resp.Account = &reply.Account
		resp.Amount = &reply.Amount
	case codec.StateTotalStaked:
		resp.Amount = &reply.Amount
	}
	writeJSON(w, http.StatusOK, resp)
}

func callerFromRequest(r *http.Request) (types.ActorID, *types.Error) {
	header := r.Header.Get(ActorIDHeader)
	if header == "" {
		return types.ActorID{}, types.NewErrorWithMsg(
			http.StatusBadRequest,
			types.ValidationError,
			ActorIDHeader+" header is required",
		)
	}
	caller, err := types.ParseActorID(header)
	if err != nil {
		return types.ActorID{}, types.NewValidationFailedError(err)
	}
	return caller, nil
}

func actorIDParam(r *http.Request, name string) (types.ActorID, *types.Error) {
	id, err := types.ParseActorID(chi.URLParam(r, name))
	if err != nil {
		return types.ActorID{}, types.NewValidationFailedError(err)
	}
	return id, nil
}

func parseAmountRequest(r *http.Request) (types.ActorID, *AmountRequest, *types.Error) {
	caller, err := callerFromRequest(r)
	if err != nil {
		return types.ActorID{}, nil, err
	}
	var req AmountRequest
	if err := decodeBody(r, &req); err != nil {
		return types.ActorID{}, nil, err
	}
	return caller, &req, nil
}

func decodeBody(r *http.Request, v any) *types.Error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return types.NewValidationFailedError(err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err *types.Error) {
	if err.StatusCode >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("error_code", err.ErrorCode.String()).Msg("Request failed")
	}
	writeJSON(w, err.StatusCode, ErrorResponse{
		ErrorCode: err.ErrorCode.String(),
		Message:   err.Error(),
	})
}
