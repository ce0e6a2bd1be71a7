package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/polkapad/staking-ledger/internal/config"
	"github.com/polkapad/staking-ledger/internal/observability/metrics"
	"github.com/polkapad/staking-ledger/internal/services"
	"github.com/polkapad/staking-ledger/internal/types"
)

type StateQuery string

const (
	StateOwner        StateQuery = "owner"
	StateTotalStaked  StateQuery = "total-staked"
	StateTokenAddress StateQuery = "token-address"
	StateStakeOf      StateQuery = "stake-of"
)

// APIError is a non 2xx answer of the staking API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.ErrorCode, e.StatusCode, e.Message)
}

type Client struct {
	httpClient *http.Client
	cfg        *config.ClientConfig
	baseURL    string
}

var _ LedgerInterface = (*Client)(nil)

func NewClient(cfg *config.ClientConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
	}
}

func (c *Client) Stake(ctx context.Context, amount types.Amount) (*services.StakingEventResponse, error) {
	return post[services.StakingEventResponse](ctx, c, http.MethodPost, "/v1/staking/stake",
		services.AmountRequest{Amount: amount})
}

func (c *Client) Withdraw(ctx context.Context, amount types.Amount) (*services.StakingEventResponse, error) {
	return post[services.StakingEventResponse](ctx, c, http.MethodPost, "/v1/staking/withdraw",
		services.AmountRequest{Amount: amount})
}

// StakeOf goes through the staking program's inbox. State with StateStakeOf
// reads the same value without a caller.
func (c *Client) StakeOf(ctx context.Context, account types.ActorID) (*services.StakingEventResponse, error) {
	return get[services.StakingEventResponse](ctx, c, "/v1/staking/stakers/"+account.String(), "/v1/staking/stakers/{account}")
}

func (c *Client) UpdateConfiguration(ctx context.Context, tokenAddress types.ActorID) (*services.StakingEventResponse, error) {
	return post[services.StakingEventResponse](ctx, c, http.MethodPut, "/v1/staking/configuration",
		services.ConfigurationRequest{TokenAddress: tokenAddress})
}

// State reads the staking ledger. account is required by StateStakeOf only.
func (c *Client) State(ctx context.Context, query StateQuery, account *types.ActorID) (*services.StateResponse, error) {
	switch query {
	case StateOwner, StateTotalStaked, StateTokenAddress:
		path := "/v1/staking/state/" + string(query)
		return get[services.StateResponse](ctx, c, path, path)
	case StateStakeOf:
		if account == nil {
			return nil, errors.New("stake-of needs an account")
		}
		return get[services.StateResponse](ctx, c,
			"/v1/staking/state/stake-of/"+account.String(), "/v1/staking/state/stake-of/{account}")
	default:
		return nil, fmt.Errorf("unknown state query %q", query)
	}
}

func (c *Client) Approve(ctx context.Context, spender types.ActorID, amount types.Amount) (*services.TokenEventResponse, error) {
	return post[services.TokenEventResponse](ctx, c, http.MethodPost, "/v1/token/approve",
		services.ApproveRequest{Spender: spender, Amount: amount})
}

func (c *Client) TokenBalance(ctx context.Context, account types.ActorID) (*services.BalanceResponse, error) {
	return get[services.BalanceResponse](ctx, c, "/v1/token/balances/"+account.String(), "/v1/token/balances/{account}")
}

// get retries on transport failures and 5xx answers.
func get[T any](ctx context.Context, c *Client, path, templatePath string) (*T, error) {
	return clientCallWithRetry(ctx, func() (*T, error) {
		return sendRequest[T](ctx, c, http.MethodGet, path, templatePath, nil)
	}, c.cfg)
}

// post is sent once: a state changing request that timed out may still
// have been applied.
func post[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	return sendRequest[T](ctx, c, method, path, path, body)
}

func sendRequest[T any](ctx context.Context, c *Client, method, path, templatePath string, body any) (*T, error) {
	var reader io.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(bz)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Actor != "" {
		req.Header.Set(services.ActorIDHeader, c.cfg.Actor)
	}

	observe := metrics.StartClientRequestDurationTimer(c.baseURL, method, templatePath)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(0)
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()
	observe(resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp services.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.ErrorCode = errResp.ErrorCode
			apiErr.Message = errResp.Message
		} else {
			apiErr.ErrorCode = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response of %s: %w", path, err)
	}
	return &out, nil
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.ClientConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("Staking API request failed, retrying")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
