package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flipcoin/miniapp/internal/domain"
)

// DefaultTimeout bounds every call when the caller configures none.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// TokenSource supplies the current bearer token, "" when signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client is the contract wrapper around the mini-app REST API. It never
// retries; a timeout or transport failure surfaces as SERVER_ERROR.
type Client struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the API rooted at baseURL (for example
// http://localhost:5000/api).
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Operation names, used for logging and for picking the error kind of a
// failed response.
const (
	opLogin           = "login"
	opFetchProfile    = "fetch_profile"
	opPatchProfile    = "patch_profile"
	opReferral        = "apply_referral"
	opPlayGame        = "play_game"
	opFetchLimits     = "fetch_limits"
	opGameHistory     = "game_history"
	opFetchTasks      = "fetch_tasks"
	opCompleteTask    = "complete_task"
	opCompletedTasks  = "completed_tasks"
	opFetchRewards    = "fetch_rewards"
	opRedeemReward    = "redeem_reward"
	opRedeemedRewards = "redeemed_rewards"
	opFetchPackages   = "fetch_packages"
	opCreatePayment   = "create_payment"
	opPaymentHistory  = "payment_history"
)

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   interface{}
	// public calls are sent without a token.
	public bool
	// mutating calls carry an Idempotency-Key.
	mutating bool
}

// do executes c and decodes a successful response into out (may be nil).
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	token := c.tokens.Token()
	if !cl.public && token == "" {
		return domain.ErrUnauthenticated("sign in to continue")
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", cl.op, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cl.public {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cl.mutating {
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("api call failed", "op", cl.op, "error", err)
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.ErrServer("read response", err)
	}

	c.logger.Debug("api call",
		"op", cl.op,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		appErr := statusError(cl.op, resp.StatusCode, decodeEnvelope(data))
		c.logger.Warn("api call rejected", "op", cl.op, "status", resp.StatusCode, "code", appErr.Code)
		return appErr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.ErrServer("malformed "+cl.op+" response", err)
	}
	return nil
}

func transportError(err error) *domain.AppError {
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return domain.ErrServer("request timed out", err)
	case errors.Is(err, context.Canceled):
		return domain.ErrServer("request cancelled", err)
	default:
		return domain.ErrServer("server unreachable", err)
	}
}

// errorEnvelope accepts both {"error":"msg"} and
// {"error":{"code":"...","message":"..."}} bodies.
type errorEnvelope struct {
	Code     string
	Message  string
	Required int64
	Balance  int64
}

func decodeEnvelope(data []byte) errorEnvelope {
	var raw struct {
		Error    json.RawMessage `json:"error"`
		Message  string          `json:"message"`
		Required int64           `json:"required"`
		Balance  int64           `json:"balance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errorEnvelope{}
	}
	env := errorEnvelope{Message: raw.Message, Required: raw.Required, Balance: raw.Balance}

	var msg string
	if err := json.Unmarshal(raw.Error, &msg); err == nil {
		env.Message = msg
		return env
	}
	var obj struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw.Error, &obj); err == nil {
		env.Code = obj.Code
		if obj.Message != "" {
			env.Message = obj.Message
		}
	}
	return env
}

// statusError maps a failed response to the error taxonomy. A known code in
// the envelope wins over the status-based mapping.
func statusError(op string, status int, env errorEnvelope) *domain.AppError {
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	if appErr := codedError(env.Code, msg, env); appErr != nil {
		return appErr
	}

	lower := strings.ToLower(msg)
	switch {
	case status == http.StatusUnauthorized && op == opLogin:
		return domain.ErrInvalidCredentials(msg)
	case status == http.StatusUnauthorized:
		return domain.ErrUnauthenticated(msg)
	case status == http.StatusTooManyRequests:
		return domain.ErrDailyLimitReached(msg)
	case status >= http.StatusInternalServerError:
		return domain.ErrServer(msg, nil)
	}

	switch op {
	case opCompleteTask:
		switch {
		case status == http.StatusConflict, strings.Contains(lower, "already completed"):
			return domain.ErrTaskAlreadyCompleted(msg)
		case strings.Contains(lower, "requirements not met"):
			return domain.ErrRequirementNotMet(msg)
		}
	case opReferral:
		if status == http.StatusBadRequest || status == http.StatusNotFound {
			return domain.ErrInvalidReferralCode(msg)
		}
	case opRedeemReward:
		if strings.Contains(lower, "insufficient") {
			return domain.ErrInsufficientBalance(env.Balance, env.Required)
		}
	}
	return domain.ErrValidation(msg)
}

func codedError(code, msg string, env errorEnvelope) *domain.AppError {
	switch code {
	case domain.CodeUnauthenticated:
		return domain.ErrUnauthenticated(msg)
	case domain.CodeInvalidCredentials:
		return domain.ErrInvalidCredentials(msg)
	case domain.CodeValidation:
		return domain.ErrValidation(msg)
	case domain.CodeInsufficientBalance:
		return domain.ErrInsufficientBalance(env.Balance, env.Required)
	case domain.CodeDailyLimitReached:
		return domain.ErrDailyLimitReached(msg)
	case domain.CodeTaskAlreadyCompleted:
		return domain.ErrTaskAlreadyCompleted(msg)
	case domain.CodeRequirementNotMet:
		return domain.ErrRequirementNotMet(msg)
	case domain.CodeInvalidReferralCode:
		return domain.ErrInvalidReferralCode(msg)
	default:
		return nil
	}
}
