package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/cockroachdb/errors"
	"github.com/hyperledger-labs/yui-remote-signer/log"
)

const apiVersion = "v1"

// session holds the connection parameters of a Vault server and performs the
// raw HTTP exchanges.
type session struct {
	addr          string
	token         string
	client        *http.Client
	retryAttempts uint
	retryInterval time.Duration
}

func newSession(config SignerConfig) *session {
	return &session{
		addr:          strings.TrimSuffix(config.Addr, "/"),
		token:         config.Token,
		client:        &http.Client{Timeout: config.GetTimeout()},
		retryAttempts: config.GetRetryAttempts(),
		retryInterval: config.GetRetryInterval(),
	}
}

// connect verifies the token with a self lookup and returns its metadata.
func (s *session) connect(ctx context.Context) (*tokenData, error) {
	env, err := call[tokenData](ctx, s, http.MethodGet, "auth/token/lookup-self", nil)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, errors.Wrap(ErrTransport, "token lookup-self returned no data")
	}
	return env.Data, nil
}

// call sends a request to the given API path and decodes the response
// envelope. Transport failures and server errors are retried; client errors
// are returned immediately.
func call[T any](ctx context.Context, s *session, method, path string, reqBody any) (*envelope[T], error) {
	logger := log.GetLogger().WithModule("signers.vault")
	url := fmt.Sprintf("%s/%s/%s", s.addr, apiVersion, path)

	var body []byte
	if reqBody != nil {
		bz, err := json.Marshal(reqBody)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to marshal the request body"), ErrSerialization)
		}
		body = bz
	}

	var env envelope[T]
	do := func() error {
		env = envelope[T]{}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return errors.Mark(err, ErrTransport)
		}
		req.Header.Set("X-Vault-Token", s.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := s.client.Do(req)
		if err != nil {
			return errors.Mark(err, ErrTransport)
		}
		defer res.Body.Close()

		resBody, err := io.ReadAll(res.Body)
		if err != nil {
			return errors.Mark(err, ErrTransport)
		}
		if res.StatusCode/100 != 2 {
			return newAPIError(res.StatusCode, resBody)
		}
		if err := json.Unmarshal(resBody, &env); err != nil {
			return errors.Mark(errors.Wrapf(err, "failed to unmarshal the response from %s", path), ErrSerialization)
		}
		return nil
	}

	if err := retry.Do(do,
		retry.Attempts(s.retryAttempts),
		retry.Delay(s.retryInterval),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.InfoContext(ctx,
				"retrying a vault request",
				"path", path,
				"try", n+1,
				"try_limit", s.retryAttempts,
				"error", err.Error(),
			)
		}),
	); err != nil {
		return nil, err
	}
	return &env, nil
}

// apiError is a non-2xx response from the Vault API.
type apiError struct {
	status int
	errs   []string
}

func newAPIError(status int, body []byte) error {
	// Vault error bodies look like {"errors":["permission denied"]}
	var payload struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Errors) == 0 {
		payload.Errors = []string{strings.TrimSpace(string(body))}
	}
	return errors.Mark(&apiError{status: status, errs: payload.Errors}, ErrTransport)
}

func (e *apiError) Error() string {
	return fmt.Sprintf("vault api error: status=%d errors=%v", e.status, e.errs)
}

func isRetryable(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status >= http.StatusInternalServerError
	}
	return errors.Is(err, ErrTransport)
}
