package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperledger-labs/yui-remote-signer/core"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRetryAttempts = uint(5)
	defaultRetryInterval = 400 * time.Millisecond
)

// SignerConfig is the configuration of the vault signer backend.
type SignerConfig struct {
	Type string `json:"type" yaml:"type"`

	// Addr is the base URL of the Vault server, e.g. "https://127.0.0.1:8200".
	Addr string `json:"addr" yaml:"addr"`
	// Token is the Vault token used to authenticate requests.
	Token string `json:"token" yaml:"token"`
	// KeyName is the name of the transit key used for consensus signing.
	KeyName string `json:"key_name" yaml:"key_name"`

	Timeout       string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RetryAttempts uint   `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty"`
	RetryInterval string `json:"retry_interval,omitempty" yaml:"retry_interval,omitempty"`

	// MaxMessageSize rejects messages larger than the given size before they
	// are submitted. Zero disables the check.
	MaxMessageSize int `json:"max_message_size,omitempty" yaml:"max_message_size,omitempty"`
}

var _ core.SignerConfig = (*SignerConfig)(nil)

func (c SignerConfig) Build(ctx context.Context) (core.Signer, error) {
	client, err := Connect(ctx, c)
	if err != nil {
		return nil, err
	}
	return Signer{Client: client}, nil
}

func (c SignerConfig) Validate() error {
	isEmpty := func(s string) bool {
		return strings.TrimSpace(s) == ""
	}

	var errs []error
	if isEmpty(c.Addr) {
		errs = append(errs, fmt.Errorf("config attribute \"addr\" is empty"))
	}
	if isEmpty(c.Token) {
		errs = append(errs, fmt.Errorf("config attribute \"token\" is empty"))
	}
	if isEmpty(c.KeyName) {
		errs = append(errs, fmt.Errorf("config attribute \"key_name\" is empty"))
	}
	if !isEmpty(c.Timeout) {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("config attribute \"timeout\" is invalid: %v", err))
		}
	}
	if !isEmpty(c.RetryInterval) {
		if _, err := time.ParseDuration(c.RetryInterval); err != nil {
			errs = append(errs, fmt.Errorf("config attribute \"retry_interval\" is invalid: %v", err))
		}
	}
	if c.MaxMessageSize < 0 {
		errs = append(errs, fmt.Errorf("config attribute \"max_message_size\" must not be negative: %d", c.MaxMessageSize))
	}

	// errors.Join returns nil if len(errs) == 0
	return errors.Join(errs...)
}

// GetTimeout returns the HTTP client timeout. It panics if the config has not
// been validated.
func (c SignerConfig) GetTimeout() time.Duration {
	if strings.TrimSpace(c.Timeout) == "" {
		return defaultTimeout
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil {
		panic(err)
	} else {
		return d
	}
}

// GetRetryAttempts returns the number of attempts per request.
func (c SignerConfig) GetRetryAttempts() uint {
	if c.RetryAttempts == 0 {
		return defaultRetryAttempts
	}
	return c.RetryAttempts
}

// GetRetryInterval returns the delay between attempts. It panics if the
// config has not been validated.
func (c SignerConfig) GetRetryInterval() time.Duration {
	if strings.TrimSpace(c.RetryInterval) == "" {
		return defaultRetryInterval
	}
	if d, err := time.ParseDuration(c.RetryInterval); err != nil {
		panic(err)
	} else {
		return d
	}
}
