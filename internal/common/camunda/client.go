// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"credit-scoring-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client is the gateway connection shared by the worker and health probes.
type Client struct {
	zbc    zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig bounds WithRetry. Delays double from BaseDelay up to MaxDelay.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

func (rc *RetryConfig) delay(attempt int) time.Duration {
	d := rc.BaseDelay << attempt
	if d <= 0 || d > rc.MaxDelay {
		return rc.MaxDelay
	}
	return d
}

// NewClientWithConfig dials the gateway and fails unless a topology request
// succeeds within ConnectionTimeout.
func NewClientWithConfig(cfg *ClientConfig) (*Client, error) {
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = DefaultRetryConfig
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = 10 * time.Second
	}

	zc, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, errors.NewBrokerUnavailableError("create client", err)
	}

	c := &Client{zbc: zc, config: cfg}
	if err := c.HealthCheck(context.Background()); err != nil {
		zc.Close()
		return nil, fmt.Errorf("zeebe gateway %s: %w", cfg.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.zbc
}

func (c *Client) Close() error {
	return c.zbc.Close()
}

// HealthCheck sends a topology request bounded by ConnectionTimeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.zbc.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// WithRetry runs cmd until it succeeds, fails permanently, or the retry
// budget is spent. The returned error is BROKER_UNAVAILABLE for transient
// failures and BROKER_REJECTED otherwise.
func WithRetry(ctx context.Context, rc *RetryConfig, operation string, cmd func(context.Context) error) error {
	if rc == nil {
		rc = DefaultRetryConfig
	}

	for attempt := 0; ; attempt++ {
		err := cmd(ctx)
		if err == nil {
			return nil
		}

		transient := isRetryableZeebeError(err)
		if !transient || attempt >= rc.MaxRetries {
			if attempt > 0 {
				err = fmt.Errorf("after %d attempts: %w", attempt+1, err)
			}
			if transient {
				return errors.NewBrokerUnavailableError(operation, err)
			}
			return errors.NewBrokerRejectedError(operation, err)
		}

		select {
		case <-time.After(rc.delay(attempt)):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
}

var retryableCodes = map[codes.Code]bool{
	codes.Unavailable:       true,
	codes.DeadlineExceeded:  true,
	codes.ResourceExhausted: true,
	codes.Aborted:           true,
}

// transientPhrases covers errors raised before a gRPC status exists, such as
// dial failures and context deadlines.
var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
	"resource exhausted",
}

func isRetryableZeebeError(err error) bool {
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return retryableCodes[st.Code()]
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
