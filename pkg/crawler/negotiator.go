package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
)

// Negotiator establishes one authorized session, trying transport strategies in order
type Negotiator struct {
	dialer     Dialer
	transports []string
	maxRetries int
	retryDelay time.Duration
}

// NegotiatorConfig holds negotiator parameters
type NegotiatorConfig struct {
	Transports []string      // transport strategies, tried in order
	MaxRetries int           // attempts per strategy
	RetryDelay time.Duration // fixed delay between attempts
}

// NewNegotiator makes a negotiator for the given dialer
func NewNegotiator(dialer Dialer, cfg NegotiatorConfig) *Negotiator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	return &Negotiator{dialer: dialer, transports: cfg.Transports, maxRetries: cfg.MaxRetries, retryDelay: cfg.RetryDelay}
}

// Connect returns the first authorized session and the transport that produced it.
// Each strategy gets maxRetries attempts with a fixed delay in between. When every
// strategy is exhausted the result is a *ConnectionError.
func (n *Negotiator) Connect(ctx context.Context) (Session, string, error) {
	if len(n.transports) == 0 {
		return nil, "", &ConnectionError{Err: errors.New("no transport strategies configured")}
	}

	var lastErr error
	total := 0
	for _, transport := range n.transports {
		attempt := 0
		var sess Session
		err := repeater.NewFixed(n.maxRetries, n.retryDelay).Do(ctx, func() error {
			attempt++
			total++
			lgr.Printf("[INFO] connecting with %s, attempt %d/%d", transport, attempt, n.maxRetries)
			s, err := n.dial(ctx, transport)
			if err != nil {
				lgr.Printf("[WARN] attempt %d with %s failed: %v", attempt, transport, err)
				lastErr = err
				return err
			}
			sess = s
			return nil
		})
		if err == nil && sess != nil {
			lgr.Printf("[INFO] connected with %s", transport)
			return sess, transport, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		if lastErr == nil {
			lastErr = err
		}
		lgr.Printf("[WARN] failed using %s, trying next transport", transport)
	}

	return nil, "", &ConnectionError{Strategies: n.transports, Attempts: total, Err: lastErr}
}

// dial makes one attempt and checks the session is authorized, closing it otherwise
func (n *Negotiator) dial(ctx context.Context, transport string) (Session, error) {
	sess, err := n.dialer.Dial(ctx, transport)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	ok, err := sess.Authorized(ctx)
	if err == nil && !ok {
		err = ErrUnauthorized
	}
	if err != nil {
		if closeErr := sess.Close(); closeErr != nil {
			lgr.Printf("[DEBUG] close rejected session: %v", closeErr)
		}
		return nil, fmt.Errorf("check authorization: %w", err)
	}
	return sess, nil
}
