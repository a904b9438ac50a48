// Package telegram implements crawler sessions over the Telegram MTProto API.
// Each dial starts a gotd client with its own connection loop; the loop is owned by
// the returned Session and stopped by Session.Close.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/gotd/td/session"
	tgclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/transport"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/proxy"

	"github.com/umputun/chanscope/pkg/crawler"
)

// Config holds client credentials and connection settings
type Config struct {
	AppID        int
	AppHash      string
	Phone        string
	Password     string // two-step verification password, optional
	SessionFile  string
	TestDC       bool
	DialTimeout  time.Duration
	MaxFloodWait time.Duration // longer flood waits are returned as errors
	DialogPages  int           // pages of 100 dialogs scanned by Dialogs
	Proxy        string        // optional socks5://[user:pass@]host:port

	// CodePrompt asks for the login code sent by the service.
	// Nil disables interactive login, an unauthorized session is then reported as such.
	CodePrompt func(ctx context.Context) (string, error)
}

// Dialer opens gotd client sessions
type Dialer struct {
	cfg    Config
	logger *zap.Logger
}

// NewDialer makes a dialer; nil logger disables client logging
func NewDialer(cfg Config, logger *zap.Logger) *Dialer {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	if cfg.MaxFloodWait <= 0 {
		cfg.MaxFloodWait = time.Minute
	}
	if cfg.DialogPages <= 0 {
		cfg.DialogPages = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{cfg: cfg, logger: logger}
}

// NewLogger makes the client logger, warnings only unless dbg is set
func NewLogger(dbg bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if dbg {
		config = zap.NewDevelopmentConfig()
	}
	config.OutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Transports returns names of supported transport strategies
func Transports() []string {
	return []string{"abridged", "intermediate", "padded", "full"}
}

// protocol maps a transport strategy name to the gotd protocol
func protocol(name string) (dcs.Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "abridged":
		return transport.Abridged, nil
	case "intermediate":
		return transport.Intermediate, nil
	case "padded":
		return transport.PaddedIntermediate, nil
	case "full":
		return transport.Full, nil
	}
	return nil, fmt.Errorf("unknown transport %q, expected one of %s", name, strings.Join(Transports(), ", "))
}

// proxyDial makes a dial function going through the proxy url
func proxyDial(rawURL string) (dcs.DialFunc, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("make proxy dialer: %w", err)
	}
	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy scheme %q can't dial with context", u.Scheme)
	}
	return cd.DialContext, nil
}

// Dial starts a client over the named transport and waits until it is connected
func (d *Dialer) Dial(ctx context.Context, transportName string) (crawler.Session, error) {
	proto, err := protocol(transportName)
	if err != nil {
		return nil, err
	}

	plain := dcs.PlainOptions{Protocol: proto}
	if d.cfg.Proxy != "" {
		if plain.Dial, err = proxyDial(d.cfg.Proxy); err != nil {
			return nil, err
		}
	}

	opts := tgclient.Options{
		Logger:         d.logger.Named(transportName),
		SessionStorage: &session.FileStorage{Path: d.cfg.SessionFile},
		Resolver:       dcs.Plain(plain),
		NoUpdates:      true,
	}
	if d.cfg.TestDC {
		opts.DCList = dcs.Test()
	}
	client := tgclient.NewClient(d.cfg.AppID, d.cfg.AppHash, opts)

	// the run loop outlives Dial, it is stopped by Session.Close
	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return nil
		})
	}()

	timer := time.NewTimer(d.cfg.DialTimeout)
	defer timer.Stop()
	select {
	case <-ready:
	case err := <-done:
		cancel()
		if err == nil {
			err = errors.New("client stopped")
		}
		return nil, fmt.Errorf("run client: %w", err)
	case <-timer.C:
		cancel()
		<-done
		return nil, fmt.Errorf("connect timeout after %v", d.cfg.DialTimeout)
	case <-ctx.Done():
		cancel()
		<-done
		return nil, ctx.Err()
	}
	lgr.Printf("[DEBUG] client connected over %s", transportName)

	api := client.API()
	sess := &Session{
		api:          api,
		peers:        peer.DefaultResolver(api),
		maxFloodWait: d.cfg.MaxFloodWait,
		dialogPages:  d.cfg.DialogPages,
		status: func(ctx context.Context) (bool, error) {
			st, err := client.Auth().Status(ctx)
			if err != nil {
				return false, fmt.Errorf("auth status: %w", err)
			}
			return st.Authorized, nil
		},
		stop: func() error {
			cancel()
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	if d.cfg.Phone != "" && d.cfg.CodePrompt != nil {
		sess.login = func(ctx context.Context) error {
			codeFn := auth.CodeAuthenticatorFunc(func(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
				lgr.Printf("[INFO] login code requested for %s", d.cfg.Phone)
				return d.cfg.CodePrompt(ctx)
			})
			flow := auth.NewFlow(auth.Constant(d.cfg.Phone, d.cfg.Password, codeFn), auth.SendCodeOptions{})
			return client.Auth().IfNecessary(ctx, flow)
		}
	}
	return sess, nil
}
