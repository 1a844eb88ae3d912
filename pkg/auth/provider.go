package auth

import (
	"context"
	"errors"
	"io"
	"sync"
)

var (
	// ErrNotInitialized is returned by Provider.SignIn before Init succeeded.
	ErrNotInitialized = errors.New("auth: provider not initialized")
	// ErrClosed is returned once the provider has been closed.
	ErrClosed = errors.New("auth: provider closed")
)

// Factory builds the authenticator backing a Provider.
type Factory func(ctx context.Context) (Authenticator, error)

// Provider owns the one-time setup and teardown of an authenticator.
type Provider struct {
	factory Factory

	once    sync.Once
	mu      sync.RWMutex
	auth    Authenticator
	initErr error
	closed  bool
}

// Ensure Provider can be injected wherever an Authenticator is expected.
var (
	_ Authenticator = (*Provider)(nil)
	_ DisplayNamer  = (*Provider)(nil)
)

// NewProvider wraps factory. Nothing runs until Init.
func NewProvider(factory Factory) *Provider {
	return &Provider{factory: factory}
}

// Init runs the factory once. Later calls return the first result.
func (p *Provider) Init(ctx context.Context) error {
	p.once.Do(func() {
		var (
			authenticator Authenticator
			err           error
		)
		if p.factory == nil {
			err = errors.New("auth: provider factory is nil")
		} else {
			authenticator, err = p.factory(ctx)
		}
		if err != nil {
			authenticator = nil
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			p.initErr = ErrClosed
			closeAuthenticator(authenticator)
			return
		}
		p.auth = authenticator
		p.initErr = err
	})

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initErr
}

// SignIn delegates to the initialized authenticator.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	p.mu.RLock()
	authenticator, closed := p.auth, p.closed
	p.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if authenticator == nil {
		return ErrNotInitialized
	}
	return authenticator.SignIn(ctx, email, password)
}

// DisplayName delegates to the authenticator when it implements
// DisplayNamer and returns an empty name otherwise.
func (p *Provider) DisplayName(ctx context.Context, email string) (string, error) {
	p.mu.RLock()
	authenticator, closed := p.auth, p.closed
	p.mu.RUnlock()

	if closed {
		return "", ErrClosed
	}
	if authenticator == nil {
		return "", ErrNotInitialized
	}
	namer, ok := authenticator.(DisplayNamer)
	if !ok {
		return "", nil
	}
	return namer.DisplayName(ctx, email)
}

// Close tears the provider down, closing the authenticator when it
// implements io.Closer. Close is idempotent.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	authenticator := p.auth
	p.auth = nil
	return closeAuthenticator(authenticator)
}

func closeAuthenticator(authenticator Authenticator) error {
	if closer, ok := authenticator.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
