package broker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// SecretProvider supplies and replaces the broker credentials. The
// backing store (encrypted table, vault, env) is outside this package.
type SecretProvider interface {
	BrokerCredentials(ctx context.Context) (Credentials, error)
	SetBrokerCredentials(ctx context.Context, creds Credentials) error
}

// loginAPI is the slice of Client the session manager needs.
type loginAPI interface {
	Login(ctx context.Context, creds Credentials) (*Session, error)
}

// SessionManager owns the process-wide cached broker session. The
// refresh path is single-flight: concurrent callers that observe a
// missing or expired session share one login instead of each issuing
// their own.
type SessionManager struct {
	api     loginAPI
	secrets SecretProvider
	log     zerolog.Logger

	mu     sync.RWMutex
	cached *Session

	group singleflight.Group
	now   func() time.Time
}

// NewSessionManager creates a new session manager
func NewSessionManager(api loginAPI, secrets SecretProvider, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		api:     api,
		secrets: secrets,
		log:     log.With().Str("component", "broker-session").Logger(),
		now:     time.Now,
	}
}

// GetSession returns a valid session, logging in only when the cache
// is empty, expired or a refresh is forced. Login failure returns a
// BrokerAuthError and leaves the cache empty.
func (m *SessionManager) GetSession(ctx context.Context, forceRefresh bool) (*Session, error) {
	if !forceRefresh {
		m.mu.RLock()
		cached := m.cached
		m.mu.RUnlock()

		if cached.Valid(m.now()) {
			return cached, nil
		}
	}

	v, err, _ := m.group.Do("login", func() (interface{}, error) {
		// A concurrent caller may have refreshed while we waited.
		if !forceRefresh {
			m.mu.RLock()
			cached := m.cached
			m.mu.RUnlock()
			if cached.Valid(m.now()) {
				return cached, nil
			}
		}

		creds, err := m.secrets.BrokerCredentials(ctx)
		if err != nil {
			return nil, err
		}

		session, err := m.api.Login(ctx, creds)
		if err != nil {
			m.log.Error().Err(err).Msg("Broker login failed")
			return nil, err
		}

		m.mu.Lock()
		m.cached = session
		m.mu.Unlock()

		return session, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Session), nil
}

// UpdateCredentials replaces the stored credentials and invalidates
// the cached session, forcing the next GetSession to log in.
func (m *SessionManager) UpdateCredentials(ctx context.Context, creds Credentials) error {
	if err := m.secrets.SetBrokerCredentials(ctx, creds); err != nil {
		return err
	}

	m.mu.Lock()
	m.cached = nil
	m.mu.Unlock()

	m.log.Info().Str("client_code", creds.ClientCode).Msg("Broker credentials updated, session invalidated")
	return nil
}

// Current returns the cached session without triggering a login, for
// status reporting.
func (m *SessionManager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cached
}

// EnvSecretProvider is an in-memory secret provider seeded once at
// startup, suitable for single-node deployments and tests.
type EnvSecretProvider struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewEnvSecretProvider creates a provider with the given seed credentials.
func NewEnvSecretProvider(creds Credentials) *EnvSecretProvider {
	return &EnvSecretProvider{creds: creds}
}

// BrokerCredentials returns the stored credentials.
func (p *EnvSecretProvider) BrokerCredentials(ctx context.Context) (Credentials, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creds, nil
}

// SetBrokerCredentials replaces the stored credentials.
func (p *EnvSecretProvider) SetBrokerCredentials(ctx context.Context, creds Credentials) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creds = creds
	return nil
}
