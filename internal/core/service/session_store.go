package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/evanio/checkout-service/internal/core/domain"
	"github.com/evanio/checkout-service/internal/core/ports"
)

// SessionStore is the single source of truth for who is signed in on one device.
// Every state change is written through to storage so it survives a restart.
type SessionStore struct {
	deviceID string
	auth     ports.AuthGateway
	storage  ports.SessionStorage
	log      zerolog.Logger

	mu      sync.RWMutex
	session domain.Session
}

// NewSessionStore returns an empty store for deviceID. Call Restore or
// RestoreLocal to pick up a persisted session.
func NewSessionStore(deviceID string, auth ports.AuthGateway, storage ports.SessionStorage, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		deviceID: deviceID,
		auth:     auth,
		storage:  storage,
		log:      log.With().Str("device_id", deviceID).Logger(),
	}
}

// TokenKey and IdentityKey name the two storage entries of a device session.
func TokenKey(deviceID string) string    { return "session:" + deviceID + ":token" }
func IdentityKey(deviceID string) string { return "session:" + deviceID + ":identity" }

// Current returns a snapshot of the in-memory session.
func (s *SessionStore) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSession(s.session)
}

// Restore runs RestoreLocal then Revalidate. A revalidation failure is not
// returned: the device simply ends up signed out.
func (s *SessionStore) Restore(ctx context.Context) (domain.Session, error) {
	if _, err := s.RestoreLocal(ctx); err != nil {
		return domain.Session{}, err
	}
	if err := s.Revalidate(ctx); err != nil {
		s.log.Info().Err(err).Msg("persisted session rejected, signed out")
	}
	return s.Current(), nil
}

// RestoreLocal loads the persisted token and identity without contacting the
// Evanio API. A half-persisted or unreadable pair is discarded.
func (s *SessionStore) RestoreLocal(ctx context.Context) (domain.Session, error) {
	token, hasToken, err := s.storage.Get(ctx, TokenKey(s.deviceID))
	if err != nil {
		return domain.Session{}, fmt.Errorf("restore session token: %w", err)
	}
	rawIdentity, hasIdentity, err := s.storage.Get(ctx, IdentityKey(s.deviceID))
	if err != nil {
		return domain.Session{}, fmt.Errorf("restore session identity: %w", err)
	}

	if !hasToken && !hasIdentity {
		s.set(domain.Session{})
		return domain.Session{}, nil
	}
	if !hasToken || !hasIdentity || token == "" {
		s.log.Warn().Bool("has_token", hasToken).Bool("has_identity", hasIdentity).Msg("discarding partial session")
		s.clear(ctx)
		return domain.Session{}, nil
	}

	var identity domain.Identity
	if err := json.Unmarshal([]byte(rawIdentity), &identity); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable session identity")
		s.clear(ctx)
		return domain.Session{}, nil
	}

	restored := domain.Session{Token: token, Identity: &identity}
	s.set(restored)
	return cloneSession(restored), nil
}

// Revalidate re-fetches the identity behind the current token. Any failure,
// including an unreachable API, clears the session. There is no retry.
func (s *SessionStore) Revalidate(ctx context.Context) error {
	current := s.Current()
	if !current.Valid() {
		return nil
	}

	identity, err := s.auth.CurrentIdentity(ctx, current.Token)
	if err != nil {
		s.clear(ctx)
		return fmt.Errorf("revalidate session: %w", err)
	}
	if identity == nil {
		s.clear(ctx)
		return domain.Server("identity missing from response", nil)
	}

	return s.persist(ctx, domain.Session{Token: current.Token, Identity: identity})
}

// Login signs the device in. When the account has a second factor enabled and
// code is empty, it returns domain.ErrSecondFactorRequired and creates no session.
func (s *SessionStore) Login(ctx context.Context, email, password, code string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, domain.Validation("email and password are required", nil)
	}

	res, err := s.auth.Login(ctx, email, password, strings.TrimSpace(code))
	if err != nil {
		return domain.Session{}, err
	}
	if res.RequiresSecondFactor {
		s.log.Info().Msg("login requires a second factor")
		return domain.Session{}, domain.ErrSecondFactorRequired
	}
	if res.Session == nil || !res.Session.Valid() {
		return domain.Session{}, domain.Server("login response carried no session", nil)
	}

	if err := s.persist(ctx, *res.Session); err != nil {
		return domain.Session{}, err
	}
	s.log.Info().Str("user_id", res.Session.Identity.ID).Msg("signed in")
	return s.Current(), nil
}

// Register creates an account and signs the device in with it.
func (s *SessionStore) Register(ctx context.Context, input ports.RegisterInput) (domain.Session, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.ReferralCode = strings.TrimSpace(input.ReferralCode)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return domain.Session{}, domain.Validation("name, email and password are required", nil)
	}

	session, err := s.auth.Register(ctx, input)
	if err != nil {
		return domain.Session{}, err
	}
	if session == nil || !session.Valid() {
		return domain.Session{}, domain.Server("registration response carried no session", nil)
	}

	if err := s.persist(ctx, *session); err != nil {
		return domain.Session{}, err
	}
	s.log.Info().Str("user_id", session.Identity.ID).Msg("registered and signed in")
	return s.Current(), nil
}

// Logout signs the device out. It cannot fail; storage errors are only logged.
func (s *SessionStore) Logout(ctx context.Context) {
	s.clear(ctx)
	s.log.Info().Msg("signed out")
}

func (s *SessionStore) persist(ctx context.Context, session domain.Session) error {
	rawIdentity, err := json.Marshal(session.Identity)
	if err != nil {
		return fmt.Errorf("encode session identity: %w", err)
	}

	err = s.storage.SetMany(ctx, map[string]string{
		TokenKey(s.deviceID):    session.Token,
		IdentityKey(s.deviceID): string(rawIdentity),
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.set(session)
	return nil
}

func (s *SessionStore) clear(ctx context.Context) {
	s.set(domain.Session{})
	if err := s.storage.Delete(ctx, TokenKey(s.deviceID), IdentityKey(s.deviceID)); err != nil {
		s.log.Error().Err(err).Msg("failed to delete persisted session")
	}
}

func (s *SessionStore) set(session domain.Session) {
	s.mu.Lock()
	s.session = cloneSession(session)
	s.mu.Unlock()
}

func cloneSession(s domain.Session) domain.Session {
	if s.Identity == nil {
		return domain.Session{Token: s.Token}
	}
	identity := *s.Identity
	return domain.Session{Token: s.Token, Identity: &identity}
}

// SessionManager hands out per-device session stores. It implements
// ports.SessionService for the HTTP layer.
type SessionManager struct {
	auth    ports.AuthGateway
	storage ports.SessionStorage
	log     zerolog.Logger
}

// NewSessionManager returns a SessionManager backed by auth and storage.
func NewSessionManager(auth ports.AuthGateway, storage ports.SessionStorage, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		auth:    auth,
		storage: storage,
		log:     log.With().Str("component", "session").Logger(),
	}
}

// For returns a fresh store for deviceID.
func (m *SessionManager) For(deviceID string) *SessionStore {
	return NewSessionStore(deviceID, m.auth, m.storage, m.log)
}

func (m *SessionManager) Restore(ctx context.Context, deviceID string) (domain.Session, error) {
	return m.For(deviceID).Restore(ctx)
}

func (m *SessionManager) Current(ctx context.Context, deviceID string) (domain.Session, error) {
	return m.For(deviceID).RestoreLocal(ctx)
}

func (m *SessionManager) Login(ctx context.Context, deviceID, email, password, code string) (domain.Session, error) {
	return m.For(deviceID).Login(ctx, email, password, code)
}

func (m *SessionManager) Register(ctx context.Context, deviceID string, input ports.RegisterInput) (domain.Session, error) {
	return m.For(deviceID).Register(ctx, input)
}

func (m *SessionManager) Logout(ctx context.Context, deviceID string) {
	m.For(deviceID).Logout(ctx)
}

// Invalidate signs a device out after the Evanio API rejected its token.
func (m *SessionManager) Invalidate(ctx context.Context, deviceID string) {
	st := m.For(deviceID)
	st.clear(ctx)
	st.log.Info().Msg("session invalidated by the Evanio API")
}
