package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/state"
	"github.com/dmitrijs2005/taskvault/internal/storage"
)

// Session is the persisted login session record. It lives under the fixed
// task_manager_session key, never namespaced: the session is what the
// namespace is derived from.
type Session struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	LoginAt      time.Time `json:"loginAt"`
	LastActivity time.Time `json:"lastActivity"`
	IsDemo       bool      `json:"isDemo"`
}

func (s *Session) user() *state.User {
	return &state.User{ID: s.UserID, Email: s.Email, Name: s.Name}
}

// SessionManager owns the session lifecycle: NoSession -> Active ->
// (Expired | LoggedOut). Validity is re-checked on every read; a session
// is valid only while the inactivity window has not elapsed.
type SessionManager struct {
	chain *storage.Chain
	vault *Vault
	ttl   time.Duration
	now   func() time.Time
	log   logging.Logger
}

func NewSessionManager(chain *storage.Chain, vault *Vault, ttl time.Duration, log logging.Logger) *SessionManager {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &SessionManager{chain: chain, vault: vault, ttl: ttl, now: time.Now, log: log}
}

// Create starts a session for user with login time and last activity set
// to now.
func (m *SessionManager) Create(ctx context.Context, user *state.User, isDemo bool) error {
	now := m.now().UTC()
	sess := Session{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		LoginAt:      now,
		LastActivity: now,
		IsDemo:       isDemo,
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return m.chain.Set(ctx, storage.KeySession, data)
}

// current returns the live session record, enforcing expiry and
// credential existence. It is the single source of session truth for both
// Current and the auth-state cache.
func (m *SessionManager) current(ctx context.Context) (*Session, error) {
	raw, err := m.chain.Get(ctx, storage.KeySession)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		m.log.Warn(ctx, "discarding unreadable session record", "error", err)
		m.chain.Delete(ctx, storage.KeySession)
		return nil, nil
	}

	if m.now().Sub(sess.LastActivity) >= m.ttl {
		m.log.Info(ctx, "session expired", "userId", sess.UserID)
		m.chain.Delete(ctx, storage.KeySession)
		return nil, nil
	}

	if sess.IsDemo {
		return &sess, nil
	}

	exists, err := m.vault.Exists(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		m.log.Info(ctx, "session references deleted credential, expiring", "userId", sess.UserID)
		m.chain.Delete(ctx, storage.KeySession)
		return nil, nil
	}

	sess.LastActivity = m.now().UTC()
	if data, err := json.Marshal(sess); err == nil {
		if err := m.chain.Set(ctx, storage.KeySession, data); err != nil {
			m.log.Warn(ctx, "could not refresh session activity", "error", err)
		}
	}
	return &sess, nil
}

// Current returns the authenticated user, or nil when there is no valid
// session. Reading a valid real session refreshes its activity timestamp.
func (m *SessionManager) Current(ctx context.Context) (*state.User, error) {
	sess, err := m.current(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	return sess.user(), nil
}

// Logout clears the session record unconditionally, whatever state it is
// in.
func (m *SessionManager) Logout(ctx context.Context) {
	m.chain.Delete(ctx, storage.KeySession)
}
