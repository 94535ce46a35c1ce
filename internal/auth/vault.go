// Package auth implements the credential vault, the login session state
// machine, and the redundant auth-state cache. All three persist through
// the same storage chain as application state, but always under
// unnamespaced keys: authentication determines the namespace, so it can
// never live inside one.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/state"
	"github.com/dmitrijs2005/taskvault/internal/storage"
)

// Password hash scheme versions. Verification dispatches on the stored
// version; an unrecognized version is a data-model bug and fails hard.
const (
	// HashVersionLegacy is the reversible pre-hashing scheme: base64 of
	// password+shared salt. Kept only so old credentials can still log in;
	// never chosen for new credentials.
	HashVersionLegacy = 1
	// HashVersionSecure is sha256(password+per-credential random salt),
	// hex-encoded.
	HashVersionSecure = 2
)

// legacySharedSalt is the fixed salt the legacy scheme used for every
// credential.
const legacySharedSalt = "task-manager-salt"

const minPasswordLength = 6

const secureSaltBytes = 32

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Credential is a stored account record. Exactly one credential exists per
// normalized email. Timestamps here are plain ISO strings on the wire, not
// tagged objects; only the app state tree uses the tagged form.
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	HashVersion  int       `json:"hashVersion"`
	Salt         string    `json:"salt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// publicView strips secret material.
func (c *Credential) publicView() *state.User {
	return &state.User{ID: c.ID, Email: c.Email, Name: c.Name}
}

// Vault stores registered users and verifies passwords. It owns the
// task_manager_users key.
type Vault struct {
	chain *storage.Chain
	log   logging.Logger
}

func NewVault(chain *storage.Chain, log logging.Logger) *Vault {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Vault{chain: chain, log: log}
}

func (v *Vault) loadAll(ctx context.Context) ([]Credential, error) {
	raw, err := v.chain.Get(ctx, storage.KeyUsers)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var creds []Credential
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return creds, nil
}

func (v *Vault) saveAll(ctx context.Context, creds []Credential) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	return v.chain.Set(ctx, storage.KeyUsers, data)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new credential hashed with the secure scheme and
// returns its public view. Emails are unique case-insensitively.
func (v *Vault) Register(ctx context.Context, email, password, name string) (*state.User, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: malformed email", common.ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty name", common.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, common.ErrWeakPassword
	}

	creds, err := v.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range creds {
		if normalizeEmail(c.Email) == email {
			return nil, common.ErrDuplicateUser
		}
	}

	salt := common.GenerateRandByteArray(secureSaltBytes)
	cred := Credential{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: secureHash(password, salt),
		HashVersion:  HashVersionSecure,
		Salt:         hex.EncodeToString(salt),
		CreatedAt:    time.Now().UTC(),
	}

	if err := v.saveAll(ctx, append(creds, cred)); err != nil {
		return nil, err
	}

	v.log.Info(ctx, "registered user", "userId", cred.ID)
	return cred.publicView(), nil
}

// Authenticate verifies a password against the stored credential. Every
// lookup or verification failure collapses into the same generic error so
// the caller cannot distinguish "no such user" from "wrong password".
//
// A credential still on the legacy scheme is transparently re-hashed with
// the secure scheme and persisted before the user is returned.
func (v *Vault) Authenticate(ctx context.Context, email, password string) (*state.User, error) {
	creds, err := v.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	idx := -1
	for i := range creds {
		if normalizeEmail(creds[i].Email) == email {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, common.ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, &creds[idx])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	if creds[idx].HashVersion == HashVersionLegacy {
		salt := common.GenerateRandByteArray(secureSaltBytes)
		creds[idx].PasswordHash = secureHash(password, salt)
		creds[idx].HashVersion = HashVersionSecure
		creds[idx].Salt = hex.EncodeToString(salt)
		if err := v.saveAll(ctx, creds); err != nil {
			return nil, fmt.Errorf("persist hash upgrade: %w", err)
		}
		v.log.Info(ctx, "upgraded legacy password hash", "userId", creds[idx].ID)
	}

	return creds[idx].publicView(), nil
}

// ChangePassword re-verifies the current password and replaces the hash
// with a fresh secure one.
func (v *Vault) ChangePassword(ctx context.Context, email, current, next string) error {
	if len(next) < minPasswordLength {
		return common.ErrWeakPassword
	}

	creds, err := v.loadAll(ctx)
	if err != nil {
		return err
	}

	email = normalizeEmail(email)
	for i := range creds {
		if normalizeEmail(creds[i].Email) != email {
			continue
		}
		ok, err := verifyPassword(current, &creds[i])
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrInvalidCredentials
		}
		salt := common.GenerateRandByteArray(secureSaltBytes)
		creds[i].PasswordHash = secureHash(next, salt)
		creds[i].HashVersion = HashVersionSecure
		creds[i].Salt = hex.EncodeToString(salt)
		return v.saveAll(ctx, creds)
	}
	return common.ErrInvalidCredentials
}

// DeleteAccount re-verifies the password and removes the credential.
func (v *Vault) DeleteAccount(ctx context.Context, email, password string) error {
	creds, err := v.loadAll(ctx)
	if err != nil {
		return err
	}

	email = normalizeEmail(email)
	for i := range creds {
		if normalizeEmail(creds[i].Email) != email {
			continue
		}
		ok, err := verifyPassword(password, &creds[i])
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrInvalidCredentials
		}
		v.log.Info(ctx, "deleted account", "userId", creds[i].ID)
		return v.saveAll(ctx, append(creds[:i], creds[i+1:]...))
	}
	return common.ErrInvalidCredentials
}

// Exists reports whether a credential with the given id is still stored.
func (v *Vault) Exists(ctx context.Context, userID string) (bool, error) {
	creds, err := v.loadAll(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range creds {
		if c.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

// verifyPassword dispatches on the stored hash version.
func verifyPassword(password string, cred *Credential) (bool, error) {
	switch cred.HashVersion {
	case HashVersionLegacy:
		expected := legacyHash(password)
		return subtle.ConstantTimeCompare([]byte(expected), []byte(cred.PasswordHash)) == 1, nil
	case HashVersionSecure:
		salt, err := hex.DecodeString(cred.Salt)
		if err != nil {
			return false, fmt.Errorf("decode salt for %s: %w", cred.ID, err)
		}
		expected := secureHash(password, salt)
		return subtle.ConstantTimeCompare([]byte(expected), []byte(cred.PasswordHash)) == 1, nil
	default:
		return false, fmt.Errorf("%w: %d", common.ErrUnknownHashVersion, cred.HashVersion)
	}
}

func secureHash(password string, salt []byte) string {
	sum := sha256.Sum256(append([]byte(password), salt...))
	return hex.EncodeToString(sum[:])
}

func legacyHash(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password + legacySharedSalt))
}
