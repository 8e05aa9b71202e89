package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long a local ID token stays valid.
const DefaultTokenTTL = time.Hour

type localAccount struct {
	uid          string
	email        string
	passwordHash []byte
}

type localToken struct {
	uid     string
	expires time.Time
}

// LocalAuth is an in-process identity provider for development and tests.
// Accounts and tokens live in memory and vanish on restart.
type LocalAuth struct {
	mu       sync.RWMutex
	byEmail  map[string]*localAccount
	byUID    map[string]*localAccount
	tokens   map[string]localToken
	ttl      time.Duration
	now      func() time.Time
	hashCost int
}

var _ IdentityProvider = (*LocalAuth)(nil)

// NewLocalAuth creates an empty local provider.
func NewLocalAuth() *LocalAuth {
	return &LocalAuth{
		byEmail:  make(map[string]*localAccount),
		byUID:    make(map[string]*localAccount),
		tokens:   make(map[string]localToken),
		ttl:      DefaultTokenTTL,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

func (l *LocalAuth) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	email, err := normalizeSignUp(email, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byEmail[email]; exists {
		return nil, ErrEmailExists
	}
	acct := &localAccount{
		uid:          uuid.NewString(),
		email:        email,
		passwordHash: hash,
	}
	l.byEmail[email] = acct
	l.byUID[acct.uid] = acct

	return l.issueLocked(acct), nil
}

func (l *LocalAuth) Login(ctx context.Context, email, password string) (*Credentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	l.mu.RLock()
	acct, ok := l.byEmail[email]
	l.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.issueLocked(acct), nil
}

func (l *LocalAuth) Logout(ctx context.Context, uid string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byUID[uid]; !ok {
		return ErrUserNotFound
	}
	for token, t := range l.tokens {
		if t.uid == uid {
			delete(l.tokens, token)
		}
	}
	return nil
}

func (l *LocalAuth) CurrentUser(ctx context.Context, uid string) (*UserClaims, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.byUID[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return acct.claims(), nil
}

func (l *LocalAuth) VerifyToken(ctx context.Context, idToken string) (*UserClaims, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tokens[idToken]
	if !ok || !l.now().Before(t.expires) {
		return nil, ErrInvalidToken
	}
	acct, ok := l.byUID[t.uid]
	if !ok {
		return nil, ErrInvalidToken
	}
	return acct.claims(), nil
}

// issueLocked mints a token pair. Callers hold l.mu.
func (l *LocalAuth) issueLocked(acct *localAccount) *Credentials {
	idToken := uuid.NewString()
	l.tokens[idToken] = localToken{uid: acct.uid, expires: l.now().Add(l.ttl)}
	return &Credentials{
		IDToken:      idToken,
		RefreshToken: uuid.NewString(),
		ExpiresIn:    l.ttl,
		User:         acct.claims(),
	}
}

func (a *localAccount) claims() *UserClaims {
	return &UserClaims{
		UID:   a.uid,
		Email: a.email,
	}
}
