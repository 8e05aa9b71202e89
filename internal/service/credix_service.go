package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/credix-app/credix/backend/internal/assets"
	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/ingest"
	"github.com/credix-app/credix/backend/internal/reconcile"
	"github.com/credix-app/credix/backend/internal/search"
	"github.com/credix-app/credix/backend/internal/session"
	"github.com/credix-app/credix/backend/internal/store"
)

// Deps are the collaborators of the service. Store and Identity are
// required; the rest fall back to in-process defaults.
type Deps struct {
	Store       store.Store
	Identity    auth.IdentityProvider
	Assets      assets.Uploader
	Search      search.Index
	Interpreter *ingest.Interpreter
	Sessions    *session.Manager
	Logger      zerolog.Logger

	// TrustContextClaims makes GetCurrentUser answer from the request's
	// claims instead of asking the identity provider. Set under SKIP_AUTH,
	// where the dev user has no provider account.
	TrustContextClaims bool
}

type CredixService struct {
	store       store.Store
	engine      *reconcile.Engine
	interpreter *ingest.Interpreter
	sessions    *session.Manager
	identity    auth.IdentityProvider
	assets      assets.Uploader
	search      search.Index
	log         zerolog.Logger
	now         func() time.Time
	trustClaims bool
}

func NewCredixService(d Deps) *CredixService {
	log := d.Logger.With().Str("component", "service").Logger()

	if d.Interpreter == nil {
		d.Interpreter = ingest.New(ingest.DefaultOptions(), d.Logger)
	}
	if d.Sessions == nil {
		d.Sessions = session.NewManager(d.Store, d.Logger)
	}
	if d.Search == nil {
		d.Search = search.NewMemoryIndex()
	}

	return &CredixService{
		store:       d.Store,
		engine:      reconcile.NewEngine(d.Store, d.Logger),
		interpreter: d.Interpreter,
		sessions:    d.Sessions,
		identity:    d.Identity,
		assets:      d.Assets,
		search:      d.Search,
		log:         log,
		now:         time.Now,
		trustClaims: d.TrustContextClaims,
	}
}

// Sessions exposes the session manager so the server can close every
// subscription on shutdown.
func (s *CredixService) Sessions() *session.Manager {
	return s.sessions
}
