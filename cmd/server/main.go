package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	"connectrpc.com/connect"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/credix-app/credix/backend/internal/assets"
	"github.com/credix-app/credix/backend/internal/auth"
	"github.com/credix-app/credix/backend/internal/config"
	"github.com/credix-app/credix/backend/internal/ingest"
	"github.com/credix-app/credix/backend/internal/logger"
	"github.com/credix-app/credix/backend/internal/search"
	"github.com/credix-app/credix/backend/internal/service"
	"github.com/credix-app/credix/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log zerolog.Logger
	if os.Getenv("ENV") == "local" {
		log = logger.NewConsole(cfg.LogLevel)
	} else {
		log = logger.New(cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	storeImpl, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	identity, err := openIdentity(ctx, cfg, log)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()

	var uploader assets.Uploader
	if cfg.AssetsBucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create storage client: %w", err)
		}
		defer client.Close()
		uploader = assets.NewGCSUploader(client, cfg.AssetsBucket)
		log.Info().Str("bucket", cfg.AssetsBucket).Msg("profile photos go to Cloud Storage")
	} else {
		memAssets := assets.NewMemoryUploader(fmt.Sprintf("http://localhost:%s", cfg.Port))
		mux.Handle(assets.MemoryPrefix, memAssets)
		uploader = memAssets
		log.Warn().Msg("ASSETS_BUCKET not set, profile photos are kept in memory")
	}

	var index search.Index = search.NewMemoryIndex()
	if cfg.AlgoliaAppID != "" {
		algolia, err := search.NewAlgoliaClient(search.Config{
			AppID:     cfg.AlgoliaAppID,
			APIKey:    cfg.AlgoliaAPIKey,
			IndexName: cfg.AlgoliaIndexName,
		}, log)
		if err != nil {
			return err
		}
		index = algolia
	}

	aliases, err := cfg.Ingest.ResolveSegmentAliases()
	if err != nil {
		return err
	}
	interpreter := ingest.New(ingest.Options{
		CardHeaders:    append(ingest.DefaultOptions().CardHeaders, cfg.Ingest.CardHeaders...),
		SegmentAliases: aliases,
	}, log)

	svc := service.NewCredixService(service.Deps{
		Store:              storeImpl,
		Identity:           identity,
		Assets:             uploader,
		Search:             index,
		Interpreter:        interpreter,
		Logger:             log,
		TrustContextClaims: cfg.SkipAuth,
	})

	// Debug impersonation runs first so it can set claims in dev mode.
	interceptors := []connect.Interceptor{auth.DebugAuthInterceptor(cfg.SkipAuth)}
	if cfg.SkipAuth {
		log.Warn().Msg("SKIP_AUTH enabled, every request runs as the local dev user")
		interceptors = append(interceptors, auth.LocalDevInterceptor())
	} else {
		interceptors = append(interceptors, auth.AuthInterceptor(identity))
	}

	path, handler := service.NewCredixServiceHandler(svc,
		connect.WithInterceptors(interceptors...),
		connect.WithReadMaxBytes(cfg.MaxRequestBytes),
	)
	mux.Handle(path, handler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Content-Type",
			"Grpc-Timeout",
			"User-Agent",
			"X-Grpc-Web",
			"X-User-Agent",
			"X-Debug-Impersonate-User",
		},
		ExposedHeaders: []string{
			"Grpc-Status",
			"Grpc-Message",
			"Grpc-Status-Details-Bin",
		},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(c.Handler(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.DataBackend).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	// Watch streams never finish on their own.
	svc.Sessions().CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, func(), error) {
	switch cfg.DataBackend {
	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.GoogleCloudProject)
		if err != nil {
			return nil, nil, fmt.Errorf("create firestore client: %w", err)
		}
		log.Info().Str("project", cfg.GoogleCloudProject).Msg("using Firestore store")
		return store.NewFirestoreStore(client), func() { client.Close() }, nil

	case config.BackendSQLite:
		s, err := store.NewSQLiteStore(cfg.SQLiteDBPath, cfg.WatchPollInterval)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLiteDBPath).Msg("using SQLite store")
		return s, func() {
			if err := s.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close SQLite store")
			}
		}, nil

	default:
		log.Info().Msg("using in-memory store")
		return store.NewMemoryStore(), func() {}, nil
	}
}

func openIdentity(ctx context.Context, cfg *config.Config, log zerolog.Logger) (auth.IdentityProvider, error) {
	if cfg.UseFirebaseAuth() {
		fb, err := auth.NewFirebaseAuth(ctx, cfg.GoogleCloudProject, cfg.FirebaseAPIKey)
		if err != nil {
			return nil, fmt.Errorf("initialize Firebase Auth: %w", err)
		}
		log.Info().Msg("using Firebase identity")
		return fb, nil
	}
	log.Warn().Msg("no Firebase project configured, accounts are kept in memory")
	return auth.NewLocalAuth(), nil
}
