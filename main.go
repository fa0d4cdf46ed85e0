package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfg "github.com/example/blocksharex/internal/config"
	"github.com/gorilla/mux"
	_ "modernc.org/sqlite"
)

type App struct {
	DB             DB
	auth           *AuthService
	limiter        *RateLimiter
	pipeline       *UploadPipeline
	classifier     Classifier
	pool           *WorkerPool
	maxUploadBytes int64
}

// routeLimits mirrors the published per-route limits; anything not
// listed falls back to 10 calls per 60s.
func routeLimits() map[string]RouteLimit {
	return map[string]RouteLimit{
		"/register":  {MaxCalls: 5, Window: 60 * time.Second},
		"/login":     {MaxCalls: 10, Window: 60 * time.Second},
		"/upload":    {MaxCalls: 3, Window: 60 * time.Second},
		"/recommend": {MaxCalls: 10, Window: 60 * time.Second},
	}
}

func (a *App) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(SecurityHeaders)
	r.Use(a.Logging)
	r.Use(a.CORS)

	// Liveness endpoints carry no rate limit and no auth
	r.HandleFunc("/", a.HandleRoot).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if p, ok := a.DB.(interface{ ping() bool }); ok {
			if !p.ping() {
				w.WriteHeader(503)
				w.Write([]byte(`{"ready":false}`))
				return
			}
		}
		w.WriteHeader(200)
		w.Write([]byte(`{"ready":true}`))
	}).Methods("GET")

	// The rate limiter guards every route below before any other
	// work; protected routes then verify the bearer token.
	limited := func(h http.HandlerFunc) http.Handler {
		return a.RateLimit(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return a.RateLimit(a.BearerAuth(h))
	}

	r.Handle("/register", limited(a.HandleRegister)).Methods("POST")
	r.Handle("/login", limited(a.HandleLogin)).Methods("POST")
	r.Handle("/upload", protected(a.HandleUpload)).Methods("POST")
	r.Handle("/recommend", protected(a.HandleRecommend)).Methods("POST")
	r.Handle("/files", protected(a.HandleListFiles)).Methods("GET")
	r.Handle("/files/{contentId}", protected(a.HandleDownload)).Methods("GET")

	return r
}

func main() {
	c, err := cfg.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var db DB
	switch c.DBAdapter {
	case "sqlite":
		s, err := NewSQLiteDB(c.SQLiteFile)
		if err != nil {
			log.Fatalf("sqlite init: %v", err)
		}
		db = s
	case "postgres":
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			log.Fatalf("postgres config error: %v", err)
		}
		log.Println("Applying database migrations...")
		if err := ApplyMigrations("./migrations", dsn); err != nil {
			log.Printf("migrations warning: %v", err)
		}
		p, err := NewPostgresDB(dsn)
		if err != nil {
			log.Fatalf("postgres init: %v", err)
		}
		db = p
		log.Println("Connected to PostgreSQL database")
	case "memory":
		log.Println("Using in-memory database (not recommended for production)")
		db = NewMemoryDB()
	default:
		log.Fatalf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}

	var store ContentStore
	switch c.StorageType {
	case "s3":
		slog.Info("using S3 content store", "bucket", c.AWSBucket)
		s3Store, err := NewS3ContentStore(context.Background(), c.AWSBucket, c.AWSRegion)
		if err != nil {
			log.Fatalf("s3 store init: %v", err)
		}
		store = s3Store
	default:
		slog.Info("using local content store", "dir", c.DataDir)
		local, err := NewLocalContentStore(c.DataDir)
		if err != nil {
			log.Fatalf("local store init: %v", err)
		}
		store = local
	}

	// The model loads exactly once; a load failure leaves the
	// recommend route answering 500 instead of crashing the gateway.
	var classifier Classifier = unloadedClassifier{}
	if model, err := LoadClassifier(c.ModelPath); err != nil {
		slog.Error("model load failed; /recommend will be unavailable", "path", c.ModelPath, "error", err)
	} else {
		slog.Info("model loaded", "path", c.ModelPath, "inputDim", model.InputDim())
		classifier = model
	}

	pool := NewWorkerPool(c.WorkerCount)
	defer pool.Close()

	app := &App{
		DB:      db,
		auth:    NewAuthService(db, []byte(c.JwtSecret), c.TokenTTL),
		limiter: NewRateLimiter(routeLimits()),
		pipeline: NewUploadPipeline(
			store,
			NewDBLedger(db),
			&HeuristicSafetyChecker{MaxBytes: c.MaxUploadBytes},
			ContentTagger{},
			pool,
			c.TempDir,
		),
		classifier:     classifier,
		pool:           pool,
		maxUploadBytes: c.MaxUploadBytes,
	}

	srv := &http.Server{Handler: app.Router(), Addr: ":" + c.Port, ReadTimeout: 30 * time.Second, WriteTimeout: 60 * time.Second}

	go func() {
		fmt.Println("Starting gateway on", c.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if closer, ok := app.DB.(interface{ close() error }); ok {
		_ = closer.close()
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown failed:%+v", err)
	}
	fmt.Println("Server exited properly")
}
