package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"examhub.org/internal/auth"
	"examhub.org/internal/config"
	"examhub.org/internal/download"
	"examhub.org/internal/httpapi"
	"examhub.org/internal/mail"
	"examhub.org/internal/obs"
	"examhub.org/internal/quiz"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	policy, err := auth.NewPolicy(cfg.Auth.Permissions)
	if err != nil {
		log.Fatalf("permissions: %v", err)
	}

	var store auth.Store
	if db != nil {
		store = auth.NewPGStore(db)
	} else {
		log.Fatal("database dsn is required")
	}

	authSvc, err := auth.NewService(store, policy, cfg.Auth.Secret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAlgorithm(cfg.Auth.Algorithm),
		auth.WithTokenTTL(cfg.Auth.TokenTTL.Std()),
	)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	quizSvc, err := quiz.NewService(quiz.NewPGStore(db))
	if err != nil {
		log.Fatalf("quiz: %v", err)
	}

	var mailSvc *mail.Service
	if cfg.Mail.IMAPAddr != "" {
		mailSvc, err = mail.NewService(cfg.Mail.IMAPAddr, cfg.Mail.Username, cfg.Mail.Password)
		if err != nil {
			log.Fatalf("mail: %v", err)
		}
	}

	var fetcher *download.Fetcher
	if cfg.Download.Dir != "" {
		fetcher, err = download.NewFetcher(cfg.Download.Dir)
		if err != nil {
			log.Fatalf("download: %v", err)
		}
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, httpapi.Deps{
		Auth:      authSvc,
		Quiz:      quizSvc,
		Mail:      mailSvc,
		Fetcher:   fetcher,
		ExportDir: cfg.Mail.ExportDir,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting examhub-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
