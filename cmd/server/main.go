package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/config"
	"deskmates.dev/internal/handlers"
	"deskmates.dev/internal/scene"
	"deskmates.dev/internal/services"
	"deskmates.dev/internal/session"
	"deskmates.dev/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults are used when empty)")
	skipAssets := flag.Bool("skip-asset-check", false, "start even if sprite files are missing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}
	log := newLogger(cfg.Log)

	layout, err := config.LoadLayout(cfg.Scene.LayoutPath)
	if err != nil {
		log.WithError(err).Fatal("loading layout")
	}

	groups := make([]string, 0, len(layout.Groups))
	for _, g := range layout.Groups {
		groups = append(groups, g.Name)
	}
	manifest := scene.DefaultManifest(cfg.Scene.Characters, groups)
	if err := manifest.Verify(os.DirFS(cfg.Scene.AssetDir)); err != nil {
		if !*skipAssets {
			log.WithError(err).WithField("asset_dir", cfg.Scene.AssetDir).Fatal("scene assets incomplete")
		}
		log.WithError(err).Warn("scene assets incomplete, continuing")
	}

	opts := []scene.Option{scene.WithTuning(cfg.Scene.Tuning)}
	if cfg.Scene.Seed != 0 {
		opts = append(opts, scene.WithRandom(scene.NewRNG(cfg.Scene.Seed)))
	}
	sc, err := scene.New(layout, manifest, opts...)
	if err != nil {
		log.WithError(err).Fatal("creating scene")
	}

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = ephemeralSecret()
		log.Warn("session.secret not set, sessions will not survive a restart")
	}
	sessions := session.NewCodec(cfg.Session.Secret, session.Options{
		Name:   cfg.Session.CookieName,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})

	if cfg.Chat.APIKey == "" {
		log.Warn("chat.api_key not set, chat requests will be rejected upstream")
	}

	deps := handlers.Deps{
		Scene:    services.NewSceneService(sc, cfg.Scene.TickRate, handlers.AssetBase, log),
		Chat:     services.NewChatService(cfg.Chat, nil, log),
		Sessions: sessions,
		Log:      log,
	}

	if cfg.AuthEnabled() {
		users, err := store.OpenSQLite(cfg.Database.Path)
		if err != nil {
			log.WithError(err).Fatal("opening user store")
		}
		defer users.Close()

		deps.Auth = services.NewAuthService(cfg.Auth, nil, log)
		deps.Users = services.NewUserService(users, log)
	} else {
		log.Warn("auth.url not set, sign-in is disabled")
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := deps.Scene.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("scene loop stopped")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.SetupRoutes(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel2()
		if err := srv.Shutdown(ctx2); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":   cfg.Server.Addr,
		"agents": cfg.Scene.Tuning.Agents,
		"auth":   cfg.AuthEnabled(),
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("ListenAndServe")
	}
	log.Info("stopped")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func ephemeralSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
