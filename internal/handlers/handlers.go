package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/config"
	"deskmates.dev/internal/middleware"
	"deskmates.dev/internal/services"
	"deskmates.dev/internal/session"
)

// AssetBase is the URL prefix scene assets are served under
const AssetBase = "/assets"

// Deps are the long-lived services the routes are built on. Auth and Users
// are nil when no auth provider is configured.
type Deps struct {
	Scene    *services.SceneService
	Chat     *services.ChatService
	Auth     *services.AuthService
	Users    *services.UserService
	Sessions *session.Codec
	Log      logrus.FieldLogger
}

// SetupRoutes configures all routes and returns the router
func SetupRoutes(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	log := deps.Log

	// Middleware
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	// Initialize handlers
	sceneHandler := NewSceneHandler(deps.Scene, log)
	chatHandler := NewChatHandler(deps.Chat, log)

	var refresher middleware.Refresher
	var authHandler *AuthHandler
	if deps.Auth != nil {
		refresher = deps.Auth
		authHandler = NewAuthHandler(deps.Auth, deps.Users, deps.Sessions, log)
	}
	requireSession := middleware.RequireSession(deps.Sessions, refresher, log)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// websocket upgrades cannot go through the gzip writer
		r.Get("/scene/ws", sceneHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(gzipped)

			r.Get("/scene", sceneHandler.GetScene)
			r.Get("/scene/frame", sceneHandler.GetFrame)

			r.Group(func(r chi.Router) {
				if cfg.Chat.RequireSession {
					r.Use(requireSession)
				}
				r.Post("/chat", chatHandler.Send)
			})

			r.Route("/auth", func(r chi.Router) {
				if authHandler == nil {
					r.HandleFunc("/*", authDisabled)
					return
				}
				r.Post("/signup", authHandler.SignUp)
				r.Post("/signin", authHandler.SignIn)
				r.Get("/oauth/{provider}", authHandler.OAuth)
				r.Post("/signout", authHandler.SignOut)
				r.Get("/session", authHandler.Session)
			})

			// Health check
			r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			})
		})
	})

	if authHandler != nil {
		r.Get("/auth/callback", authHandler.Callback)
	}
	r.Get("/auth-error", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(cfg.Server.StaticDir, "auth-error.html"))
	})

	// Static files
	fileServer := http.FileServer(http.Dir(cfg.Server.StaticDir))
	r.Handle("/static/*", gzhttp.GzipHandler(http.StripPrefix("/static", fileServer)))

	// Sprite sheets and backgrounds named by the scene manifest
	assetServer := http.FileServer(http.Dir(cfg.Scene.AssetDir))
	r.Handle(AssetBase+"/*", gzhttp.GzipHandler(http.StripPrefix(AssetBase, assetServer)))

	// Serve index.html at root
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(cfg.Server.StaticDir, "index.html"))
	})

	return r
}

func gzipped(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

func authDisabled(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusServiceUnavailable, "Authentication is not configured")
}

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 8 << 10

// decodeJSON reads a capped JSON body into v. On failure it writes the error
// response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	} else {
		respondError(w, http.StatusBadRequest, "Invalid request body")
	}
	return false
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("encoding JSON response")
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
