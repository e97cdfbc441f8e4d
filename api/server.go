/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/board            Resolved board view
  /api/kids/*           Kid management
  /api/chores/*         Chore management and completion
  /api/completions/*    Approval and undo
  /api/rewards/*        Reward management and redemption
  /*                    Static files (frontend)

STATIC FILE SERVING:
  Serves the built frontend from web/dist/ when present, falling back to
  index.html for client-side routing.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/board", h.GetBoard)

		// Kid routes
		r.Route("/kids", func(r chi.Router) {
			r.Get("/", h.ListKids)
			r.Post("/", h.CreateKid)
			r.Put("/{id}", h.UpdateKid)
		})

		// Chore routes
		r.Route("/chores", func(r chi.Router) {
			r.Get("/", h.ListChores)
			r.Post("/", h.CreateChore)
			r.Put("/{id}", h.UpdateChore)
			r.Delete("/{id}", h.DeleteChore)
			r.Post("/{id}/complete", h.CompleteChore)
			r.Post("/{id}/pause", h.PauseChore)
			r.Post("/{id}/resume", h.ResumeChore)
		})

		// Completion routes
		r.Route("/completions", func(r chi.Router) {
			r.Get("/pending", h.ListPendingApprovals)
			r.Post("/{id}/approve", h.ApproveCompletion)
			r.Delete("/{id}", h.UndoCompletion)
		})

		// Reward routes
		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", h.ListRewards)
			r.Post("/", h.CreateReward)
			r.Put("/{id}", h.UpdateReward)
			r.Post("/{id}/archive", h.ArchiveReward)
			r.Post("/{id}/redeem", h.RedeemReward)
		})
	})

	// Serve static files (frontend build)
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// Try relative to executable
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Chore Board</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Chore Board API</h1>
<p>The frontend is not built yet. Run <code>cd web && npm install && npm run build</code></p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/board">/api/board</a> - Resolved board view</li>
<li><a href="/api/kids">/api/kids</a> - List kids</li>
<li><a href="/api/chores">/api/chores</a> - List chores</li>
<li><a href="/api/rewards">/api/rewards</a> - List rewards</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
