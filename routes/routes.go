package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"portfolio/ai"
	"portfolio/controllers"
	"portfolio/controllers/telegram"
	"portfolio/database"
	"portfolio/middleware"
	"portfolio/utils"
)

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// InitRouter wires the public API. The rate limiters are constructed here,
// once per process, and injected into the routes they guard.
func InitRouter(aiClient *ai.Client) *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks (root level)
	r.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"service":   "portfolio-api",
		})
	})).Methods(http.MethodGet)

	// CORS - origins from CORS_ALLOWED_ORIGINS (comma-separated) or defaults
	origins := []string{
		"http://localhost:3000", "http://localhost:8080",
		"http://127.0.0.1:3000", "http://127.0.0.1:8080",
	}
	if originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS"); originsEnv != "" {
		for _, p := range strings.Split(originsEnv, ",") {
			if o := strings.TrimSpace(p); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With", "X-Request-ID"}),
		)(next)
	})

	api := r.PathPrefix("/v1").Subrouter()
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	// Independent windows: chat turns are frequent, contact submissions rare.
	chatLimiter := middleware.NewFixedWindowLimiter("chat", 20, time.Minute, utils.RedisClient)
	contactLimiter := middleware.NewFixedWindowLimiter("contact", 5, 10*time.Minute, utils.RedisClient)
	if proxies := os.Getenv("TRUSTED_PROXIES"); proxies != "" {
		cidrs := strings.Split(proxies, ",")
		chatLimiter.SetTrustedProxies(cidrs)
		contactLimiter.SetTrustedProxies(cidrs)
	}

	coordinator := telegram.NewCoordinator(database.DB, aiClient)

	api.Handle("/chat/{session_id}", chatLimiter.Middleware(
		controllers.ChatHandler(aiClient, coordinator))).Methods(http.MethodPost)
	api.Handle("/chat/{session_id}", http.HandlerFunc(controllers.ChatHistoryHandler)).Methods(http.MethodGet)

	api.Handle("/contact", contactLimiter.Middleware(
		http.HandlerFunc(controllers.ContactHandler))).Methods(http.MethodPost)

	api.Handle("/telegram/webhook", telegram.WebhookHandler(coordinator)).Methods(http.MethodPost)

	api.Handle("/profile", http.HandlerFunc(controllers.ProfileHandler)).Methods(http.MethodGet)
	api.Handle("/posts", http.HandlerFunc(controllers.PostsHandler)).Methods(http.MethodGet)
	api.Handle("/posts/{slug}", http.HandlerFunc(controllers.PostHandler)).Methods(http.MethodGet)
	api.Handle("/projects", http.HandlerFunc(controllers.ProjectsHandler)).Methods(http.MethodGet)
	api.Handle("/projects/{slug}", http.HandlerFunc(controllers.ProjectHandler)).Methods(http.MethodGet)

	return r
}
