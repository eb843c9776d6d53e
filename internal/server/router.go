package server

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kedhead/embPO/httpx"
	"github.com/kedhead/embPO/internal/config"
	"github.com/kedhead/embPO/internal/handlers"
	"github.com/kedhead/embPO/internal/mailer"
	"github.com/kedhead/embPO/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config, settings config.Settings, mail mailer.Sender, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	// The desktop shell polls these to detect backend readiness before it
	// issues any API call.
	ok := func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	mux.HandleFunc("/{$}", ok)
	mux.HandleFunc("/api/health", ok)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Purchase-order endpoints
	ph := handlers.NewPurchaseOrderHandler(db, services.NewOrderService(), mail, settings, log)
	mux.HandleFunc("GET /api/purchase-orders", ph.List)
	mux.HandleFunc("POST /api/purchase-orders", ph.Create)
	mux.HandleFunc("GET /api/purchase-orders/{id}", ph.Get)
	mux.HandleFunc("PUT /api/purchase-orders/{id}", ph.Update)
	mux.HandleFunc("DELETE /api/purchase-orders/{id}", ph.Delete)
	mux.HandleFunc("GET /api/purchase-orders/{id}/pdf", ph.PDF)
	mux.HandleFunc("POST /api/purchase-orders/{id}/email", ph.Email)

	return withRecover(withLogging(withCORS(mux, cfg.CORSOrigin), log), log)
}

func withLogging(next http.Handler, log *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

func withRecover(next http.Handler, log *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithField("panic", rec).Error("request panicked")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withCORS admits the dev frontend origin on API routes.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
