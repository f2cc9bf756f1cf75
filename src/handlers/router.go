package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rafaavmsilva/Menu/src/security"
)

// RouterDeps carries the handlers and middleware the API is built from.
type RouterDeps struct {
	Uploads        *UploadHandler
	Transactions   *TransactionHandler
	CNPJ           *CNPJHandler
	Limiter        *security.RateLimiter
	AllowedOrigins []string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(ContextualLoggerMiddleware)
	r.Use(ProxyHeadersMiddleware)
	r.Use(CORSMiddleware(d.AllowedOrigins))

	limited := func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil {
		limited = d.Limiter.Middleware
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Menu backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(limited).Post("/upload", d.Uploads.HandleUpload)
		r.Get("/upload/{processID}/progress", d.Uploads.HandleProgress)

		r.Get("/transactions", d.Transactions.HandleList)
		r.Get("/transactions/summary", d.Transactions.HandleSummary)
		r.Get("/transactions/export", d.Transactions.HandleExport)
		r.Get("/recebidos", d.Transactions.HandleRecebidos)

		r.Get("/cnpj/failed", d.CNPJ.HandleListFailed)
		r.With(limited).Post("/cnpj/retry", d.CNPJ.HandleRetry)
		r.Get("/cnpj/{cnpj}", d.CNPJ.HandleVerify)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	return r
}
