package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router uses the standard library http.ServeMux, no third party
// routing dependency.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodGate(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterMaintenanceRoutes wires the operator endpoints.
func (r *Router) RegisterMaintenanceRoutes(m *MaintenanceHandler) {
	r.Handle("/api/v1/maintenance/send-subscriptions", methodGate(http.MethodPost, m.SendSubscriptions))
	r.Handle("/api/v1/maintenance/remove-subscriptions", methodGate(http.MethodPost, m.RemoveSubscriptions))
	r.Handle("/api/v1/maintenance/run", methodGate(http.MethodPost, m.RunImports))
	r.Handle("/api/v1/maintenance/import-stats", methodGate(http.MethodGet, m.ImportStats))
	r.Handle("/api/v1/maintenance/import-stats/export", methodGate(http.MethodGet, m.ExportImportStats))
}

// RegisterImageRoutes wires the capture ingestion and query endpoints.
func (r *Router) RegisterImageRoutes(h *ImageHandler) {
	r.Handle("/api/v1/images", methodGate(http.MethodPost, h.SubmitImage))
	r.Handle("/api/v1/images/stationary", methodGate(http.MethodPost, h.SubmitStationaryImage))
	r.Handle("/api/v1/images/stationary/", methodGate(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		oid := strings.TrimPrefix(req.URL.Path, "/api/v1/images/stationary/")
		if oid == "" || strings.Contains(oid, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.GetStationaryImage(w, req, oid)
	}))
	r.Handle("/api/v1/images/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/images/")
		switch {
		case rest == "":
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(rest, "/data"):
			h.GetImageData(w, req, strings.TrimSuffix(rest, "/data"))
		case strings.Contains(rest, "/"):
			w.WriteHeader(http.StatusNotFound)
		default:
			h.GetImage(w, req, rest)
		}
	})
}

// RegisterTransactionRoutes wires the transaction lifecycle endpoints.
func (r *Router) RegisterTransactionRoutes(h *TransactionHandler) {
	r.Handle("/api/v1/transactions", methodGate(http.MethodGet, h.ListTransactions))
	r.Handle("/api/v1/transactions/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/transactions/")
		switch {
		case strings.HasSuffix(rest, "/process") && req.Method == http.MethodPost:
			h.MarkProcessed(w, req, strings.TrimSuffix(rest, "/process"))
		case strings.HasSuffix(rest, "/images") && req.Method == http.MethodGet:
			h.ListImages(w, req, strings.TrimSuffix(rest, "/images"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}
