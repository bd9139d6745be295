package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	domain "github.com/R3E-Network/heroapps/internal/app/domain/apps"
	"github.com/R3E-Network/heroapps/internal/app/monitor"
	"github.com/R3E-Network/heroapps/internal/app/system"
	"github.com/R3E-Network/heroapps/internal/httputil"
)

// ServiceName is reported by the liveness and info endpoints.
const ServiceName = "Hero Apps Server"

// AppService is the listing and lookup contract the handlers depend on.
type AppService interface {
	List(ctx context.Context, p domain.ListParams) (domain.ListResult, error)
	Get(ctx context.Context, id string) (domain.App, error)
}

// StatusProvider reports the latest storage health check.
type StatusProvider interface {
	Status() monitor.Status
}

// Options holds the optional collaborators of the router.
type Options struct {
	// MetricsPath mounts MetricsHandler when both are set.
	MetricsPath    string
	MetricsHandler http.Handler
	// Storage and Process feed GET /info; either may be nil.
	Storage StatusProvider
	Process *system.ProcessReporter
	Version string
}

// handler bundles HTTP endpoints for the apps service.
type handler struct {
	svc  AppService
	opts Options
}

// NotFoundResponse is the body returned for unknown routes.
type NotFoundResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// LivenessResponse is the body of GET /.
type LivenessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// InfoResponse is the body of GET /info.
type InfoResponse struct {
	Status    string               `json:"status"`
	Service   string               `json:"service"`
	Version   string               `json:"version,omitempty"`
	Timestamp string               `json:"timestamp"`
	Storage   *monitor.Status      `json:"storage,omitempty"`
	Process   *system.ProcessStats `json:"process,omitempty"`
}

var readMethods = []string{http.MethodGet, http.MethodHead}

// NewHandler returns a router exposing the apps REST API.
func NewHandler(svc AppService, opts Options) http.Handler {
	h := &handler{svc: svc, opts: opts}

	// GET routes answer HEAD as well; net/http drops the body.
	r := mux.NewRouter()
	r.HandleFunc("/", h.liveness).Methods(readMethods...)
	r.HandleFunc("/apps", h.listApps).Methods(readMethods...)
	r.HandleFunc("/apps/", h.listApps).Methods(readMethods...)
	r.HandleFunc("/apps/{id}", h.getApp).Methods(readMethods...)
	r.HandleFunc("/info", h.info).Methods(readMethods...)
	if opts.MetricsPath != "" && opts.MetricsHandler != nil {
		r.Handle(opts.MetricsPath, opts.MetricsHandler).Methods(readMethods...)
	}

	notFound := http.HandlerFunc(apiNotFound)
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound
	return r
}

func (h *handler) liveness(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "ok", Message: ServiceName})
}

func (h *handler) listApps(w http.ResponseWriter, r *http.Request) {
	params := domain.ParseListParams(r.URL.Query())

	result, err := h.svc.List(r.Context(), params)
	if err != nil {
		httputil.InternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *handler) getApp(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.svc.Get(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		httputil.BadRequest(w, "Invalid ID")
	case errors.Is(err, domain.ErrNotFound):
		httputil.WriteJSON(w, http.StatusOK, nil)
	case err != nil:
		httputil.InternalError(w)
	default:
		httputil.WriteJSON(w, http.StatusOK, rec)
	}
}

func (h *handler) info(w http.ResponseWriter, r *http.Request) {
	resp := InfoResponse{
		Status:    "ok",
		Service:   ServiceName,
		Version:   h.opts.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if h.opts.Storage != nil {
		st := h.opts.Storage.Status()
		resp.Storage = &st
		if !st.Healthy {
			resp.Status = "degraded"
		}
	}
	if h.opts.Process != nil {
		stats := h.opts.Process.Snapshot(r.Context())
		resp.Process = &stats
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusNotFound, NotFoundResponse{
		Status: http.StatusNotFound,
		Error:  "API not found",
	})
}
