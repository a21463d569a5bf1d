package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"video-platform/internal/apperr"
	"video-platform/internal/comments"
	"video-platform/internal/database"
	"video-platform/internal/engagement"
	"video-platform/internal/lifecycle"
	"video-platform/internal/logging"
	"video-platform/internal/middleware"
	"video-platform/internal/streaming"
	"video-platform/internal/views"
)

var log = logging.For("http")

// Catalog lists videos for browsing.
type Catalog interface {
	ListVideos(ctx context.Context, limit, offset int) ([]*database.Video, error)
	ListChannelVideos(ctx context.Context, ownerID string, includeHidden bool) ([]*database.Video, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ViewRegistrar decides whether a view counts.
type ViewRegistrar interface {
	RegisterView(ctx context.Context, videoID, viewer string) (bool, error)
}

// FileLocator resolves a storage key to a local path.
type FileLocator interface {
	Path(key string) (string, error)
}

// Deps are the services behind the HTTP surface.
type Deps struct {
	Catalog      Catalog
	Lifecycle    *lifecycle.Service
	Views        ViewRegistrar
	Fingerprints *views.Fingerprinter
	// Proxies whose forwarding headers identify anonymous viewers; nil trusts none.
	Proxies    *middleware.TrustedProxies
	Ratings    *engagement.Ledger
	Comments   *comments.Service
	VideoFiles FileLocator
	// Probes are checked by /readyz and /healthz, keyed by name.
	Probes map[string]Pinger
}

// Config bounds request handling.
type Config struct {
	MaxVideoBytes     int64
	MaxThumbnailBytes int64
	Streaming         streaming.Config
}

// Handlers serves the video platform API.
type Handlers struct {
	catalog      Catalog
	lifecycle    *lifecycle.Service
	views        ViewRegistrar
	fingerprints *views.Fingerprinter
	proxies      *middleware.TrustedProxies
	ratings      *engagement.Ledger
	comments     *comments.Service
	videoFiles   FileLocator
	probes       map[string]Pinger
	cfg          Config
	started      time.Time
}

// New returns Handlers over deps.
func New(deps Deps, cfg Config) *Handlers {
	return &Handlers{
		catalog:      deps.Catalog,
		lifecycle:    deps.Lifecycle,
		views:        deps.Views,
		fingerprints: deps.Fingerprints,
		proxies:      deps.Proxies,
		ratings:      deps.Ratings,
		comments:     deps.Comments,
		videoFiles:   deps.VideoFiles,
		probes:       deps.Probes,
		cfg:          cfg,
		started:      time.Now(),
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/videos", h.ListVideos).Methods(http.MethodGet)
	api.HandleFunc("/videos", h.SubmitVideo).Methods(http.MethodPost)
	api.HandleFunc("/videos/{id}", h.GetVideo).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}", h.UpdateVideo).Methods(http.MethodPatch)
	api.HandleFunc("/videos/{id}", h.DeleteVideo).Methods(http.MethodDelete)
	api.HandleFunc("/videos/{id}/status", h.GetVideoStatus).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}/stream", h.StreamVideo).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/videos/{id}/views", h.RegisterView).Methods(http.MethodPost)
	api.HandleFunc("/videos/{id}/thumbnail", h.ReplaceThumbnail).Methods(http.MethodPut)
	api.HandleFunc("/videos/{id}/rate", h.RateVideo).Methods(http.MethodPost)
	api.HandleFunc("/videos/{id}/ratings", h.VideoRatings).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}/comments", h.ListComments).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}/comments", h.AddComment).Methods(http.MethodPost)
	api.HandleFunc("/channels/{userId}/videos", h.ListChannelVideos).Methods(http.MethodGet)

	api.HandleFunc("/comments/{id}", h.DeleteComment).Methods(http.MethodDelete)
	api.HandleFunc("/comments/{id}/replies", h.AddReply).Methods(http.MethodPost)
	api.HandleFunc("/comments/{id}/rate", h.RateComment).Methods(http.MethodPost)
	api.HandleFunc("/comments/{id}/ratings", h.CommentRatings).Methods(http.MethodGet)
}

// writeError maps err onto a status code and a client-safe message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if errors.Is(err, context.Canceled) {
		// client went away
		return
	}
	if status >= http.StatusInternalServerError {
		log.Error("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		log.Debug("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSONError(w, apperr.Message(err), status)
}
