package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/handler/predict"
	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/metrics"
	middlewarePkg "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/middleware"
)

// Options 控制路由上的可选端点。
type Options struct {
	MaxUploadBytes int64
	MetricsEnabled bool
}

// NewRouter wires HTTP routes to the prediction service.
func NewRouter(svc predict.Predictor, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	predict.New(svc, opts.MaxUploadBytes).RegisterRoutes(r)

	if opts.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	return r
}
