package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/clipdeck-backend/api/controllers"
	"github.com/angelmondragon/clipdeck-backend/api/middleware"
	"github.com/angelmondragon/clipdeck-backend/pkg/config"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/clipdeck-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Clips      controllers.ClipService
	Processing controllers.ProcessingService
	Idem       pkgredis.IdempotencyStore
	Registry   *prometheus.Registry
	Pingers    map[string]controllers.Pinger
}

// NewRouter wires the full route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.CORS())

	r.Get("/health/live", controllers.HealthLive(deps.Config))
	r.Get("/health/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.Pingers))

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.OperatorContext(deps.Logger))
		api.Use(middleware.Idempotency(deps.Idem, deps.Logger))

		api.Route("/clips", func(rt chi.Router) {
			rt.Get("/", controllers.ClipList(deps.Clips, deps.Logger))
			rt.Post("/", controllers.ClipCreate(deps.Clips, deps.Logger))
			rt.Post("/approve", controllers.ClipApprove(deps.Clips, deps.Logger))
			rt.Post("/reject", controllers.ClipReject(deps.Clips, deps.Logger))
			rt.Post("/bulk-action", controllers.ClipBulkAction(deps.Clips, deps.Logger))
			rt.Get("/{clipId}", controllers.ClipDetail(deps.Clips, deps.Logger))
			rt.Patch("/{clipId}", controllers.ClipUpdate(deps.Clips, deps.Logger))
			rt.Delete("/{clipId}", controllers.ClipDelete(deps.Clips, deps.Logger))
		})

		api.Post("/publish", controllers.Publish(deps.Clips, deps.Logger))
		api.Get("/processing/count", controllers.ProcessingCount(deps.Processing, deps.Logger))
	})

	return r
}
