package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"

	"github.com/blockedby/hiring-pipeline/internal/logger"
)

// Server represents the Fuego API server.
type Server struct {
	fuego *fuego.Server
	deps  *Dependencies

	version      string
	publicOrigin string
	now          func() time.Time
	log          *logger.Logger
}

// Dependencies contains all service dependencies.
type Dependencies struct {
	Backend Backend
	// Stats is optional; /api/v1/stats is only served when set.
	Stats  StatsProvider
	Logger *logger.Logger
	// Now stamps export filenames; defaults to time.Now.
	Now func() time.Time
}

// Config holds API server configuration.
type Config struct {
	Port        int
	Title       string
	Description string
	Version     string
	// PublicOrigin prefixes root-relative resume links in exports.
	PublicOrigin string
}

// NewServer creates a new Fuego API server.
func NewServer(cfg *Config, deps *Dependencies) *Server {
	s := fuego.NewServer(
		fuego.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		fuego.WithEngineOptions(
			fuego.WithOpenAPIConfig(fuego.OpenAPIConfig{
				PrettyFormatJSON: true,
				DisableLocalSave: true,
				SwaggerURL:       "/docs",
				SpecURL:          "/openapi.json",
				UIHandler: func(specURL string) http.Handler {
					return ScalarHandler(specURL, cfg.Title, cfg.Description)
				},
			}),
		),
	)

	s.OpenAPI.Description().Info.Title = cfg.Title
	s.OpenAPI.Description().Info.Description = cfg.Description
	s.OpenAPI.Description().Info.Version = cfg.Version

	// the outer router logs requests; only recover and tag them here
	fuego.Use(s, middleware.RequestID)
	fuego.Use(s, middleware.Recoverer)

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	now := deps.Now
	if now == nil {
		now = defaultNow
	}

	srv := &Server{
		fuego:        s,
		deps:         deps,
		version:      version,
		publicOrigin: cfg.PublicOrigin,
		now:          now,
		log:          logger.OrGlobal(deps.Logger).Component("api"),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) registerRoutes() {
	fuego.Get(s.fuego, "/api/v1/health", s.healthCheck,
		option.Summary("Health Check"),
		option.Description("Returns the health status of the API"),
		option.Tags("System"),
	)

	// Jobs API
	fuego.Get(s.fuego, "/api/v1/jobs", s.listJobs,
		option.Summary("List Jobs"),
		option.Description("Returns every job with its application count"),
		option.Tags("Jobs"),
	)

	// Applications API
	fuego.Get(s.fuego, "/api/v1/applications", s.listApplications,
		option.Summary("List Applications"),
		option.Description("Returns applications of one job, or of every job when job_id is omitted"),
		option.Query("job_id", "Filter by job ID"),
		option.Tags("Applications"),
	)

	fuego.Patch(s.fuego, "/api/v1/applications/{id}/status", s.updateApplicationStatus,
		option.Summary("Update Application Status"),
		option.Description("Moves an application to another pipeline status"),
		option.Tags("Applications"),
	)

	// Interviews API
	fuego.Get(s.fuego, "/api/v1/interviews", s.listInterviews,
		option.Summary("List Interviews"),
		option.Description("Returns a job's interviews, cancelled ones included"),
		option.Query("job_id", "Job ID (required)"),
		option.Tags("Interviews"),
	)

	fuego.Post(s.fuego, "/api/v1/interviews", s.scheduleInterview,
		option.Summary("Schedule Interview"),
		option.Description("Creates the pair's interview or reschedules the existing one in place"),
		option.Tags("Interviews"),
	)

	fuego.Delete(s.fuego, "/api/v1/interviews/{id}", s.cancelInterview,
		option.Summary("Cancel Interview"),
		option.Description("Marks an interview cancelled"),
		option.Tags("Interviews"),
	)

	if s.deps.Stats != nil {
		fuego.Get(s.fuego, "/api/v1/stats", s.getStats,
			option.Summary("Get Statistics"),
			option.Description("Returns application and interview counts"),
			option.Query("job_id", "Restrict to one job"),
			option.Tags("Analytics"),
		)
	}

	// Export
	fuego.GetStd(s.fuego, "/api/v1/export", s.exportApplications,
		option.Summary("Export Applications"),
		option.Description("Returns applications as a CSV document"),
		option.Query("job_id", "Export one job; omit for every job"),
		option.Tags("Export"),
	)
}

// Start runs the API standalone.
func (s *Server) Start() error {
	return s.fuego.Run()
}

// Mux returns the underlying ServeMux for mounting on another router.
func (s *Server) Mux() *http.ServeMux {
	return s.fuego.Mux
}

// MountDocsOn mounts the OpenAPI documentation routes (/docs, /openapi.json)
// on a Chi router, for when the mux is served without Run.
func (s *Server) MountDocsOn(r interface {
	Get(pattern string, handlerFn http.HandlerFunc)
}, title, description string) {
	scalarHandler := ScalarHandler("/openapi.json", title, description)
	r.Get("/docs", func(w http.ResponseWriter, req *http.Request) {
		scalarHandler.ServeHTTP(w, req)
	})

	r.Get("/openapi.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		spec := s.fuego.OpenAPI.Description()
		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	})
}
