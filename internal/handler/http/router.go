package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Progress mounts GET /api/v1/payroll/runs/{month}/events when set.
	Progress ProgressHandler
}

func NewRouter(opts RouterOptions, attendanceHandler AttendanceHandler, payrollHandler PayrollHandler, policyHandler PolicyHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/captures", attendanceHandler.Capture)
			r.Post("/manual", attendanceHandler.RecordManual)
			r.Get("/{employeeID}", attendanceHandler.GetMonthly)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/runs", payrollHandler.RunBatch)
			if opts.Progress != nil {
				r.Get("/runs/{month}/events", opts.Progress.Stream)
			}

			r.Route("/records", func(r chi.Router) {
				r.Get("/", payrollHandler.ListRecords)
				r.Get("/{employeeID}/{month}", payrollHandler.GetRecord)
				r.Post("/{employeeID}/{month}/finalize", payrollHandler.Finalize)
			})

			r.Put("/adjustments/{employeeID}/{month}", payrollHandler.UpsertAdjustments)
		})

		r.Get("/policy", policyHandler.Get)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
