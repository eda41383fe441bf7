// Package http assembles the gin route tree and the HTTP server lifecycle.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/internal/interfaces/http/handlers"
)

// RouterConfig aggregates the handler dependencies for the route tree.
type RouterConfig struct {
	Patients      *handlers.PatientHandler
	Prescriptions *handlers.PrescriptionHandler
	Medications   *handlers.MedicationHandler
	Health        *handlers.HealthHandler

	Mode    string // gin mode: debug | release | test
	Logger  logging.Logger
	Metrics bool // expose /metrics
}

// NewRouter builds the full route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger))
	}

	if cfg.Health != nil {
		r.GET("/healthz", cfg.Health.Liveness)
		r.GET("/readyz", cfg.Health.Readiness)
	}
	if cfg.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if cfg.Patients != nil {
			api.POST("/patients", cfg.Patients.Create)
			api.GET("/patients/:id", cfg.Patients.Get)
			api.GET("/patients/code/:code", cfg.Patients.GetByCode)
			api.GET("/patients/:id/compliance", cfg.Patients.Compliance)
			api.GET("/patients/:id/medications", cfg.Patients.ActiveMedications)
		}
		if cfg.Prescriptions != nil {
			api.POST("/prescriptions/analyze", cfg.Prescriptions.AnalyzeText)
			api.POST("/prescriptions/analyze-image", cfg.Prescriptions.AnalyzeImage)
			api.GET("/prescriptions/:id", cfg.Prescriptions.Get)
		}
		if cfg.Medications != nil {
			api.POST("/medications/:id/intake", cfg.Medications.LogIntake)
			api.POST("/medications/:id/transition", cfg.Medications.Transition)
		}
	}
	return r
}

// requestLogger logs one line per request in the platform's structured form.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("latency", time.Since(start)),
		)
	}
}
