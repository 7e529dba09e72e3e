package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/optica/eyecare-backend/api/controllers"
	"github.com/optica/eyecare-backend/api/middleware"
	"github.com/optica/eyecare-backend/internal/backup"
	"github.com/optica/eyecare-backend/internal/lifecycle"
	"github.com/optica/eyecare-backend/internal/records"
	"github.com/optica/eyecare-backend/pkg/config"
	"github.com/optica/eyecare-backend/pkg/db"
	"github.com/optica/eyecare-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	recordsService records.Service,
	lifecycleService lifecycle.Service,
	backupService backup.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Get("/", controllers.ListRecords(recordsService, logg))
			r.Post("/", controllers.CreateRecord(recordsService, logg))
			r.Delete("/", controllers.ClearRecords(recordsService, logg))
			r.Get("/frame-options", controllers.FrameOptions(recordsService, logg))
			r.Get("/by-code/{code}", controllers.GetRecordByClientCode(recordsService, logg))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", controllers.GetRecord(recordsService, logg))
				r.Put("/", controllers.UpdateRecord(recordsService, logg))
				r.Delete("/", controllers.DeleteRecord(recordsService, logg))
				r.Get("/pdf", controllers.RecordPDF(recordsService, logg))
				r.Post("/complete", controllers.CompleteRecord(lifecycleService, logg))
				r.Post("/reactivate", controllers.ReactivateRecord(lifecycleService, logg))
			})
		})

		r.Route("/backup", func(r chi.Router) {
			r.Get("/export/{format}", controllers.ExportBackup(backupService, logg))
			r.Post("/import", controllers.ImportBackup(backupService, cfg.Backup.MaxImportBytes, logg))
			r.Get("/stats", controllers.BackupStats(backupService, logg))
		})
	})

	return r
}
