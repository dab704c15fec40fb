package internal

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/TEMPERINE/wa-qr-connector/pkg/env"
	"github.com/TEMPERINE/wa-qr-connector/pkg/log"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
	"github.com/TEMPERINE/wa-qr-connector/pkg/store"
)

// Routines registers the background cron jobs and starts the
// scheduler. The health job re-syncs live session states into the
// tenant store so the persisted view survives missed transitions.
func Routines(scheduler *cron.Cron, sessions *registry.Registry, tenants *store.Store) {
	log.Print(nil).Info("Running Routine Tasks")

	if env.GetEnvBoolOrDefault("WA_ENABLE_HEALTH_CHECK_CRON", true) {
		_, err := scheduler.AddFunc("0 */5 * * * *", func() {
			statuses := sessions.List()
			if len(statuses) == 0 {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			for _, status := range statuses {
				if status.State == registry.StateOnline {
					log.Session(status.TenantID).Debug("Session healthy")
				} else {
					log.Session(status.TenantID).Warn("Session unhealthy: " + string(status.State))
				}
				if err := tenants.SaveTenantState(ctx, status.TenantID, string(status.State)); err != nil {
					log.Session(status.TenantID).Warn("Failed to sync tenant state: " + err.Error())
				}
			}
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add health check cron job")
		}
	} else {
		log.Print(nil).Info("Health check cron disabled; relying on engine event handlers")
	}

	scheduler.Start()
}
