package internal

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TEMPERINE/wa-qr-connector/pkg/env"
	"github.com/TEMPERINE/wa-qr-connector/pkg/log"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
	"github.com/TEMPERINE/wa-qr-connector/pkg/store"
)

// Startup restores the sessions recorded in the tenant store. Restore
// is concurrency-limited so a large tenant set does not stampede the
// engine backend on boot.
func Startup(sessions *registry.Registry, tenants *store.Store) {
	log.Print(nil).Info("Running Startup Tasks")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records, err := tenants.ListTenants(ctx)
	if err != nil {
		log.Print(nil).Error("Failed to load tenants from datastore: " + err.Error())
		return
	}

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(env.GetEnvIntOrDefault("WA_STARTUP_RESTORE_CONCURRENCY", 10))

	for _, record := range records {
		tenantID := record.TenantID
		group.Go(func() error {
			log.Session(tenantID).Info("Restoring session from datastore")
			sessions.GetOrCreate(tenantID)
			return nil
		})
	}

	// Session creation never fails synchronously, the group is used
	// purely for its concurrency limit.
	_ = group.Wait()

	log.Print(nil).Infof("Startup restore pass complete, %d tenant(s)", len(records))
}
