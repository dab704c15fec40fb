// Package meow implements the automation-engine interface on top of
// go.mau.fi/whatsmeow. Each tenant gets its own whatsmeow client with
// isolated device credentials; the tenant -> paired device routing
// lives in the tenant store.
package meow

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"

	// Registers the "pgx" database/sql driver used by the sqlstore.
	_ "github.com/jackc/pgx/v5/stdlib"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
	"github.com/TEMPERINE/wa-qr-connector/pkg/env"
	"github.com/TEMPERINE/wa-qr-connector/pkg/log"
)

const (
	pairingWindow  = 2 * time.Minute
	routingTimeout = 5 * time.Second
)

// Routing persists which device identity a tenant paired as, so the
// session survives process restarts.
type Routing interface {
	PairedJID(ctx context.Context, tenantID string) (string, error)
	SavePairedJID(ctx context.Context, tenantID string, jid string) error
	ClearPairedJID(ctx context.Context, tenantID string) error
}

// Engine hands out tenant-scoped whatsmeow clients backed by a shared
// sqlstore container.
type Engine struct {
	container *sqlstore.Container
	routing   Routing
	proxyURL  string
}

var _ engine.Engine = (*Engine)(nil)

// NewEngine opens the whatsmeow datastore and upgrades its schema.
func NewEngine(ctx context.Context, routing Routing) (*Engine, error) {
	driver := normalizeDatastoreDriver(env.GetEnvStringOrDefault("WA_DATASTORE_DRIVER", "postgres"))
	dsn, err := env.GetEnvString("WA_DATASTORE_URI")
	if err != nil {
		return nil, err
	}
	dsn = normalizeDatastoreDSN(driver, dsn)

	log.Print(nil).Info("Initializing WhatsApp datastore with driver=" + driver)

	container, err := sqlstore.New(ctx, driver, dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize whatsmeow datastore: %w", err)
	}
	if err := container.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("failed to upgrade whatsmeow datastore schema: %w", err)
	}

	proxyURL, _ := env.GetEnvString("WA_CLIENT_PROXY_URL")

	return &Engine{
		container: container,
		routing:   routing,
		proxyURL:  proxyURL,
	}, nil
}

// NewClient allocates a tenant-scoped client. A tenant that paired
// before is restored onto its previous device identity; everyone else
// starts unpaired and goes through a QR round on Initialize.
func (e *Engine) NewClient(tenantID string) (engine.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), routingTimeout)
	defer cancel()

	var device *store.Device
	if jid, err := e.routing.PairedJID(ctx, tenantID); err == nil && jid != "" {
		if parsed, perr := types.ParseJID(jid); perr == nil {
			if dev, derr := e.container.GetDevice(ctx, parsed); derr == nil && dev != nil {
				device = dev
			}
		}
	}
	if device == nil {
		device = e.container.NewDevice()
	}

	store.DeviceProps.Os = proto.String(runtime.GOOS)
	store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()
	store.DeviceProps.RequireFullSync = proto.Bool(false)

	cli := whatsmeow.NewClient(device, nil)
	if len(e.proxyURL) > 0 {
		cli.SetProxyAddress(e.proxyURL)
	}

	// Reconnect policy belongs to the session registry (one attempt
	// per disconnect), so whatsmeow's own loop stays off.
	cli.EnableAutoReconnect = false
	cli.AutoTrustIdentity = true

	c := &Client{
		tenantID: tenantID,
		cli:      cli,
		routing:  e.routing,
		index:    newChatIndex(),
	}
	cli.AddEventHandler(c.handleEvent)
	return c, nil
}

func normalizeDatastoreDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "postgresql", "postgres", "pgx":
		return "pgx"
	default:
		return strings.ToLower(driver)
	}
}

func normalizeDatastoreDSN(driver string, dsn string) string {
	if driver != "pgx" {
		return dsn
	}
	appendParam := func(current string, key string, value string) string {
		if strings.Contains(current, key+"=") {
			return current
		}
		separator := "?"
		if strings.Contains(current, "?") {
			if strings.HasSuffix(current, "?") || strings.HasSuffix(current, "&") {
				separator = ""
			} else {
				separator = "&"
			}
		}
		return current + separator + key + "=" + value
	}
	dsn = appendParam(dsn, "prefer_simple_protocol", "true")
	dsn = appendParam(dsn, "statement_cache_capacity", "0")
	dsn = appendParam(dsn, "default_query_exec_mode", "simple_protocol")
	return dsn
}

// composeJID parses a caller-supplied identifier into a JID, guessing
// the server from the shape when no server part is present.
func composeJID(id string) types.JID {
	if strings.ContainsRune(id, '@') {
		if parsed, err := types.ParseJID(id); err == nil {
			return parsed
		}
	}

	id = decomposeJID(id)
	if strings.ContainsRune(id, '-') || len(id) >= 18 {
		return types.NewJID(id, types.GroupServer)
	}
	return types.NewJID(id, types.DefaultUserServer)
}

func decomposeJID(id string) string {
	if strings.ContainsRune(id, '@') {
		buffers := strings.Split(id, "@")
		id = buffers[0]
	}

	if len(id) > 0 && id[0] == '+' {
		id = id[1:]
	}

	return strings.TrimSpace(id)
}
