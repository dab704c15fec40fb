package internal

import (
	"github.com/gofiber/fiber/v2"
	swagger "github.com/gofiber/swagger"

	"github.com/TEMPERINE/wa-qr-connector/pkg/auth"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
	"github.com/TEMPERINE/wa-qr-connector/pkg/router"

	ctlChats "github.com/TEMPERINE/wa-qr-connector/internal/chats"
	ctlContacts "github.com/TEMPERINE/wa-qr-connector/internal/contacts"
	ctlIndex "github.com/TEMPERINE/wa-qr-connector/internal/index"
	ctlMedia "github.com/TEMPERINE/wa-qr-connector/internal/media"
	ctlMessaging "github.com/TEMPERINE/wa-qr-connector/internal/messaging"
	ctlTenant "github.com/TEMPERINE/wa-qr-connector/internal/tenant"
)

func Routes(app *fiber.App, sessions *registry.Registry) {
	ctlTenant.Init(sessions)
	ctlChats.Init(sessions)
	ctlMessaging.Init(sessions)
	ctlContacts.Init(sessions)
	ctlMedia.Init(sessions)

	// Configure OpenAPI / Swagger
	specURL := router.BaseURL + "/docs/swagger.json"
	swaggerHandler := swagger.New(swagger.Config{
		URL: specURL,
	})

	// Route for Index
	// ---------------------------------------------
	if router.BaseURL == "" {
		app.Get("/", ctlIndex.Index)
	} else {
		app.Get(router.BaseURL, ctlIndex.Index)
		app.Get(router.BaseURL+"/", ctlIndex.Index)
	}

	// Route for OpenAPI / Swagger
	// ---------------------------------------------
	app.Get(router.BaseURL+"/docs/swagger.json", func(c *fiber.Ctx) error {
		return c.SendFile("docs/swagger.json")
	})
	app.Get(router.BaseURL+"/docs/*", swaggerHandler)

	// Admin routes (X-Admin-Secret authentication)
	// ---------------------------------------------
	adminMiddleware := auth.AdminAuth()

	app.Get(router.BaseURL+"/tenants", adminMiddleware, ctlTenant.ListSessions)
	app.Post(router.BaseURL+"/tenants/:tenant_id/token", adminMiddleware, ctlTenant.MintToken)

	// Tenant routes (bearer token bound to the route tenant)
	// ---------------------------------------------
	tenantMiddleware := auth.TenantAuth()

	app.Post(router.BaseURL+"/tenants/:tenant_id/session", tenantMiddleware, ctlTenant.CreateSession)
	app.Get(router.BaseURL+"/tenants/:tenant_id/session", tenantMiddleware, ctlTenant.GetSession)
	app.Delete(router.BaseURL+"/tenants/:tenant_id/session", tenantMiddleware, ctlTenant.DeleteSession)
	app.Get(router.BaseURL+"/tenants/:tenant_id/session/qr", tenantMiddleware, ctlTenant.GetQR)
	app.Get(router.BaseURL+"/tenants/:tenant_id/events", tenantMiddleware, ctlTenant.StreamEvents)

	app.Get(router.BaseURL+"/tenants/:tenant_id/chats", tenantMiddleware, ctlChats.ListChats)
	app.Get(router.BaseURL+"/tenants/:tenant_id/chats/:chat_id", tenantMiddleware, ctlChats.GetChat)
	app.Get(router.BaseURL+"/tenants/:tenant_id/chats/:chat_id/messages", tenantMiddleware, ctlChats.ListMessages)
	app.Post(router.BaseURL+"/tenants/:tenant_id/chats/:chat_id/messages", tenantMiddleware, ctlMessaging.SendMessage)
	app.Post(router.BaseURL+"/tenants/:tenant_id/chats/:chat_id/seen", tenantMiddleware, ctlChats.MarkSeen)
	app.Post(router.BaseURL+"/tenants/:tenant_id/chats/:chat_id/typing", tenantMiddleware, ctlChats.SetTyping)
	app.Post(router.BaseURL+"/tenants/:tenant_id/chats/:chat_id/archive", tenantMiddleware, ctlChats.SetArchive)
	app.Post(router.BaseURL+"/tenants/:tenant_id/chats/:chat_id/pin", tenantMiddleware, ctlChats.SetPin)
	app.Get(router.BaseURL+"/tenants/:tenant_id/chats/:chat_id/participants", tenantMiddleware, ctlChats.ListParticipants)

	app.Get(router.BaseURL+"/tenants/:tenant_id/contacts/:contact_id", tenantMiddleware, ctlContacts.GetContact)

	app.Get(router.BaseURL+"/tenants/:tenant_id/messages/:message_id", tenantMiddleware, ctlMessaging.GetMessage)
	app.Post(router.BaseURL+"/tenants/:tenant_id/messages/:message_id/reaction", tenantMiddleware, ctlMessaging.SendReaction)
	app.Get(router.BaseURL+"/tenants/:tenant_id/messages/:message_id/media", tenantMiddleware, ctlMedia.DownloadMedia)
}
