package contacts

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	typConnector "github.com/TEMPERINE/wa-qr-connector/internal/types"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
	"github.com/TEMPERINE/wa-qr-connector/pkg/router"
)

var sessions *registry.Registry

func Init(reg *registry.Registry) {
	sessions = reg
}

// GetContact returns a contact with its resolved display name
// @Summary     Get Contact
// @Description Contact name variants plus the display name the resolver would pick.
// @Tags        Contacts
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       contact_id path string true "Contact ID"
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/contacts/{contact_id} [get]
func GetContact(c *fiber.Ctx) error {
	contactID := c.Params("contact_id")
	if contactID == "" {
		return router.ResponseBadRequest(c, "Contact ID is required")
	}

	s, err := sessions.RequireOnline(c.Params("tenant_id"))
	if err != nil {
		if errors.Is(err, registry.ErrNotReady) {
			return router.ResponseBadRequest(c, err.Error())
		}
		return router.ResponseInternalError(c, err.Error())
	}

	ctx := c.UserContext()
	resolved := s.ResolveName(ctx, contactID)

	response := typConnector.ResponseContact{
		ID:           contactID,
		ResolvedName: resolved,
	}
	// The raw variant set is best-effort; the resolved name alone is
	// still a useful answer when the engine lookup fails.
	if contact, err := s.Client().GetContactByID(ctx, contactID); err == nil {
		response.ID = contact.ID
		response.Name = contact.Name
		response.PushName = contact.PushName
		response.ShortName = contact.ShortName
		response.VerifiedName = contact.VerifiedName
		response.IsBusiness = contact.IsBusiness
	}

	return router.ResponseSuccessWithData(c, "Success get contact", response)
}
