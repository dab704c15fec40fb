package tenant

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	qrCode "github.com/skip2/go-qrcode"

	typConnector "github.com/TEMPERINE/wa-qr-connector/internal/types"
	pkgAuth "github.com/TEMPERINE/wa-qr-connector/pkg/auth"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
	"github.com/TEMPERINE/wa-qr-connector/pkg/router"
	"github.com/TEMPERINE/wa-qr-connector/pkg/validation"
)

var sessions *registry.Registry

// Init wires the controller to the shared session registry. Called
// once from route registration.
func Init(reg *registry.Registry) {
	sessions = reg
}

func sessionResponse(s *registry.Session) typConnector.ResponseSession {
	return typConnector.ResponseSession{
		TenantID: s.TenantID(),
		State:    string(s.State()),
		Pairing:  s.PairingCode() != "",
	}
}

// CreateSession starts (or returns) the tenant's session
// @Summary     Create Session
// @Description Create the tenant session, starting a pairing round for unpaired tenants.
// @Tags        Session
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Success     201 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/session [post]
func CreateSession(c *fiber.Ctx) error {
	tenantID := c.Params("tenant_id")
	if err := validation.ValidateTenantID(tenantID); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	s := sessions.GetOrCreate(tenantID)
	return router.ResponseCreatedWithData(c, "Session created", sessionResponse(s))
}

// GetSession reports the tenant session state
// @Summary     Get Session
// @Tags        Session
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Success     200 {object} router.Response
// @Failure     404 {object} router.Response
// @Router      /tenants/{tenant_id}/session [get]
func GetSession(c *fiber.Ctx) error {
	s := sessions.Get(c.Params("tenant_id"))
	if s == nil {
		return router.ResponseNotFound(c, "Session not found")
	}
	return router.ResponseSuccessWithData(c, "Success get session", sessionResponse(s))
}

// DeleteSession stops the tenant session
// @Summary     Delete Session
// @Tags        Session
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Success     200 {object} router.Response
// @Router      /tenants/{tenant_id}/session [delete]
func DeleteSession(c *fiber.Ctx) error {
	sessions.Stop(c.Params("tenant_id"))
	return router.ResponseSuccess(c, "Session stopped")
}

// ListSessions returns the registry snapshot. Admin only.
// @Summary     List Sessions
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin Secret"
// @Success     200 {object} router.Response
// @Router      /tenants [get]
func ListSessions(c *fiber.Ctx) error {
	return router.ResponseSuccessWithData(c, "Success get session list", sessions.List())
}

// MintToken issues a tenant-scoped bearer token. Admin only.
// @Summary     Mint Tenant Token
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin Secret"
// @Param       tenant_id path string true "Tenant ID"
// @Success     201 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/token [post]
func MintToken(c *fiber.Ctx) error {
	tenantID := c.Params("tenant_id")
	if err := validation.ValidateTenantID(tenantID); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	token, err := pkgAuth.GenerateTenantToken(tenantID)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to generate tenant token: "+err.Error())
	}

	return router.ResponseCreatedWithData(c, "Tenant token generated", typConnector.ResponseTenantToken{
		TenantID: tenantID,
		Token:    token,
	})
}

// GetQR renders the current pairing token as a scannable QR image
// @Summary     Get Pairing QR
// @Description Return the pending pairing token as a QR PNG, as HTML (default) or JSON.
// @Tags        Session
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       output query string false "html or json" default(html)
// @Success     200 {object} router.Response
// @Failure     404 {object} router.Response
// @Router      /tenants/{tenant_id}/session/qr [get]
func GetQR(c *fiber.Ctx) error {
	s := sessions.Get(c.Params("tenant_id"))
	if s == nil {
		return router.ResponseNotFound(c, "Session not found")
	}

	if s.State() == registry.StateOnline {
		return router.ResponseSuccess(c, "Session is already paired")
	}

	code := s.PairingCode()
	if code == "" {
		return router.ResponseNotFound(c, "No pairing code is pending, create the session first")
	}

	qrPNG, err := qrCode.Encode(code, qrCode.Medium, 256)
	if err != nil {
		return router.ResponseInternalError(c, err.Error())
	}
	qrImage := "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG)

	output := strings.TrimSpace(c.Query("output"))
	if len(output) == 0 {
		output = "html"
	}

	if output == "html" {
		htmlContent := `
		<html>
			<head>
				<title>WhatsApp Session Pairing</title>
				<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no" />
			</head>
			<body>
				<img src="` + qrImage + `" />
				<p>
					<b>QR Code Scan</b>
					<br/>
					Scan with the WhatsApp mobile app to pair this tenant
				</p>
			</body>
		</html>
		`
		return router.ResponseSuccessWithHTML(c, htmlContent)
	}

	return router.ResponseSuccessWithData(c, "Success generate QR code", typConnector.ResponseQRCode{
		QRCode: qrImage,
		State:  string(s.State()),
	})
}
