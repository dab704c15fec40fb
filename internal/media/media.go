package media

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sunshineplan/imgconv"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
	"github.com/TEMPERINE/wa-qr-connector/pkg/router"
)

var sessions *registry.Registry

func Init(reg *registry.Registry) {
	sessions = reg
}

const thumbnailWidth = 256

// DownloadMedia streams a message attachment to the caller
// @Summary     Download Media
// @Description Download the attachment of a media message. thumbnail=true returns a JPEG thumbnail for images.
// @Tags        Media
// @Produce     octet-stream
// @Param       tenant_id path string true "Tenant ID"
// @Param       message_id path string true "Message ID"
// @Param       thumbnail query bool false "Return an image thumbnail instead of the original"
// @Success     200
// @Failure     400 {object} router.Response
// @Failure     404 {object} router.Response
// @Router      /tenants/{tenant_id}/messages/{message_id}/media [get]
func DownloadMedia(c *fiber.Ctx) error {
	messageID := c.Params("message_id")
	if messageID == "" {
		return router.ResponseBadRequest(c, "Message ID is required")
	}

	s, err := sessions.RequireOnline(c.Params("tenant_id"))
	if err != nil {
		if errors.Is(err, registry.ErrNotReady) {
			return router.ResponseBadRequest(c, err.Error())
		}
		return router.ResponseInternalError(c, err.Error())
	}

	media, err := s.Client().DownloadMedia(c.UserContext(), messageID)
	switch {
	case errors.Is(err, engine.ErrMessageNotFound):
		return router.ResponseNotFound(c, err.Error())
	case errors.Is(err, engine.ErrNoMedia):
		return router.ResponseBadRequest(c, err.Error())
	case err != nil:
		return router.ResponseInternalError(c, err.Error())
	}

	data := media.Data
	mimetype := media.Mimetype
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}

	if c.QueryBool("thumbnail") && strings.HasPrefix(mimetype, "image/") {
		thumbDecode, err := imgconv.Decode(bytes.NewReader(data))
		if err != nil {
			return router.ResponseInternalError(c, "Error while decoding thumbnail image stream")
		}
		thumbEncode := new(bytes.Buffer)
		err = imgconv.Write(thumbEncode,
			imgconv.Resize(thumbDecode, &imgconv.ResizeOption{Width: thumbnailWidth}),
			&imgconv.FormatOption{Format: imgconv.JPEG})
		if err != nil {
			return router.ResponseInternalError(c, "Error while encoding thumbnail image stream")
		}
		data = thumbEncode.Bytes()
		mimetype = "image/jpeg"
	}

	c.Set(fiber.HeaderContentType, mimetype)
	if media.FileName != "" {
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+media.FileName+`"`)
	}
	return c.Send(data)
}
