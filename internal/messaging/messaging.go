package messaging

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	typConnector "github.com/TEMPERINE/wa-qr-connector/internal/types"
	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
	"github.com/TEMPERINE/wa-qr-connector/pkg/router"
	"github.com/TEMPERINE/wa-qr-connector/pkg/validation"
)

var sessions *registry.Registry

func Init(reg *registry.Registry) {
	sessions = reg
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, registry.ErrNotReady):
		return router.ResponseBadRequest(c, err.Error())
	case errors.Is(err, engine.ErrChatNotFound), errors.Is(err, engine.ErrMessageNotFound):
		return router.ResponseNotFound(c, err.Error())
	default:
		return router.ResponseInternalError(c, err.Error())
	}
}

// SendMessage sends a text message into a chat
// @Summary     Send Message
// @Tags        Messaging
// @Accept      json
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       chat_id path string true "Chat ID"
// @Param       body body types.RequestSendMessage true "Message body, optionally quoting an earlier message"
// @Success     201 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/chats/{chat_id}/messages [post]
func SendMessage(c *fiber.Ctx) error {
	chatID := c.Params("chat_id")
	if err := validation.ValidateChatID(chatID); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	var req typConnector.RequestSendMessage
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}
	if err := validation.ValidateMessageBody(req.Body); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	s, err := sessions.RequireOnline(c.Params("tenant_id"))
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	if err := s.WaitSend(ctx); err != nil {
		return router.ResponseInternalError(c, "Send rate limiter interrupted: "+err.Error())
	}

	var opts *engine.SendOptions
	if quoted := strings.TrimSpace(req.QuotedMsgID); quoted != "" {
		opts = &engine.SendOptions{QuotedID: quoted}
	}

	msg, err := s.Client().SendText(ctx, chatID, req.Body, opts)
	if err != nil {
		return respondError(c, err)
	}

	return router.ResponseCreatedWithData(c, "Success send message", typConnector.ResponseMessageSent{
		MessageID: msg.ID,
		ChatID:    msg.ChatID,
		Timestamp: msg.Timestamp,
	})
}

// SendReaction reacts to a message with a single emoji
// @Summary     Send Reaction
// @Description React to a message. An empty emoji removes the previous reaction.
// @Tags        Messaging
// @Accept      json
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       message_id path string true "Message ID"
// @Param       body body types.RequestReaction true "Reaction emoji"
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/messages/{message_id}/reaction [post]
func SendReaction(c *fiber.Ctx) error {
	messageID := c.Params("message_id")
	if messageID == "" {
		return router.ResponseBadRequest(c, "Message ID is required")
	}

	var req typConnector.RequestReaction
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}
	if err := validation.ValidateReactionEmoji(req.Emoji); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	s, err := sessions.RequireOnline(c.Params("tenant_id"))
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	if err := s.WaitSend(ctx); err != nil {
		return router.ResponseInternalError(c, "Send rate limiter interrupted: "+err.Error())
	}

	if err := s.Client().SendReaction(ctx, messageID, req.Emoji); err != nil {
		return respondError(c, err)
	}
	return router.ResponseSuccess(c, "Success send reaction")
}

// GetMessage returns a single message by id
// @Summary     Get Message
// @Tags        Messaging
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       message_id path string true "Message ID"
// @Success     200 {object} router.Response
// @Failure     404 {object} router.Response
// @Router      /tenants/{tenant_id}/messages/{message_id} [get]
func GetMessage(c *fiber.Ctx) error {
	messageID := c.Params("message_id")
	if messageID == "" {
		return router.ResponseBadRequest(c, "Message ID is required")
	}

	s, err := sessions.RequireOnline(c.Params("tenant_id"))
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	msg, err := s.Client().GetMessageByID(ctx, messageID)
	if err != nil {
		return respondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Success get message", s.TranslateMessage(ctx, *msg))
}
