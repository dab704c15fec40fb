package chats

import (
	"errors"
	"strconv"

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

// onlineSession resolves the route tenant to an ONLINE session and the
// validated chat id. Data-plane handlers all pass through here.
func onlineSession(c *fiber.Ctx) (*registry.Session, string, error) {
	chatID := c.Params("chat_id")
	if chatID != "" {
		if err := validation.ValidateChatID(chatID); err != nil {
			return nil, "", err
		}
	}

	s, err := sessions.RequireOnline(c.Params("tenant_id"))
	if err != nil {
		return nil, "", err
	}
	return s, chatID, nil
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

// ListChats returns the chats known to the tenant session
// @Summary     List Chats
// @Tags        Chats
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/chats [get]
func ListChats(c *fiber.Ctx) error {
	s, _, err := onlineSession(c)
	if err != nil {
		return respondError(c, err)
	}

	chats, err := s.Client().GetChats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Success get chat list", chats)
}

// GetChat returns a single chat
// @Summary     Get Chat
// @Tags        Chats
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       chat_id path string true "Chat ID"
// @Success     200 {object} router.Response
// @Failure     404 {object} router.Response
// @Router      /tenants/{tenant_id}/chats/{chat_id} [get]
func GetChat(c *fiber.Ctx) error {
	s, chatID, err := onlineSession(c)
	if err != nil {
		return respondError(c, err)
	}

	chat, err := s.Client().GetChatByID(c.UserContext(), chatID)
	if err != nil {
		return respondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Success get chat", chat)
}

// ListMessages returns recent messages for a chat
// @Summary     List Messages
// @Tags        Chats
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       chat_id path string true "Chat ID"
// @Param       limit query int false "Maximum messages to return" default(50)
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/chats/{chat_id}/messages [get]
func ListMessages(c *fiber.Ctx) error {
	s, chatID, err := onlineSession(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	messages, err := s.Client().FetchMessages(ctx, chatID, limit)
	if err != nil {
		return respondError(c, err)
	}

	dtos := make([]*registry.MessageDTO, 0, len(messages))
	for _, m := range messages {
		dtos = append(dtos, s.TranslateMessage(ctx, m))
	}
	return router.ResponseSuccessWithData(c, "Success get message list", dtos)
}

// MarkSeen marks the chat as read
// @Summary     Mark Chat Seen
// @Tags        Chats
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       chat_id path string true "Chat ID"
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/chats/{chat_id}/seen [post]
func MarkSeen(c *fiber.Ctx) error {
	s, chatID, err := onlineSession(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.Client().SendSeen(c.UserContext(), chatID); err != nil {
		return respondError(c, err)
	}
	return router.ResponseSuccess(c, "Success mark chat seen")
}

// SetTyping toggles the typing indicator for a chat
// @Summary     Set Typing
// @Tags        Chats
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       chat_id path string true "Chat ID"
// @Param       body body types.RequestTyping true "Typing state"
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/chats/{chat_id}/typing [post]
func SetTyping(c *fiber.Ctx) error {
	s, chatID, err := onlineSession(c)
	if err != nil {
		return respondError(c, err)
	}

	var req typConnector.RequestTyping
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if err := s.Client().SendTyping(c.UserContext(), chatID, req.Typing); err != nil {
		return respondError(c, err)
	}
	return router.ResponseSuccess(c, "Success set typing state")
}

// SetArchive archives or unarchives a chat
// @Summary     Set Archive
// @Tags        Chats
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       chat_id path string true "Chat ID"
// @Param       body body types.RequestArchive true "Archive state"
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/chats/{chat_id}/archive [post]
func SetArchive(c *fiber.Ctx) error {
	s, chatID, err := onlineSession(c)
	if err != nil {
		return respondError(c, err)
	}

	var req typConnector.RequestArchive
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if err := s.Client().SetArchived(c.UserContext(), chatID, req.Archive); err != nil {
		return respondError(c, err)
	}
	return router.ResponseSuccess(c, "Success set archive state")
}

// SetPin pins or unpins a chat
// @Summary     Set Pin
// @Tags        Chats
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       chat_id path string true "Chat ID"
// @Param       body body types.RequestPin true "Pin state"
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/chats/{chat_id}/pin [post]
func SetPin(c *fiber.Ctx) error {
	s, chatID, err := onlineSession(c)
	if err != nil {
		return respondError(c, err)
	}

	var req typConnector.RequestPin
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if err := s.Client().SetPinned(c.UserContext(), chatID, req.Pin); err != nil {
		return respondError(c, err)
	}
	return router.ResponseSuccess(c, "Success set pin state")
}

// ListParticipants returns group participants with resolved names
// @Summary     List Participants
// @Tags        Chats
// @Produce     json
// @Param       tenant_id path string true "Tenant ID"
// @Param       chat_id path string true "Chat ID"
// @Success     200 {object} router.Response
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/chats/{chat_id}/participants [get]
func ListParticipants(c *fiber.Ctx) error {
	s, chatID, err := onlineSession(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	participants, err := s.Client().GetParticipants(ctx, chatID)
	if err != nil {
		return respondError(c, err)
	}

	resolved := make([]typConnector.ResponseParticipant, 0, len(participants))
	for _, p := range participants {
		resolved = append(resolved, typConnector.ResponseParticipant{
			ID:   p.ID,
			Name: s.ResolveName(ctx, p.ID),
		})
	}
	return router.ResponseSuccessWithData(c, "Success get participant list", resolved)
}
