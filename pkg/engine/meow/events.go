package meow

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
	"github.com/TEMPERINE/wa-qr-connector/pkg/log"
)

func (c *Client) handleEvent(rawEvt interface{}) {
	switch evt := rawEvt.(type) {
	case *events.Connected:
		if c.cli.Store.ID != nil {
			ctx, cancel := context.WithTimeout(context.Background(), routingTimeout)
			if err := c.routing.SavePairedJID(ctx, c.tenantID, c.cli.Store.ID.String()); err != nil {
				log.Session(c.tenantID).Warn("Failed to persist paired device routing: ", err)
			}
			cancel()
		}
		c.emit(&engine.ReadyEvent{})

	case *events.Disconnected:
		c.emit(&engine.DisconnectedEvent{Reason: "stream closed"})

	case *events.StreamReplaced:
		c.cli.Disconnect()
		c.emit(&engine.AuthFailureEvent{Reason: "stream replaced by another client"})

	case *events.LoggedOut:
		c.cli.Disconnect()
		ctx, cancel := context.WithTimeout(context.Background(), routingTimeout)
		if err := c.routing.ClearPairedJID(ctx, c.tenantID); err != nil {
			log.Session(c.tenantID).Warn("Failed to clear paired device routing: ", err)
		}
		cancel()
		c.emit(&engine.AuthFailureEvent{Reason: "device logged out from phone"})

	case *events.ConnectFailure:
		c.emit(&engine.AuthFailureEvent{Reason: fmt.Sprintf("connect failure: %s", evt.Reason)})

	case *events.TemporaryBan:
		log.Session(c.tenantID).Error("Account temporarily banned: ", evt.String())
		c.emit(&engine.AuthFailureEvent{Reason: "account temporarily banned"})

	case *events.Message:
		msg, chatName, isGroup := translateMessage(evt)
		c.index.record(msg, evt.Info.Sender, evt.Message, chatName, isGroup)
		c.emit(&engine.MessageEvent{Message: msg})

	case *events.Receipt:
		level := ackLevel(evt.Type)
		for _, id := range evt.MessageIDs {
			c.index.setAck(string(id), level)
			c.emit(&engine.AckEvent{
				MessageID: string(id),
				ChatID:    evt.Chat.String(),
				Level:     level,
			})
		}

	case *events.KeepAliveTimeout:
		log.Session(c.tenantID).Warn("Keepalive timeout, error count: ", evt.ErrorCount)
	}
}

func ackLevel(receiptType events.ReceiptType) int {
	switch receiptType {
	case events.ReceiptTypeRead, events.ReceiptTypeReadSelf:
		return engine.AckRead
	case events.ReceiptTypePlayed:
		return engine.AckPlayed
	default:
		return engine.AckDelivered
	}
}

func translateMessage(evt *events.Message) (engine.Message, string, bool) {
	isGroup := evt.Info.Chat.Server == types.GroupServer

	msg := engine.Message{
		ID:        evt.Info.ID,
		ChatID:    evt.Info.Chat.String(),
		FromMe:    evt.Info.IsFromMe,
		Ack:       engine.AckPending,
		Timestamp: evt.Info.Timestamp,
	}
	msg.Body, msg.Kind, msg.HasMedia, msg.QuotedID = classifyContent(evt.Message)

	if isGroup && !evt.Info.IsFromMe {
		msg.AuthorID = evt.Info.Sender.String()
	}

	// Push names only describe individual senders; group subjects come
	// from group metadata instead.
	chatName := ""
	if !isGroup && !evt.Info.IsFromMe {
		chatName = evt.Info.PushName
	}

	return msg, chatName, isGroup
}

func classifyContent(content *waE2E.Message) (string, string, bool, string) {
	if content == nil {
		return "", "unknown", false, ""
	}

	switch {
	case content.GetConversation() != "":
		return content.GetConversation(), "chat", false, ""
	case content.ExtendedTextMessage != nil:
		return content.ExtendedTextMessage.GetText(), "chat", false,
			content.ExtendedTextMessage.GetContextInfo().GetStanzaID()
	case content.ImageMessage != nil:
		return content.ImageMessage.GetCaption(), "image", true,
			content.ImageMessage.GetContextInfo().GetStanzaID()
	case content.VideoMessage != nil:
		return content.VideoMessage.GetCaption(), "video", true,
			content.VideoMessage.GetContextInfo().GetStanzaID()
	case content.AudioMessage != nil:
		kind := "audio"
		if content.AudioMessage.GetPTT() {
			kind = "ptt"
		}
		return "", kind, true, content.AudioMessage.GetContextInfo().GetStanzaID()
	case content.DocumentMessage != nil:
		return content.DocumentMessage.GetCaption(), "document", true,
			content.DocumentMessage.GetContextInfo().GetStanzaID()
	case content.StickerMessage != nil:
		return "", "sticker", true, content.StickerMessage.GetContextInfo().GetStanzaID()
	case content.LocationMessage != nil:
		return content.LocationMessage.GetName(), "location", false, ""
	case content.ContactMessage != nil:
		return content.ContactMessage.GetDisplayName(), "vcard", false, ""
	case content.ReactionMessage != nil:
		return content.ReactionMessage.GetText(), "reaction", false,
			content.ReactionMessage.GetKey().GetID()
	case content.ProtocolMessage != nil && content.ProtocolMessage.GetType() == waE2E.ProtocolMessage_REVOKE:
		return "", "revoked", false, content.ProtocolMessage.GetKey().GetID()
	default:
		return "", "unknown", false, ""
	}
}
