package registry

import (
	"context"
	"strings"
	"time"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
)

// Frame is one push frame on a tenant's event stream. The shape is the
// stable consumer-facing contract, decoupled from engine internals.
type Frame struct {
	Type      string      `json:"type"`
	QR        string      `json:"qr,omitempty"`
	Status    State       `json:"status,omitempty"`
	OK        bool        `json:"ok,omitempty"`
	Message   *MessageDTO `json:"message,omitempty"`
	MessageID string      `json:"messageId,omitempty"`
	Ack       *int        `json:"ack,omitempty"`
}

const (
	FrameQR      = "qr"
	FrameStatus  = "status"
	FrameReady   = "ready"
	FrameMessage = "message"
	FrameAck     = "ack"
)

// MessageDTO is the JSON shape of a message delivered to API consumers.
type MessageDTO struct {
	ID         string `json:"id"`
	ChatID     string `json:"chatId"`
	FromMe     bool   `json:"fromMe"`
	Body       string `json:"body"`
	Kind       string `json:"type"`
	HasMedia   bool   `json:"hasMedia"`
	Ack        int    `json:"ack"`
	Timestamp  int64  `json:"timestamp"`
	QuotedID   string `json:"quotedMsgId,omitempty"`
	AuthorID   string `json:"author,omitempty"`
	AuthorName string `json:"authorName,omitempty"`
}

func qrFrame(code string) Frame {
	return Frame{Type: FrameQR, QR: code}
}

func statusFrame(state State) Frame {
	return Frame{Type: FrameStatus, Status: state}
}

func readyFrame() Frame {
	return Frame{Type: FrameReady, OK: true}
}

func messageFrame(dto *MessageDTO) Frame {
	return Frame{Type: FrameMessage, Message: dto}
}

func ackFrame(messageID string, level int) Frame {
	return Frame{Type: FrameAck, MessageID: messageID, Ack: &level}
}

// TranslateMessage converts an engine message into the stable DTO.
// Used for both push frames and REST responses. Name resolution is
// best-effort: a failing lookup degrades to the numeric fallback, it
// never drops the event.
func (s *Session) TranslateMessage(ctx context.Context, m engine.Message) *MessageDTO {
	dto := &MessageDTO{
		ID:        m.ID,
		ChatID:    m.ChatID,
		FromMe:    m.FromMe,
		Body:      m.Body,
		Kind:      m.Kind,
		HasMedia:  m.HasMedia,
		Ack:       m.Ack,
		Timestamp: m.Timestamp.Unix(),
		QuotedID:  m.QuotedID,
	}
	if dto.Kind == "" {
		dto.Kind = "chat"
	}
	if dto.Timestamp <= 0 {
		dto.Timestamp = time.Now().Unix()
	}
	if m.AuthorID != "" {
		dto.AuthorID = m.AuthorID
		dto.AuthorName = s.ResolveName(ctx, m.AuthorID)
	}
	return dto
}

// bareID strips the server suffix and any leading plus sign from a
// participant identifier, leaving the bare numeric part.
func bareID(id string) string {
	if at := strings.IndexRune(id, '@'); at >= 0 {
		id = id[:at]
	}
	id = strings.TrimPrefix(id, "+")
	return strings.TrimSpace(id)
}
