package meow

import (
	"context"
	"errors"
	"sync"
	"time"

	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/appstate"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
)

var ErrNotGroupChat = errors.New("participants are only available for group chats")

// Client is one tenant's whatsmeow session behind the engine.Client
// interface.
type Client struct {
	tenantID string
	cli      *whatsmeow.Client
	routing  Routing
	index    *chatIndex

	mu       sync.Mutex
	handlers []func(evt interface{})
}

var _ engine.Client = (*Client)(nil)

func (c *Client) AddEventHandler(handler func(evt interface{})) {
	c.mu.Lock()
	c.handlers = append(c.handlers, handler)
	c.mu.Unlock()
}

func (c *Client) emit(evt interface{}) {
	c.mu.Lock()
	handlers := make([]func(evt interface{}), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(evt)
	}
}

// Initialize connects the session. Unpaired tenants get a pairing
// round: codes from the QR channel are emitted as pairing events until
// the window closes or the phone scans.
func (c *Client) Initialize(ctx context.Context) error {
	c.cli.Disconnect()

	if c.cli.Store.ID == nil {
		pairCtx, cancel := context.WithTimeout(context.Background(), pairingWindow)

		qrChan, err := c.cli.GetQRChannel(pairCtx)
		if err != nil {
			cancel()
			if errors.Is(err, whatsmeow.ErrQRStoreContainsID) {
				return c.cli.Connect()
			}
			return err
		}

		if err := c.cli.Connect(); err != nil {
			cancel()
			return err
		}

		go c.pumpQR(cancel, qrChan)
		return nil
	}

	return c.cli.Connect()
}

func (c *Client) pumpQR(cancel context.CancelFunc, qrChan <-chan whatsmeow.QRChannelItem) {
	defer cancel()
	for evt := range qrChan {
		switch {
		case evt.Event == "code":
			c.emit(&engine.PairingCodeEvent{Code: evt.Code, Timeout: evt.Timeout})
		case evt.Event == whatsmeow.QRChannelSuccess.Event:
			// The connected event completes the transition.
			return
		case evt.Event == whatsmeow.QRChannelTimeout.Event:
			c.emit(&engine.AuthFailureEvent{Reason: "pairing window expired"})
			return
		case evt.Event == whatsmeow.QRChannelClientOutdated.Event:
			c.emit(&engine.AuthFailureEvent{Reason: "client version is outdated for QR pairing"})
			return
		case evt.Event == whatsmeow.QRChannelScannedWithoutMultidevice.Event:
			c.emit(&engine.AuthFailureEvent{Reason: "qr scanned without multi-device enabled"})
			return
		case evt.Event == "error":
			reason := "pairing failed"
			if evt.Error != nil {
				reason = evt.Error.Error()
			}
			c.emit(&engine.AuthFailureEvent{Reason: reason})
			return
		}
	}
}

// Destroy disconnects the session. Pairing credentials stay in the
// datastore so a later session for the same tenant reconnects without
// a new QR round.
func (c *Client) Destroy(ctx context.Context) error {
	c.cli.Disconnect()
	return nil
}

func (c *Client) Connected() bool {
	return c.cli.IsConnected() && c.cli.IsLoggedIn()
}

func (c *Client) GetChats(ctx context.Context) ([]engine.Chat, error) {
	return c.index.chatList(), nil
}

func (c *Client) GetChatByID(ctx context.Context, chatID string) (*engine.Chat, error) {
	jid := composeJID(chatID)
	if chat, ok := c.index.chat(jid.String()); ok {
		return &chat, nil
	}

	if jid.Server == types.GroupServer {
		info, err := c.cli.GetGroupInfo(ctx, jid)
		if err != nil {
			return nil, err
		}
		return &engine.Chat{
			ID:      jid.String(),
			Name:    info.Name,
			IsGroup: true,
		}, nil
	}

	return nil, engine.ErrChatNotFound
}

func (c *Client) GetContactByID(ctx context.Context, contactID string) (*engine.Contact, error) {
	jid := composeJID(contactID)
	info, err := c.cli.Store.Contacts.GetContact(ctx, jid)
	if err != nil {
		return nil, err
	}
	return &engine.Contact{
		ID:           jid.String(),
		Name:         info.FullName,
		PushName:     info.PushName,
		ShortName:    info.FirstName,
		VerifiedName: info.BusinessName,
		IsBusiness:   info.BusinessName != "",
	}, nil
}

func (c *Client) GetMessageByID(ctx context.Context, messageID string) (*engine.Message, error) {
	stored, ok := c.index.message(messageID)
	if !ok {
		return nil, engine.ErrMessageNotFound
	}
	msg := stored.msg
	return &msg, nil
}

func (c *Client) FetchMessages(ctx context.Context, chatID string, limit int) ([]engine.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	jid := composeJID(chatID)
	return c.index.messages(jid.String(), limit), nil
}

func (c *Client) GetParticipants(ctx context.Context, chatID string) ([]engine.Contact, error) {
	jid := composeJID(chatID)
	if jid.Server != types.GroupServer {
		return nil, ErrNotGroupChat
	}

	info, err := c.cli.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, err
	}

	c.index.setChatName(jid.String(), info.Name)

	participants := make([]engine.Contact, 0, len(info.Participants))
	for _, p := range info.Participants {
		participants = append(participants, engine.Contact{ID: p.JID.String()})
	}
	return participants, nil
}

func (c *Client) SendSeen(ctx context.Context, chatID string) error {
	jid := composeJID(chatID)

	ids, sender := c.index.unreadIDs(jid.String())
	if len(ids) == 0 {
		c.index.markSeen(jid.String())
		return nil
	}

	msgIDs := make([]types.MessageID, 0, len(ids))
	for _, id := range ids {
		msgIDs = append(msgIDs, types.MessageID(id))
	}
	if err := c.cli.MarkRead(ctx, msgIDs, time.Now(), jid, sender); err != nil {
		return err
	}
	c.index.markSeen(jid.String())
	return nil
}

func (c *Client) SendTyping(ctx context.Context, chatID string, typing bool) error {
	jid := composeJID(chatID)

	presence := types.ChatPresencePaused
	if typing {
		presence = types.ChatPresenceComposing
	}
	return c.cli.SendChatPresence(ctx, jid, presence, types.ChatPresenceMediaText)
}

func (c *Client) SendText(ctx context.Context, chatID string, text string, opts *engine.SendOptions) (*engine.Message, error) {
	jid := composeJID(chatID)
	msgExtra := whatsmeow.SendRequestExtra{ID: c.cli.GenerateMessageID()}

	var content *waE2E.Message
	if opts != nil && opts.QuotedID != "" {
		if quoted, ok := c.index.message(opts.QuotedID); ok {
			content = &waE2E.Message{
				ExtendedTextMessage: &waE2E.ExtendedTextMessage{
					Text: proto.String(text),
					ContextInfo: &waE2E.ContextInfo{
						StanzaID:      proto.String(opts.QuotedID),
						Participant:   proto.String(quoted.sender.String()),
						QuotedMessage: quoted.raw,
					},
				},
			}
		}
	}
	if content == nil {
		content = &waE2E.Message{Conversation: proto.String(text)}
	}

	resp, err := c.cli.SendMessage(ctx, jid, content, msgExtra)
	if err != nil {
		return nil, err
	}

	sender := types.EmptyJID
	if c.cli.Store.ID != nil {
		sender = *c.cli.Store.ID
	}
	msg := engine.Message{
		ID:        msgExtra.ID,
		ChatID:    jid.String(),
		FromMe:    true,
		Body:      text,
		Kind:      "chat",
		Ack:       engine.AckSent,
		QuotedID:  quotedID(opts),
		Timestamp: resp.Timestamp,
	}
	c.index.record(msg, sender, content, "", jid.Server == types.GroupServer)
	return &msg, nil
}

func quotedID(opts *engine.SendOptions) string {
	if opts == nil {
		return ""
	}
	return opts.QuotedID
}

func (c *Client) SendReaction(ctx context.Context, messageID string, emoji string) error {
	stored, ok := c.index.message(messageID)
	if !ok {
		return engine.ErrMessageNotFound
	}

	chatJID, err := types.ParseJID(stored.msg.ChatID)
	if err != nil {
		return err
	}

	sender := stored.sender
	if stored.msg.FromMe && c.cli.Store.ID != nil {
		sender = *c.cli.Store.ID
	}

	msg := c.cli.BuildReaction(chatJID, sender, types.MessageID(messageID), emoji)
	_, err = c.cli.SendMessage(ctx, chatJID, msg)
	return err
}

func (c *Client) SetArchived(ctx context.Context, chatID string, archived bool) error {
	jid := composeJID(chatID)
	if err := c.cli.SendAppState(ctx, appstate.BuildArchive(jid, archived, time.Time{}, nil)); err != nil {
		return err
	}
	c.index.setArchived(jid.String(), archived)
	return nil
}

func (c *Client) SetPinned(ctx context.Context, chatID string, pinned bool) error {
	jid := composeJID(chatID)
	if err := c.cli.SendAppState(ctx, appstate.BuildPin(jid, pinned)); err != nil {
		return err
	}
	c.index.setPinned(jid.String(), pinned)
	return nil
}

func (c *Client) DownloadMedia(ctx context.Context, messageID string) (*engine.Media, error) {
	stored, ok := c.index.message(messageID)
	if !ok {
		return nil, engine.ErrMessageNotFound
	}
	if !stored.msg.HasMedia || stored.raw == nil {
		return nil, engine.ErrNoMedia
	}

	data, err := c.cli.DownloadAny(ctx, stored.raw)
	if err != nil {
		return nil, err
	}

	mimetype, fileName := mediaMeta(stored.raw)
	return &engine.Media{
		Data:     data,
		Mimetype: mimetype,
		FileName: fileName,
	}, nil
}

func mediaMeta(m *waE2E.Message) (string, string) {
	switch {
	case m.ImageMessage != nil:
		return m.ImageMessage.GetMimetype(), ""
	case m.VideoMessage != nil:
		return m.VideoMessage.GetMimetype(), ""
	case m.AudioMessage != nil:
		return m.AudioMessage.GetMimetype(), ""
	case m.DocumentMessage != nil:
		return m.DocumentMessage.GetMimetype(), m.DocumentMessage.GetFileName()
	case m.StickerMessage != nil:
		return m.StickerMessage.GetMimetype(), ""
	default:
		return "application/octet-stream", ""
	}
}
