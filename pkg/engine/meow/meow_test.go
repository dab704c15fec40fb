package meow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow/proto/waCommon"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
)

func TestComposeJID(t *testing.T) {
	tests := []struct {
		in         string
		wantUser   string
		wantServer string
	}{
		{"123456789", "123456789", types.DefaultUserServer},
		{"+123456789", "123456789", types.DefaultUserServer},
		{"123456789@s.whatsapp.net", "123456789", types.DefaultUserServer},
		{"123456789-987654321@g.us", "123456789-987654321", types.GroupServer},
		{"123456789-987654321", "123456789-987654321", types.GroupServer},
		{"123456789012345678", "123456789012345678", types.GroupServer},
	}

	for _, tc := range tests {
		jid := composeJID(tc.in)
		assert.Equal(t, tc.wantUser, jid.User, "user part of %q", tc.in)
		assert.Equal(t, tc.wantServer, jid.Server, "server part of %q", tc.in)
	}
}

func TestDecomposeJID(t *testing.T) {
	assert.Equal(t, "123456789", decomposeJID("123456789@s.whatsapp.net"))
	assert.Equal(t, "123456789", decomposeJID("+123456789"))
	assert.Equal(t, "123456789", decomposeJID("123456789"))
}

func TestNormalizeDatastoreDriver(t *testing.T) {
	assert.Equal(t, "pgx", normalizeDatastoreDriver("postgres"))
	assert.Equal(t, "pgx", normalizeDatastoreDriver("PostgreSQL"))
	assert.Equal(t, "pgx", normalizeDatastoreDriver("pgx"))
	assert.Equal(t, "sqlite3", normalizeDatastoreDriver("sqlite3"))
}

func TestNormalizeDatastoreDSN(t *testing.T) {
	dsn := normalizeDatastoreDSN("pgx", "postgres://wa:wa@localhost/wa")
	assert.Contains(t, dsn, "prefer_simple_protocol=true")
	assert.Contains(t, dsn, "statement_cache_capacity=0")
	assert.Contains(t, dsn, "default_query_exec_mode=simple_protocol")

	// Explicit parameters are left alone.
	custom := normalizeDatastoreDSN("pgx", "postgres://wa:wa@localhost/wa?prefer_simple_protocol=false")
	assert.Contains(t, custom, "prefer_simple_protocol=false")
	assert.NotContains(t, custom, "prefer_simple_protocol=true")

	// Non-postgres DSNs are untouched.
	assert.Equal(t, "file:wa.db", normalizeDatastoreDSN("sqlite3", "file:wa.db"))
}

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		name       string
		content    *waE2E.Message
		wantBody   string
		wantKind   string
		wantMedia  bool
		wantQuoted string
	}{
		{
			name:     "plain conversation",
			content:  &waE2E.Message{Conversation: proto.String("hello")},
			wantBody: "hello",
			wantKind: "chat",
		},
		{
			name: "extended text with quote",
			content: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text:        proto.String("replying"),
				ContextInfo: &waE2E.ContextInfo{StanzaID: proto.String("orig-id")},
			}},
			wantBody:   "replying",
			wantKind:   "chat",
			wantQuoted: "orig-id",
		},
		{
			name: "image with caption",
			content: &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
				Caption:  proto.String("look"),
				Mimetype: proto.String("image/jpeg"),
			}},
			wantBody:  "look",
			wantKind:  "image",
			wantMedia: true,
		},
		{
			name: "voice note",
			content: &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
				PTT:      proto.Bool(true),
				Mimetype: proto.String("audio/ogg; codecs=opus"),
			}},
			wantKind:  "ptt",
			wantMedia: true,
		},
		{
			name: "plain audio",
			content: &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
				Mimetype: proto.String("audio/mpeg"),
			}},
			wantKind:  "audio",
			wantMedia: true,
		},
		{
			name: "document",
			content: &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
				FileName: proto.String("report.pdf"),
				Mimetype: proto.String("application/pdf"),
			}},
			wantKind:  "document",
			wantMedia: true,
		},
		{
			name:      "sticker",
			content:   &waE2E.Message{StickerMessage: &waE2E.StickerMessage{}},
			wantKind:  "sticker",
			wantMedia: true,
		},
		{
			name: "reaction",
			content: &waE2E.Message{ReactionMessage: &waE2E.ReactionMessage{
				Text: proto.String("👍"),
				Key:  &waCommon.MessageKey{ID: proto.String("reacted-id")},
			}},
			wantBody:   "👍",
			wantKind:   "reaction",
			wantQuoted: "reacted-id",
		},
		{
			name: "revoke",
			content: &waE2E.Message{ProtocolMessage: &waE2E.ProtocolMessage{
				Type: waE2E.ProtocolMessage_REVOKE.Enum(),
				Key:  &waCommon.MessageKey{ID: proto.String("revoked-id")},
			}},
			wantKind:   "revoked",
			wantQuoted: "revoked-id",
		},
		{
			name:     "nil content",
			content:  nil,
			wantKind: "unknown",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, kind, hasMedia, quoted := classifyContent(tc.content)
			assert.Equal(t, tc.wantBody, body)
			assert.Equal(t, tc.wantKind, kind)
			assert.Equal(t, tc.wantMedia, hasMedia)
			assert.Equal(t, tc.wantQuoted, quoted)
		})
	}
}

func TestAckLevel(t *testing.T) {
	assert.Equal(t, engine.AckDelivered, ackLevel(events.ReceiptTypeDelivered))
	assert.Equal(t, engine.AckRead, ackLevel(events.ReceiptTypeRead))
	assert.Equal(t, engine.AckRead, ackLevel(events.ReceiptTypeReadSelf))
	assert.Equal(t, engine.AckPlayed, ackLevel(events.ReceiptTypePlayed))
}

func TestTranslateMessageGroupAuthor(t *testing.T) {
	evt := &events.Message{
		Info: types.MessageInfo{
			ID: "msg-1",
			MessageSource: types.MessageSource{
				Chat:   types.NewJID("123456789-987654321", types.GroupServer),
				Sender: types.NewJID("555000111", types.DefaultUserServer),
			},
			Timestamp: time.Now(),
		},
		Message: &waE2E.Message{Conversation: proto.String("hi all")},
	}

	msg, chatName, isGroup := translateMessage(evt)
	assert.True(t, isGroup)
	assert.Empty(t, chatName, "group subjects do not come from push names")
	assert.Equal(t, "555000111@s.whatsapp.net", msg.AuthorID)
	assert.Equal(t, "hi all", msg.Body)
	assert.Equal(t, "chat", msg.Kind)
}

func TestTranslateMessageDirectChat(t *testing.T) {
	evt := &events.Message{
		Info: types.MessageInfo{
			ID: "msg-2",
			MessageSource: types.MessageSource{
				Chat:   types.NewJID("555000111", types.DefaultUserServer),
				Sender: types.NewJID("555000111", types.DefaultUserServer),
			},
			PushName:  "Ada",
			Timestamp: time.Now(),
		},
		Message: &waE2E.Message{Conversation: proto.String("hi")},
	}

	msg, chatName, isGroup := translateMessage(evt)
	assert.False(t, isGroup)
	assert.Equal(t, "Ada", chatName)
	assert.Empty(t, msg.AuthorID, "direct chats carry no author id")
}

func TestChatIndexRecordAndFetch(t *testing.T) {
	ix := newChatIndex()
	sender := types.NewJID("555000111", types.DefaultUserServer)

	for i := 0; i < 3; i++ {
		ix.record(engine.Message{
			ID:        string(rune('a' + i)),
			ChatID:    "555000111@s.whatsapp.net",
			Body:      "x",
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
		}, sender, &waE2E.Message{Conversation: proto.String("x")}, "Ada", false)
	}

	chat, ok := ix.chat("555000111@s.whatsapp.net")
	require.True(t, ok)
	assert.Equal(t, "Ada", chat.Name)
	assert.Equal(t, 3, chat.UnreadCount)

	msgs := ix.messages("555000111@s.whatsapp.net", 2)
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].ID)
	assert.Equal(t, "c", msgs[1].ID)

	ix.markSeen("555000111@s.whatsapp.net")
	chat, _ = ix.chat("555000111@s.whatsapp.net")
	assert.Zero(t, chat.UnreadCount)
}

func TestChatIndexAckIsMonotonic(t *testing.T) {
	ix := newChatIndex()
	ix.record(engine.Message{ID: "m1", ChatID: "c", Ack: engine.AckSent, FromMe: true},
		types.EmptyJID, nil, "", false)

	ix.setAck("m1", engine.AckRead)
	stored, ok := ix.message("m1")
	require.True(t, ok)
	assert.Equal(t, engine.AckRead, stored.msg.Ack)

	// A late delivered receipt must not regress the read state.
	ix.setAck("m1", engine.AckDelivered)
	stored, _ = ix.message("m1")
	assert.Equal(t, engine.AckRead, stored.msg.Ack)
}

func TestChatIndexEviction(t *testing.T) {
	ix := newChatIndex()
	for i := 0; i < maxTrackedMessages+10; i++ {
		ix.record(engine.Message{
			ID:     "m" + string(rune(i)),
			ChatID: "c",
		}, types.EmptyJID, nil, "", false)
	}
	_, ok := ix.message("m" + string(rune(0)))
	assert.False(t, ok, "oldest messages are evicted")
	_, ok = ix.message("m" + string(rune(maxTrackedMessages+9)))
	assert.True(t, ok, "newest message survives")
}
