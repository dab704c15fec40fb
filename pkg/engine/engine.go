package engine

import (
	"context"
	"errors"
	"time"
)

// Delivery acknowledgement ordinals, lowest to highest.
const (
	AckPending   = 0
	AckSent      = 1
	AckDelivered = 2
	AckRead      = 3
	AckPlayed    = 4
)

var (
	ErrClientNotPaired = errors.New("engine client is not paired, scan the QR code first")
	ErrChatNotFound    = errors.New("chat is not known to this session")
	ErrMessageNotFound = errors.New("message is not known to this session")
	ErrNoMedia         = errors.New("message does not carry downloadable media")
)

// Chat is a conversation as seen by the automation engine.
type Chat struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	IsGroup       bool      `json:"isGroup"`
	UnreadCount   int       `json:"unreadCount"`
	Archived      bool      `json:"archived"`
	Pinned        bool      `json:"pinned"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// Contact carries the name variants the engine knows for a participant.
type Contact struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	PushName     string `json:"pushName,omitempty"`
	ShortName    string `json:"shortName,omitempty"`
	VerifiedName string `json:"verifiedName,omitempty"`
	IsBusiness   bool   `json:"isBusiness"`
}

// Message is the engine-side message shape, before DTO translation.
type Message struct {
	ID        string
	ChatID    string
	AuthorID  string
	FromMe    bool
	Body      string
	Kind      string
	HasMedia  bool
	Ack       int
	QuotedID  string
	Timestamp time.Time
}

// Media is a downloaded attachment.
type Media struct {
	Data     []byte
	Mimetype string
	FileName string
}

// SendOptions tunes an outbound message.
type SendOptions struct {
	QuotedID string
}

// Client is one tenant-scoped automation-engine session. Implementations
// emit events asynchronously to every handler registered before
// Initialize, in the order the engine produced them.
type Client interface {
	// AddEventHandler registers a callback for engine events. Handlers
	// must be registered before Initialize is called.
	AddEventHandler(handler func(evt interface{}))

	// Initialize connects the underlying session. For unpaired tenants
	// this starts a pairing round and emits PairingCodeEvents.
	Initialize(ctx context.Context) error

	// Destroy tears the session down. Best-effort.
	Destroy(ctx context.Context) error

	Connected() bool

	GetChats(ctx context.Context) ([]Chat, error)
	GetChatByID(ctx context.Context, chatID string) (*Chat, error)
	GetContactByID(ctx context.Context, contactID string) (*Contact, error)
	GetMessageByID(ctx context.Context, messageID string) (*Message, error)
	FetchMessages(ctx context.Context, chatID string, limit int) ([]Message, error)
	GetParticipants(ctx context.Context, chatID string) ([]Contact, error)

	SendSeen(ctx context.Context, chatID string) error
	SendTyping(ctx context.Context, chatID string, typing bool) error
	SendText(ctx context.Context, chatID string, text string, opts *SendOptions) (*Message, error)
	SendReaction(ctx context.Context, messageID string, emoji string) error
	SetArchived(ctx context.Context, chatID string, archived bool) error
	SetPinned(ctx context.Context, chatID string, pinned bool) error

	DownloadMedia(ctx context.Context, messageID string) (*Media, error)
}

// Engine hands out tenant-scoped clients. Each tenant gets isolated
// credentials and pairing state.
type Engine interface {
	NewClient(tenantID string) (Client, error)
}
