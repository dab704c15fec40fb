package meow

import (
	"sort"
	"sync"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine"
)

// whatsmeow keeps no chat history, so the adapter maintains a bounded
// in-memory index of recently seen conversations and messages. It
// backs getChats/fetchMessages style calls and media downloads for
// messages observed during this process lifetime.
const (
	maxMessagesPerChat = 100
	maxTrackedMessages = 4096
)

type storedMessage struct {
	msg    engine.Message
	sender types.JID
	raw    *waE2E.Message
}

type chatRecord struct {
	chat     engine.Chat
	messages []string // message ids, oldest first
}

type chatIndex struct {
	mu    sync.RWMutex
	chats map[string]*chatRecord
	byID  map[string]*storedMessage
	order []string // insertion order of message ids, for eviction
}

func newChatIndex() *chatIndex {
	return &chatIndex{
		chats: make(map[string]*chatRecord),
		byID:  make(map[string]*storedMessage),
	}
}

func (ix *chatIndex) record(msg engine.Message, sender types.JID, raw *waE2E.Message, chatName string, isGroup bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rec, ok := ix.chats[msg.ChatID]
	if !ok {
		rec = &chatRecord{chat: engine.Chat{ID: msg.ChatID, IsGroup: isGroup}}
		ix.chats[msg.ChatID] = rec
	}
	if rec.chat.Name == "" && chatName != "" {
		rec.chat.Name = chatName
	}
	if msg.Timestamp.After(rec.chat.LastMessageAt) {
		rec.chat.LastMessageAt = msg.Timestamp
	}
	if !msg.FromMe {
		rec.chat.UnreadCount++
	}

	rec.messages = append(rec.messages, msg.ID)
	if len(rec.messages) > maxMessagesPerChat {
		rec.messages = rec.messages[len(rec.messages)-maxMessagesPerChat:]
	}

	ix.byID[msg.ID] = &storedMessage{msg: msg, sender: sender, raw: raw}
	ix.order = append(ix.order, msg.ID)
	for len(ix.order) > maxTrackedMessages {
		delete(ix.byID, ix.order[0])
		ix.order = ix.order[1:]
	}
}

func (ix *chatIndex) chatList() []engine.Chat {
	ix.mu.RLock()
	chats := make([]engine.Chat, 0, len(ix.chats))
	for _, rec := range ix.chats {
		chats = append(chats, rec.chat)
	}
	ix.mu.RUnlock()

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessageAt.After(chats[j].LastMessageAt)
	})
	return chats
}

func (ix *chatIndex) chat(chatID string) (engine.Chat, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.chats[chatID]
	if !ok {
		return engine.Chat{}, false
	}
	return rec.chat, true
}

func (ix *chatIndex) messages(chatID string, limit int) []engine.Message {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rec, ok := ix.chats[chatID]
	if !ok {
		return nil
	}
	ids := rec.messages
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	msgs := make([]engine.Message, 0, len(ids))
	for _, id := range ids {
		if stored, ok := ix.byID[id]; ok {
			msgs = append(msgs, stored.msg)
		}
	}
	return msgs
}

func (ix *chatIndex) message(messageID string) (*storedMessage, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	stored, ok := ix.byID[messageID]
	return stored, ok
}

// unreadIDs returns ids of messages not sent by us, newest last, for
// building read receipts.
func (ix *chatIndex) unreadIDs(chatID string) ([]string, types.JID) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rec, ok := ix.chats[chatID]
	if !ok {
		return nil, types.EmptyJID
	}
	var ids []string
	var sender types.JID
	for _, id := range rec.messages {
		if stored, ok := ix.byID[id]; ok && !stored.msg.FromMe {
			ids = append(ids, id)
			sender = stored.sender
		}
	}
	return ids, sender
}

func (ix *chatIndex) markSeen(chatID string) {
	ix.mu.Lock()
	if rec, ok := ix.chats[chatID]; ok {
		rec.chat.UnreadCount = 0
	}
	ix.mu.Unlock()
}

func (ix *chatIndex) setAck(messageID string, level int) {
	ix.mu.Lock()
	if stored, ok := ix.byID[messageID]; ok && level > stored.msg.Ack {
		stored.msg.Ack = level
	}
	ix.mu.Unlock()
}

func (ix *chatIndex) setArchived(chatID string, archived bool) {
	ix.mu.Lock()
	if rec, ok := ix.chats[chatID]; ok {
		rec.chat.Archived = archived
	}
	ix.mu.Unlock()
}

func (ix *chatIndex) setPinned(chatID string, pinned bool) {
	ix.mu.Lock()
	if rec, ok := ix.chats[chatID]; ok {
		rec.chat.Pinned = pinned
	}
	ix.mu.Unlock()
}

func (ix *chatIndex) setChatName(chatID string, name string) {
	ix.mu.Lock()
	if rec, ok := ix.chats[chatID]; ok && name != "" {
		rec.chat.Name = name
	}
	ix.mu.Unlock()
}
