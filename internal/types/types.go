package types

import "time"

type RequestSendMessage struct {
	Body        string `json:"body" form:"body"`
	QuotedMsgID string `json:"quotedMsgId" form:"quotedMsgId"`
}

type RequestTyping struct {
	Typing bool `json:"typing" form:"typing"`
}

type RequestArchive struct {
	Archive bool `json:"archive" form:"archive"`
}

type RequestPin struct {
	Pin bool `json:"pin" form:"pin"`
}

type RequestReaction struct {
	Emoji string `json:"emoji" form:"emoji"`
}

type ResponseSession struct {
	TenantID string `json:"tenantId"`
	State    string `json:"state"`
	Pairing  bool   `json:"pairing"`
}

type ResponseQRCode struct {
	QRCode string `json:"qrCode"`
	State  string `json:"state"`
}

type ResponseTenantToken struct {
	TenantID string `json:"tenantId"`
	Token    string `json:"token"`
}

type ResponseMessageSent struct {
	MessageID string    `json:"messageId"`
	ChatID    string    `json:"chatId"`
	Timestamp time.Time `json:"timestamp"`
}

type ResponseParticipant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ResponseContact struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	PushName     string `json:"pushName,omitempty"`
	ShortName    string `json:"shortName,omitempty"`
	VerifiedName string `json:"verifiedName,omitempty"`
	IsBusiness   bool   `json:"isBusiness"`
	ResolvedName string `json:"resolvedName"`
}
