package domain

import "time"

// MessageKind tags the normalized shape of an inbound WhatsApp message.
type MessageKind string

const (
	MessageKindText     MessageKind = "text"
	MessageKindImage    MessageKind = "image"
	MessageKindDocument MessageKind = "document"
	MessageKindAudio    MessageKind = "audio"
	MessageKindVideo    MessageKind = "video"
	MessageKindSticker  MessageKind = "sticker"
	MessageKindReaction MessageKind = "reaction"
	MessageKindOther    MessageKind = "other"
)

// IsMedia reports whether the kind can carry a payment proof.
func (k MessageKind) IsMedia() bool {
	return k == MessageKindImage || k == MessageKindDocument
}

// RawMessage is a gateway message after boundary normalization. The ingest
// pipeline never branches on provider-specific payload fields; the webhook
// handler decides the kind exactly once.
type RawMessage struct {
	ID                string
	SenderID          string
	SenderDisplayName string
	GroupID           string
	SentAt            time.Time
	Kind              MessageKind
	TextBody          string
	MediaURL          string
	MimeType          string
	Caption           string
	FileName          string
	QuotedMessageID   string
}

// ChatMessage is the persisted history entry for every group message,
// sale report or not, together with its classification outcome.
type ChatMessage struct {
	ID              string
	MessageID       string
	SenderID        string
	SenderName      string
	GroupID         string
	Kind            MessageKind
	Content         string
	MediaURL        *string
	MimeType        *string
	QuotedMessageID *string
	IsSale          bool
	IsProof         bool
	SaleID          *string
	ProofID         *string
	SentAt          time.Time
	ProcessedAt     time.Time
}
