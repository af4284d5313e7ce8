package handlers

import (
	"regexp"
	"time"

	"github.com/spec-kit/sales-tracker/internal/api/dto"
	"github.com/spec-kit/sales-tracker/internal/domain"
)

var jidDigits = regexp.MustCompile(`^\d+`)

// NormalizeEvolutionMessage flattens the gateway's duck-typed payload into
// one tagged RawMessage. The kind is decided here, exactly once; nothing
// downstream inspects provider-specific optional fields.
func NormalizeEvolutionMessage(data dto.EvolutionData) domain.RawMessage {
	msg := domain.RawMessage{
		ID:       data.Key.ID,
		GroupID:  data.Key.RemoteJid,
		SentAt:   time.Unix(data.MessageTimestamp, 0).UTC(),
		Kind:     domain.MessageKindOther,
		SenderID: senderPhone(data),
	}
	msg.SenderDisplayName = data.PushName
	if msg.SenderDisplayName == "" {
		msg.SenderDisplayName = msg.SenderID
	}
	msg.QuotedMessageID = quotedMessageID(data)

	m := data.Message
	switch {
	case m.ImageMessage != nil:
		msg.Kind = domain.MessageKindImage
		msg.MediaURL = m.MediaURL
		msg.MimeType = m.ImageMessage.Mimetype
		msg.Caption = m.ImageMessage.Caption
	case m.DocumentMessage != nil:
		msg.Kind = domain.MessageKindDocument
		msg.MediaURL = m.MediaURL
		msg.MimeType = m.DocumentMessage.Mimetype
		msg.FileName = m.DocumentMessage.FileName
	case m.Conversation != "":
		msg.Kind = domain.MessageKindText
		msg.TextBody = m.Conversation
	case m.ExtendedTextMessage != nil:
		msg.Kind = domain.MessageKindText
		msg.TextBody = m.ExtendedTextMessage.Text
	case m.AudioMessage != nil:
		msg.Kind = domain.MessageKindAudio
		msg.MediaURL = m.MediaURL
		msg.MimeType = m.AudioMessage.Mimetype
	case m.VideoMessage != nil:
		msg.Kind = domain.MessageKindVideo
		msg.MediaURL = m.MediaURL
		msg.MimeType = m.VideoMessage.Mimetype
		msg.Caption = m.VideoMessage.Caption
	case m.StickerMessage != nil:
		msg.Kind = domain.MessageKindSticker
		msg.MimeType = m.StickerMessage.Mimetype
	case m.ReactionMessage != nil:
		msg.Kind = domain.MessageKindReaction
		msg.TextBody = m.ReactionMessage.Text
	}
	return msg
}

// senderPhone prefers the gateway-resolved real number; otherwise it
// strips the leading digits out of the participant JID
// ("5493515551234:5@s.whatsapp.net" → "5493515551234").
func senderPhone(data dto.EvolutionData) string {
	if data.ParticipantAlt != "" {
		return data.ParticipantAlt
	}
	jid := data.Key.Participant
	if jid == "" {
		jid = data.Key.RemoteJid
	}
	if digits := jidDigits.FindString(jid); digits != "" {
		return digits
	}
	return jid
}

// quotedMessageID finds the quoted-message reference in either of the two
// locations the gateway uses: top-level for plain conversation messages,
// nested under extendedTextMessage otherwise.
func quotedMessageID(data dto.EvolutionData) string {
	if data.ContextInfo != nil && data.ContextInfo.StanzaID != "" {
		return data.ContextInfo.StanzaID
	}
	if data.Message.ExtendedTextMessage != nil && data.Message.ExtendedTextMessage.ContextInfo != nil {
		return data.Message.ExtendedTextMessage.ContextInfo.StanzaID
	}
	return ""
}
