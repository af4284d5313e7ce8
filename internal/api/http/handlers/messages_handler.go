package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-tracker/internal/api/dto"
	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

// MessagesHandler serves recent chat history.
type MessagesHandler struct {
	messages repository.MessageRepository
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messages repository.MessageRepository) *MessagesHandler {
	return &MessagesHandler{messages: messages}
}

// ListMessages GET /messages.
func (h *MessagesHandler) ListMessages(c *fiber.Ctx) error {
	entries, err := h.messages.ListRecent(c.UserContext(), parseInt(c.Query("limit"), 100))
	if err != nil {
		return err
	}
	items := make([]dto.ChatMessageResponse, 0, len(entries))
	for i := range entries {
		items = append(items, chatMessageResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func chatMessageResponse(msg *domain.ChatMessage) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{
		ID:              msg.ID,
		MessageID:       msg.MessageID,
		SenderID:        msg.SenderID,
		SenderName:      msg.SenderName,
		GroupID:         msg.GroupID,
		Kind:            msg.Kind,
		Content:         msg.Content,
		MediaURL:        msg.MediaURL,
		MimeType:        msg.MimeType,
		QuotedMessageID: msg.QuotedMessageID,
		IsSale:          msg.IsSale,
		IsProof:         msg.IsProof,
		SaleID:          msg.SaleID,
		ProofID:         msg.ProofID,
		SentAt:          msg.SentAt,
	}
}
