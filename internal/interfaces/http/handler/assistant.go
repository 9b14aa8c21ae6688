package handler

import (
	"context"

	"github.com/datadik/portal/internal/application/assistant"
	"github.com/gin-gonic/gin"
)

type assistantService interface {
	Reply(ctx context.Context, message string) (*assistant.Reply, error)
}

// AssistantHandler answers dashboard chat messages
type AssistantHandler struct {
	BaseHandler
	assistant assistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(svc assistantService) *AssistantHandler {
	return &AssistantHandler{assistant: svc}
}

// Chat godoc
// @Summary      Chat with the assistant
// @Description  Keyword intents answer questions or return a navigation action
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request body assistant.ChatInput true "Message"
// @Success      200 {object} dto.Response{data=assistant.Reply}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req assistant.ChatInput
	if !h.bindJSON(c, &req) {
		return
	}

	reply, err := h.assistant.Reply(c.Request.Context(), req.Message)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reply)
}
