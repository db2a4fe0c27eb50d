package handlers

import (
	"context"
	"net/http"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ChatService defines the interface expected from the chat service.
type ChatService interface {
	ProjectMessages(ctx context.Context, projectID uuid.UUID) ([]models.Message, error)
	SendProjectMessage(ctx context.Context, projectID uuid.UUID, content string) (*models.SendMessageResponse, error)
	TogglePin(ctx context.Context, projectID, messageID uuid.UUID) ([]models.Message, error)
	GeneralMessages(ctx context.Context) ([]models.Message, error)
	SendGeneralMessage(ctx context.Context, content string) (*models.SendMessageResponse, error)
}

// ChatHandler serves the JSON endpoints of project threads and the general thread.
type ChatHandler struct {
	chatService ChatService
}

func NewChatHandler(chatSvc ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatSvc}
}

// HandleListProjectMessages handles GET /api/v1/projects/{projectID}/messages
func (h *ChatHandler) HandleListProjectMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	msgs, err := h.chatService.ProjectMessages(r.Context(), id)
	if err != nil {
		respondServiceError(w, "ChatHandler", "HandleListProjectMessages "+id.String(), err, "Failed to list messages")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ListMessagesResponse{Messages: msgs})
}

// HandleSendProjectMessage handles POST /api/v1/projects/{projectID}/messages
func (h *ChatHandler) HandleSendProjectMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.chatService.SendProjectMessage(r.Context(), id, req.Content)
	if err != nil {
		respondServiceError(w, "ChatHandler", "HandleSendProjectMessage "+id.String(), err, "Failed to send message")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleTogglePin handles POST /api/v1/projects/{projectID}/messages/{messageID}/pin
func (h *ChatHandler) HandleTogglePin(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid message ID format")
		return
	}

	msgs, err := h.chatService.TogglePin(r.Context(), id, messageID)
	if err != nil {
		respondServiceError(w, "ChatHandler", "HandleTogglePin "+messageID.String(), err, "Failed to toggle pin")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ListMessagesResponse{Messages: msgs})
}

// HandleListGeneralMessages handles GET /api/v1/general/messages
func (h *ChatHandler) HandleListGeneralMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chatService.GeneralMessages(r.Context())
	if err != nil {
		respondServiceError(w, "ChatHandler", "HandleListGeneralMessages", err, "Failed to list messages")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ListMessagesResponse{Messages: msgs})
}

// HandleSendGeneralMessage handles POST /api/v1/general/messages
func (h *ChatHandler) HandleSendGeneralMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	resp, err := h.chatService.SendGeneralMessage(r.Context(), req.Content)
	if err != nil {
		respondServiceError(w, "ChatHandler", "HandleSendGeneralMessage", err, "Failed to send message")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}
