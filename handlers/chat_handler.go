package handlers

import (
	"net/http"

	"lingo-server/middleware"
	"lingo-server/services"
	"lingo-server/utils/errors"
)

type ChatHandler struct {
	chat services.ChatProvider
}

func NewChatHandler(chat services.ChatProvider) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// GetToken mints a chat provider token for the session user. The client
// needs it to connect to chat and video channels.
func (h *ChatHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	token, err := h.chat.CreateToken(me.PublicID)
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "EXTERNAL_SERVICE_ERROR", "Failed to generate chat token", http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
