package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"lingo-server/middleware"
	"lingo-server/services"
	"lingo-server/utils/errors"
)

type UserHandler struct {
	users   *services.UserService
	friends *services.FriendService
}

func NewUserHandler(users *services.UserService, friends *services.FriendService) *UserHandler {
	return &UserHandler{users: users, friends: friends}
}

// GetRecommended lists onboarded users who are neither the caller nor
// already friends with them.
func (h *UserHandler) GetRecommended(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	recommended, err := h.users.ListRecommended(r.Context(), me)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Recommended users fetched successfully",
		"recommendedUsers": recommended,
	})
}

func (h *UserHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	friends, err := h.friends.ListFriends(r.Context(), me)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

func (h *UserHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	recipientID := mux.Vars(r)["id"]

	request, err := h.friends.SendRequest(r.Context(), me, recipientID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Friend request sent successfully",
		"friendRequest": request,
	})
}

func (h *UserHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	requestID := mux.Vars(r)["id"]

	request, err := h.friends.AcceptRequest(r.Context(), me, requestID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Friend request accepted",
		"friendRequest": request,
	})
}

// GetFriendRequests returns the caller's pending incoming requests along
// with their sent requests that were accepted.
func (h *UserHandler) GetFriendRequests(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	incoming, err := h.friends.ListIncoming(r.Context(), me)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	accepted, err := h.friends.ListAccepted(r.Context(), me)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"incomingRequests": incoming,
		"acceptedRequests": accepted,
	})
}

func (h *UserHandler) GetOutgoingRequests(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserFrom(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	outgoing, err := h.friends.ListOutgoing(r.Context(), me)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"outgoingRequests": outgoing})
}
