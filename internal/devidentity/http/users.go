package http

import (
	"errors"
	"net/http"

	"github.com/carematch360/portal/internal/devidentity/service"
	"github.com/carematch360/portal/pkg/httpx"
)

type UsersHandler struct {
	Users *service.Directory
}

// HandleMe handles GET /users/me
//
//	@Summary		Current user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	service.UserView
//	@Failure		401	{object}	httpx.ErrorBody	"Invalid or missing access token"
//	@Router			/users/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, httpx.UserIDFromContext(r.Context()))
}

// HandleByID handles GET /users/{id}
//
//	@Summary		User by id
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"User id"
//	@Success		200	{object}	service.UserView
//	@Failure		403	{object}	httpx.ErrorBody	"Admin role required"
//	@Failure		404	{object}	httpx.ErrorBody	"Unknown user"
//	@Router			/users/{id} [get].
func (h *UsersHandler) HandleByID(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, r.PathValue("id"))
}

func (h *UsersHandler) writeUser(w http.ResponseWriter, id string) {
	u, err := h.Users.ByID(id)
	if errors.Is(err, service.ErrUserNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u.View())
}
