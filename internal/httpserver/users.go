package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type userQuery struct {
	Email    string `schema:"email"`
	Password string `schema:"password"`
}

// listUsers filters like a json-server collection: by email, and by
// email+password for the credential check. Passwords are never returned.
func (h *handler) listUsers(c *gin.Context) {
	values := c.Request.URL.Query()
	var q userQuery
	if err := h.queries.Decode(&q, values); err != nil {
		badRequest(c, "invalid query")
		return
	}

	var (
		users []domain.User
		err   error
	)
	ctx := c.Request.Context()
	_, hasEmail := values["email"]
	_, hasPassword := values["password"]
	switch {
	case hasPassword:
		users, err = h.deps.UserSvc.Match(ctx, q.Email, q.Password)
	case hasEmail:
		users, err = h.deps.UserSvc.ByEmail(ctx, q.Email)
	default:
		users, err = h.deps.UserSvc.List(ctx)
	}
	if err != nil {
		h.respondError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *handler) createUser(c *gin.Context) {
	var body domain.User
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid user body")
		return
	}
	body.ID = ""
	u, err := h.deps.UserSvc.Register(c.Request.Context(), body)
	if err != nil {
		h.respondError(c, "create user", err)
		return
	}
	c.JSON(http.StatusCreated, u)
}
