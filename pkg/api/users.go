package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Username string `json:"username"`
}

// handleCreateUser registers a user and returns the stored row, uuid
// included.
func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "bad request", "Unprocessable Entity",
			map[string][]string{"username": {"Missing data for required field."}})
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		errorResponse(c, http.StatusBadRequest, "bad request", "Unprocessable Entity",
			map[string][]string{"username": {blankFieldMessage}})
		return
	}

	user, err := s.users.CreateUser(c.Request.Context(), req.Username)
	if err != nil {
		s.logger.Error("failed to create user", "error", err)
		errorResponse(c, http.StatusInternalServerError, "internal server error", "Internal server error", nil)
		return
	}
	okResponse(c, user)
}
