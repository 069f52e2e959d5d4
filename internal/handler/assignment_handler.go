package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgrid/school-portal-api/internal/service"
	appErrors "github.com/campusgrid/school-portal-api/pkg/errors"
	"github.com/campusgrid/school-portal-api/pkg/response"
)

// AssignmentHandler exposes the resolved teaching authority of the
// authenticated teacher.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Me godoc
// @Summary Resolve the calling teacher's subject and class authority
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teachers/me/assignments [get]
func (h *AssignmentHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	resolved, err := h.assignments.Resolve(c.Request.Context(), claims.UserID, claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if len(resolved.Warnings) > 0 {
		meta = map[string]interface{}{"warnings": resolved.Warnings}
	}
	response.JSON(c, http.StatusOK, resolved, meta)
}
