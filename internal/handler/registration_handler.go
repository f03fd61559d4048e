package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kirusnabavani/UCMS/internal/service"
	"github.com/Kirusnabavani/UCMS/pkg/response"
)

// RegistrationHandler exposes the registration lifecycle endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// MyCourses godoc
// @Summary List the authenticated student's registrations
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registrations/my-courses [get]
func (h *RegistrationHandler) MyCourses(c *gin.Context) {
	registrations, err := h.registrations.ListForStudent(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}

// Register godoc
// @Summary Register for a course
// @Tags Registrations
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Router /registrations/register/{courseId} [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	registration, err := h.registrations.Register(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration, "Successfully registered for course")
}

// Drop godoc
// @Summary Drop a course
// @Tags Registrations
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{courseId} [delete]
func (h *RegistrationHandler) Drop(c *gin.Context) {
	registration, err := h.registrations.Drop(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSONMessage(c, http.StatusOK, registration, "Successfully dropped course")
}

// CourseRegistrations godoc
// @Summary List registrations for a course
// @Tags Registrations
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/course/{courseId} [get]
func (h *RegistrationHandler) CourseRegistrations(c *gin.Context) {
	registrations, err := h.registrations.ListForCourse(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}

// ExportCourseRegistrations godoc
// @Summary Export a course roster as CSV
// @Tags Registrations
// @Produce text/csv
// @Param courseId path string true "Course ID"
// @Success 200 {string} string "CSV payload"
// @Router /registrations/course/{courseId}/export [get]
func (h *RegistrationHandler) ExportCourseRegistrations(c *gin.Context) {
	courseID := c.Param("courseId")
	payload, err := h.registrations.ExportCourseRoster(c.Request.Context(), claimsFromContext(c), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=roster-%s.csv", courseID))
	c.Data(http.StatusOK, "text/csv", payload)
}
