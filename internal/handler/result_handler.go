package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kirusnabavani/UCMS/internal/service"
	appErrors "github.com/Kirusnabavani/UCMS/pkg/errors"
	"github.com/Kirusnabavani/UCMS/pkg/response"
)

// ResultHandler exposes result recording and transcript endpoints.
type ResultHandler struct {
	results *service.ResultService
}

// NewResultHandler constructs ResultHandler.
func NewResultHandler(results *service.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// Assign godoc
// @Summary Assign a result to a registration
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.AssignResultRequest true "Result payload"
// @Success 201 {object} response.Envelope
// @Router /results [post]
func (h *ResultHandler) Assign(c *gin.Context) {
	var req service.AssignResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.results.Assign(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result, "Result assigned successfully")
}

// MyResults godoc
// @Summary List the authenticated student's results
// @Tags Results
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /results/my-results [get]
func (h *ResultHandler) MyResults(c *gin.Context) {
	results, err := h.results.ListForStudent(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Transcript godoc
// @Summary Download the authenticated student's transcript as PDF
// @Tags Results
// @Produce application/pdf
// @Success 200 {string} string "PDF payload"
// @Router /results/transcript [get]
func (h *ResultHandler) Transcript(c *gin.Context) {
	payload, err := h.results.Transcript(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=transcript.pdf")
	c.Data(http.StatusOK, "application/pdf", payload)
}
