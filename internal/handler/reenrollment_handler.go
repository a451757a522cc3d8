package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pmb-api/internal/dto"
	"github.com/noah-isme/pmb-api/internal/models"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
	"github.com/noah-isme/pmb-api/pkg/response"
)

type reEnrollmentService interface {
	Create(ctx context.Context, claims *models.JWTClaims, registrationID string, req dto.CreateReEnrollmentRequest) (*models.ReEnrollment, error)
	List(ctx context.Context, claims *models.JWTClaims, query dto.ReEnrollmentQuery) ([]models.ReEnrollment, *models.Pagination, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// ReEnrollmentHandler exposes re-enrollment endpoints.
type ReEnrollmentHandler struct {
	service reEnrollmentService
}

// NewReEnrollmentHandler constructs the handler.
func NewReEnrollmentHandler(service reEnrollmentService) *ReEnrollmentHandler {
	return &ReEnrollmentHandler{service: service}
}

// Create godoc
// @Summary Re-enroll a registration
// @Tags ReEnrollments
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.CreateReEnrollmentRequest true "Re-enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/re-enrollment [post]
func (h *ReEnrollmentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateReEnrollmentRequest
	if err := bindStrict(c, &req, "re-enrollment"); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Create(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// List godoc
// @Summary List re-enrollments
// @Tags ReEnrollments
// @Produce json
// @Param waveId query string false "Wave ID"
// @Param branchId query string false "Branch ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /re-enrollments [get]
func (h *ReEnrollmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.ReEnrollmentQuery{
		WaveID:   strings.TrimSpace(c.Query("waveId")),
		BranchID: strings.TrimSpace(c.Query("branchId")),
	}
	var err error
	if query.Page, err = queryInt(c, "page"); err != nil {
		response.Error(c, err)
		return
	}
	if query.PageSize, err = queryInt(c, "pageSize"); err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Delete godoc
// @Summary Delete a re-enrollment
// @Tags ReEnrollments
// @Param id path string true "Re-enrollment ID"
// @Success 204
// @Router /re-enrollments/{id} [delete]
func (h *ReEnrollmentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
