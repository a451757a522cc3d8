package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pmb-api/internal/dto"
	"github.com/noah-isme/pmb-api/internal/models"
	"github.com/noah-isme/pmb-api/internal/service"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
	"github.com/noah-isme/pmb-api/pkg/response"
)

type registrationService interface {
	Options(ctx context.Context, claims *models.JWTClaims, query dto.RegistrationOptionsQuery) (*service.RegistrationOptions, error)
	Quote(ctx context.Context, claims *models.JWTClaims, req dto.QuoteRequest) (*service.Quote, error)
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateRegistrationRequest) (*service.RegistrationResult, error)
	Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateRegistrationRequest) (*service.RegistrationResult, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
	List(ctx context.Context, claims *models.JWTClaims, query dto.RegistrationQuery) ([]models.RegistrationDetail, *models.Pagination, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.RegistrationDetail, error)
}

// RegistrationHandler exposes registration endpoints.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(service registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// Options godoc
// @Summary Catalogs for the registration form, narrowed to the caller's scope
// @Tags Registrations
// @Produce json
// @Param branchId query string false "Branch ID"
// @Param trackId query string false "Track ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/options [get]
func (h *RegistrationHandler) Options(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.RegistrationOptionsQuery{
		BranchID: strings.TrimSpace(c.Query("branchId")),
		TrackID:  strings.TrimSpace(c.Query("trackId")),
	}
	options, err := h.service.Options(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Quote godoc
// @Summary Compute the fee breakdown for a selection
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.QuoteRequest true "Fee selection"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /registrations/quote [post]
func (h *RegistrationHandler) Quote(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.QuoteRequest
	if err := bindStrict(c, &req, "quote"); err != nil {
		response.Error(c, err)
		return
	}
	quote, err := h.service.Quote(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote, nil)
}

// Create godoc
// @Summary Register a new applicant
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateRegistrationRequest
	if err := bindStrict(c, &req, "registration"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Edit a registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.UpdateRegistrationRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id} [put]
func (h *RegistrationHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateRegistrationRequest
	if err := bindStrict(c, &req, "registration"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a registration
// @Tags Registrations
// @Param id path string true "Registration ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /registrations/{id} [delete]
func (h *RegistrationHandler) Delete(c *gin.Context) {
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

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Param waveId query string false "Wave ID"
// @Param branchId query string false "Branch ID"
// @Param month query int false "Registration month"
// @Param year query int false "Registration year"
// @Param search query string false "Name, number or prior school"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.RegistrationQuery{
		WaveID:    strings.TrimSpace(c.Query("waveId")),
		BranchID:  strings.TrimSpace(c.Query("branchId")),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	var err error
	for key, dest := range map[string]*int{"month": &query.Month, "year": &query.Year, "page": &query.Page, "pageSize": &query.PageSize} {
		if *dest, err = queryInt(c, key); err != nil {
			response.Error(c, err)
			return
		}
	}
	items, pagination, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Registration detail
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
