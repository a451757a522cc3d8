package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pmb-api/internal/dto"
	"github.com/noah-isme/pmb-api/internal/models"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

type reEnrollmentServiceMock struct {
	registrationID string
	req            dto.CreateReEnrollmentRequest
	createErr      error
	query          dto.ReEnrollmentQuery
}

func (m *reEnrollmentServiceMock) Create(ctx context.Context, claims *models.JWTClaims, registrationID string, req dto.CreateReEnrollmentRequest) (*models.ReEnrollment, error) {
	m.registrationID = registrationID
	m.req = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.ReEnrollment{ID: "re1", RegistrationID: registrationID}, nil
}

func (m *reEnrollmentServiceMock) List(ctx context.Context, claims *models.JWTClaims, query dto.ReEnrollmentQuery) ([]models.ReEnrollment, *models.Pagination, error) {
	m.query = query
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *reEnrollmentServiceMock) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	return nil
}

func TestReEnrollmentHandlerCreate(t *testing.T) {
	svc := &reEnrollmentServiceMock{}
	handler := NewReEnrollmentHandler(svc)

	c, w := newTestContext(http.MethodPost, "/registrations/r1/re-enrollment", `{"shirtSize":"L","installment1":"500.000","installment1Date":"2025-02-03"}`)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "r1", svc.registrationID)
	assert.Equal(t, int64(500000), svc.req.Installment1.Int64())
	assert.Equal(t, models.MustParseDate("2025-02-03"), svc.req.Installment1Date)
}

func TestReEnrollmentHandlerCreateConflict(t *testing.T) {
	svc := &reEnrollmentServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "registration is already re-enrolled")}
	handler := NewReEnrollmentHandler(svc)

	c, w := newTestContext(http.MethodPost, "/registrations/r1/re-enrollment", `{}`)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, w).Code)
}

func TestReEnrollmentHandlerCreateBadDate(t *testing.T) {
	handler := NewReEnrollmentHandler(&reEnrollmentServiceMock{})

	c, w := newTestContext(http.MethodPost, "/registrations/r1/re-enrollment", `{"installment1Date":"03/02/2025"}`)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReEnrollmentHandlerList(t *testing.T) {
	svc := &reEnrollmentServiceMock{}
	handler := NewReEnrollmentHandler(svc)

	c, w := newTestContext(http.MethodGet, "/re-enrollments?waveId=w1&pageSize=5", "")
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ReEnrollmentQuery{WaveID: "w1", PageSize: 5}, svc.query)
}
