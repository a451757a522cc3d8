package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pmb-api/internal/dto"
	"github.com/noah-isme/pmb-api/internal/middleware"
	"github.com/noah-isme/pmb-api/internal/models"
	"github.com/noah-isme/pmb-api/internal/service"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

type registrationServiceMock struct {
	createReq   dto.CreateRegistrationRequest
	createErr   error
	quoteReq    dto.QuoteRequest
	listQuery   dto.RegistrationQuery
	deleteErr   error
	createCalls int
	deletedID   string
}

func (m *registrationServiceMock) Options(ctx context.Context, claims *models.JWTClaims, query dto.RegistrationOptionsQuery) (*service.RegistrationOptions, error) {
	return &service.RegistrationOptions{Scope: models.ScopeContext{BranchID: query.BranchID}}, nil
}

func (m *registrationServiceMock) Quote(ctx context.Context, claims *models.JWTClaims, req dto.QuoteRequest) (*service.Quote, error) {
	m.quoteReq = req
	fee := service.ComputeTotal(req.BaseFee.Int64(), req.DiscountAmount.Int64())
	return &service.Quote{Fee: fee, Formatted: fee.Format()}, nil
}

func (m *registrationServiceMock) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateRegistrationRequest) (*service.RegistrationResult, error) {
	m.createCalls++
	m.createReq = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &service.RegistrationResult{Registration: &models.Registration{ID: "r1", Number: "20250115-003"}}, nil
}

func (m *registrationServiceMock) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateRegistrationRequest) (*service.RegistrationResult, error) {
	return &service.RegistrationResult{Registration: &models.Registration{ID: id}}, nil
}

func (m *registrationServiceMock) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	m.deletedID = id
	return m.deleteErr
}

func (m *registrationServiceMock) List(ctx context.Context, claims *models.JWTClaims, query dto.RegistrationQuery) ([]models.RegistrationDetail, *models.Pagination, error) {
	m.listQuery = query
	return []models.RegistrationDetail{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *registrationServiceMock) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.RegistrationDetail, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleLeadership})
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *appErrors.Error {
	t.Helper()
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error
}

func TestRegistrationHandlerCreate(t *testing.T) {
	svc := &registrationServiceMock{}
	handler := NewRegistrationHandler(svc)

	c, w := newTestContext(http.MethodPost, "/registrations", `{
		"registeredOn": "2025-01-15",
		"applicantName": "Ani",
		"phone": "0812",
		"branchId": "A",
		"trackId": "reg-a",
		"majorId": "tkj-a",
		"discountAmount": "300.000"
	}`)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.MustParseDate("2025-01-15"), svc.createReq.RegisteredOn)
	assert.Equal(t, int64(300000), svc.createReq.DiscountAmount.Int64())
	assert.Contains(t, w.Body.String(), "20250115-003")
}

func TestRegistrationHandlerCreateRejectsUnknownFields(t *testing.T) {
	svc := &registrationServiceMock{}
	handler := NewRegistrationHandler(svc)

	c, w := newTestContext(http.MethodPost, "/registrations", `{"applicantName":"Ani","number":"20250115-999"}`)
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeError(t, w).Code)
	assert.Zero(t, svc.createCalls)
}

func TestRegistrationHandlerCreateMapsDomainErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"no wave":   {appErrors.ErrNoWaveForDate, http.StatusUnprocessableEntity, "NO_WAVE_FOR_DATE"},
		"exhausted": {appErrors.ErrSequenceExhausted, http.StatusConflict, "SEQUENCE_EXHAUSTED"},
		"scope":     {appErrors.WithDetails(appErrors.ErrScopeMismatch, map[string]string{"major_id": "major belongs to branch B"}), http.StatusUnprocessableEntity, "SCOPE_MISMATCH"},
		"internal":  {errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := NewRegistrationHandler(&registrationServiceMock{createErr: tc.err})
			c, w := newTestContext(http.MethodPost, "/registrations", `{"applicantName":"Ani"}`)
			handler.Create(c)

			require.Equal(t, tc.status, w.Code)
			apiErr := decodeError(t, w)
			assert.Equal(t, tc.code, apiErr.Code)
			assert.NotContains(t, w.Body.String(), "db down")
		})
	}
}

func TestRegistrationHandlerQuote(t *testing.T) {
	svc := &registrationServiceMock{}
	handler := NewRegistrationHandler(svc)

	c, w := newTestContext(http.MethodPost, "/registrations/quote", `{"baseFee":"1.500.000","discountAmount":2000000}`)
	handler.Quote(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data service.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Fee.Clamped)
	assert.Equal(t, "0", envelope.Data.Formatted.Total)
}

func TestRegistrationHandlerListParsesQuery(t *testing.T) {
	svc := &registrationServiceMock{}
	handler := NewRegistrationHandler(svc)

	c, w := newTestContext(http.MethodGet, "/registrations?waveId=w1&month=1&year=2025&page=2&pageSize=50&search=ani", "")
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RegistrationQuery{WaveID: "w1", Month: 1, Year: 2025, Page: 2, PageSize: 50, Search: "ani"}, svc.listQuery)

	c, w = newTestContext(http.MethodGet, "/registrations?month=jan", "")
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "number", decodeError(t, w).Details["month"])
}

func TestRegistrationHandlerDelete(t *testing.T) {
	svc := &registrationServiceMock{}
	handler := NewRegistrationHandler(svc)

	c, w := newTestContext(http.MethodDelete, "/registrations/r1", "")
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "r1", svc.deletedID)

	svc.deleteErr = appErrors.Clone(appErrors.ErrPreconditionFailed, "registration has a re-enrollment and cannot be deleted")
	c, w = newTestContext(http.MethodDelete, "/registrations/r1", "")
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	handler.Delete(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestRegistrationHandlerRequiresClaims(t *testing.T) {
	handler := NewRegistrationHandler(&registrationServiceMock{})
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/registrations/r1", nil)

	handler.Get(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegistrationHandlerGetNotFound(t *testing.T) {
	handler := NewRegistrationHandler(&registrationServiceMock{})
	c, w := newTestContext(http.MethodGet, "/registrations/r9", "")
	c.Params = gin.Params{{Key: "id", Value: "r9"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
