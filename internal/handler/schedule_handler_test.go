package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/dto"
	"github.com/acadplan/timetable-api/internal/middleware"
	"github.com/acadplan/timetable-api/internal/models"
	"github.com/acadplan/timetable-api/internal/service"
)

type statusStoreMock struct {
	statuses map[string]string
}

func key(semester, year int) string {
	return fmt.Sprintf("%d/%d", semester, year)
}

func (m *statusStoreMock) Upsert(_ context.Context, semester, year int, status string) error {
	if m.statuses == nil {
		m.statuses = map[string]string{}
	}
	m.statuses[key(semester, year)] = status
	return nil
}

func (m *statusStoreMock) Get(_ context.Context, semester, year int) (*models.ScheduleStatus, error) {
	status, ok := m.statuses[key(semester, year)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ScheduleStatus{Semester: semester, Year: year, Status: status}, nil
}

func (m *statusStoreMock) DeleteAll(context.Context) error {
	m.statuses = map[string]string{}
	return nil
}

type resultStoreMock struct {
	rows []models.ScheduleResult
}

func (m *resultStoreMock) List(_ context.Context, filter models.ResultFilter) ([]models.ScheduleResult, error) {
	var out []models.ScheduleResult
	for _, r := range m.rows {
		if filter.InstructorID != "" && r.InstructorID != filter.InstructorID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *resultStoreMock) DeleteAll(context.Context) error {
	m.rows = nil
	return nil
}

func newQueryService(statuses *statusStoreMock, results *resultStoreMock) *service.QueryService {
	return service.NewQueryService(results, statuses, service.NewScheduleCache(nil, 0, nil), nil)
}

func performRequest(h gin.HandlerFunc, method, target string, body []byte, claims *models.JWTClaims) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	h(c)
	// Flush the status that gin defers until the engine writes the response.
	c.Writer.WriteHeaderNow()
	return w
}

func TestScheduleHandlerStatusDefaultsToPending(t *testing.T) {
	handler := NewScheduleHandler(nil, newQueryService(&statusStoreMock{}, &resultStoreMock{}), nil)

	w := performRequest(handler.Status, http.MethodGet, "/schedule/status?semester=1&year=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.ScheduleStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusPending, envelope.Data.Status)
}

func TestScheduleHandlerStatusRejectsBadScope(t *testing.T) {
	handler := NewScheduleHandler(nil, newQueryService(&statusStoreMock{}, &resultStoreMock{}), nil)

	w := performRequest(handler.Status, http.MethodGet, "/schedule/status?semester=9&year=2", nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerGenerateValidatesPayload(t *testing.T) {
	handler := NewScheduleHandler(nil, newQueryService(&statusStoreMock{}, &resultStoreMock{}), nil)

	body, _ := json.Marshal(dto.GenerateScheduleRequest{Semester: 5, Year: 1})
	w := performRequest(handler.Generate, http.MethodPost, "/schedule/generate", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerInstructorRequiresProfile(t *testing.T) {
	statuses := &statusStoreMock{}
	results := &resultStoreMock{rows: []models.ScheduleResult{{ID: "res-1", InstructorID: "inst-1"}}}
	handler := NewScheduleHandler(nil, newQueryService(statuses, results), nil)

	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleInstructor}
	w := performRequest(handler.Instructor, http.MethodGet, "/schedule/instructor?semester=1&year=2", nil, claims)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestScheduleHandlerInstructorScopesByProfile(t *testing.T) {
	statuses := &statusStoreMock{}
	results := &resultStoreMock{rows: []models.ScheduleResult{
		{ID: "res-1", Semester: 1, Year: 2, InstructorID: "inst-1", CourseCode: "CS101"},
		{ID: "res-2", Semester: 1, Year: 2, InstructorID: "inst-2", CourseCode: "CS102"},
	}}
	handler := NewScheduleHandler(nil, newQueryService(statuses, results), nil)

	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleInstructor, ProfileID: "inst-1"}
	w := performRequest(handler.Instructor, http.MethodGet, "/schedule/instructor?semester=1&year=2", nil, claims)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.ScheduleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "CS101", envelope.Data[0].CourseCode)
}

func TestScheduleHandlerResetClearsData(t *testing.T) {
	statuses := &statusStoreMock{statuses: map[string]string{key(1, 2): models.StatusCompleted}}
	results := &resultStoreMock{rows: []models.ScheduleResult{{ID: "res-1"}}}
	handler := NewScheduleHandler(nil, newQueryService(statuses, results), nil)

	w := performRequest(handler.Reset, http.MethodDelete, "/schedule/reset", nil, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, results.rows)
	assert.Empty(t, statuses.statuses)
}
