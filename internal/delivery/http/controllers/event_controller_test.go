package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"partymatch/internal/delivery/http/helpers"
	"partymatch/internal/delivery/http/middleware"
	"partymatch/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createErr    error
	created      *domain.Event
	getByIDEvent *domain.Event
	getByIDErr   error
	getByCode    *domain.Event
	getByCodeErr error
	listEvents   []*domain.Event
	listTotal    int
	listErr      error
	updated      *domain.Event
	updateErr    error
	deleteErr    error
	status       *domain.EventStatus
	statusErr    error
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	event.ID = "ev-new"
	event.EventCode = "AB12CD34"
	f.created = event
	return nil
}

func (f *fakeEventService) GetEventByID(ctx context.Context, eventID string) (*domain.Event, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	return f.getByIDEvent, nil
}

func (f *fakeEventService) GetEventByCode(ctx context.Context, code string) (*domain.Event, error) {
	if f.getByCodeErr != nil {
		return nil, f.getByCodeErr
	}
	return f.getByCode, nil
}

func (f *fakeEventService) ListMyEvents(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.listEvents, f.listTotal, nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID, ownerID string, name, eventType, matchingMode *string, matchesPerGuest *int) (*domain.Event, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID, ownerID string) error {
	return f.deleteErr
}

func (f *fakeEventService) GetEventStatus(ctx context.Context, eventID, ownerID string) (*domain.EventStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		contextUserID string
		createErr     error
		wantStatus    int
		wantBodyCode  string
	}{
		{
			name:          "success with defaults",
			body:          `{"name":"Spring Party"}`,
			contextUserID: "user-1",
			wantStatus:    http.StatusCreated,
		},
		{
			name:          "success with explicit settings",
			body:          `{"name":"Mixer","event_type":"networking","matching_mode":"preference_based","matches_per_guest":3}`,
			contextUserID: "user-1",
			wantStatus:    http.StatusCreated,
		},
		{
			name:          "missing name",
			body:          `{"event_type":"party"}`,
			contextUserID: "user-1",
			wantStatus:    http.StatusBadRequest,
			wantBodyCode:  helpers.ErrCodeBadRequest,
		},
		{
			name:          "bad matching mode",
			body:          `{"name":"Party","matching_mode":"soulmates"}`,
			contextUserID: "user-1",
			wantStatus:    http.StatusBadRequest,
			wantBodyCode:  helpers.ErrCodeBadRequest,
		},
		{
			name:          "quota out of range",
			body:          `{"name":"Party","matches_per_guest":99}`,
			contextUserID: "user-1",
			wantStatus:    http.StatusBadRequest,
			wantBodyCode:  helpers.ErrCodeBadRequest,
		},
		{
			name:          "unknown field rejected",
			body:          `{"name":"Party","owner_id":"user-2"}`,
			contextUserID: "user-1",
			wantStatus:    http.StatusBadRequest,
			wantBodyCode:  helpers.ErrCodeBadRequest,
		},
		{
			name:         "no user in context",
			body:         `{"name":"Party"}`,
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{createErr: tt.createErr}
			ctrl := NewEventController(testLogger(), fake)

			req := httptest.NewRequest(http.MethodPost, "http://test/events", strings.NewReader(tt.body))
			if tt.contextUserID != "" {
				req = req.WithContext(middleware.SetUserID(req.Context(), tt.contextUserID))
			}
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				require.NotNil(t, fake.created)
				assert.Equal(t, tt.contextUserID, fake.created.OwnerID)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
				assert.Nil(t, fake.created)
			}
		})
	}
}

func TestEventController_GetEvent(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name         string
		event        *domain.Event
		getErr       error
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			event:      &domain.Event{ID: "ev-1", Name: "Party", EventCode: "AB12CD34", CreatedAt: now, UpdatedAt: now},
			wantStatus: http.StatusOK,
		},
		{
			name:         "not found",
			getErr:       domain.ErrNotFound,
			wantStatus:   http.StatusNotFound,
			wantBodyCode: helpers.ErrCodeNotFound,
		},
		{
			name:         "service error",
			getErr:       assert.AnError,
			wantStatus:   http.StatusInternalServerError,
			wantBodyCode: helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{getByIDEvent: tt.event, getByIDErr: tt.getErr}
			ctrl := NewEventController(testLogger(), fake)

			req := httptest.NewRequest(http.MethodGet, "http://test/events/ev-1", nil)
			req.SetPathValue("eventID", "ev-1")
			rr := httptest.NewRecorder()

			ctrl.GetEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
		})
	}
}

func TestEventController_ListMyEvents(t *testing.T) {
	events := []*domain.Event{
		{ID: "ev-1", Name: "Party A"},
		{ID: "ev-2", Name: "Party B"},
	}
	fake := &fakeEventService{listEvents: events, listTotal: 12}
	ctrl := NewEventController(testLogger(), fake)

	req := httptest.NewRequest(http.MethodGet, "http://test/events/me?page=2&page_size=2", nil)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()

	ctrl.ListMyEvents(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var envelope struct {
		Data  ListMyEventsResponse `json:"data"`
		Error *helpers.APIError    `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.Nil(t, envelope.Error)
	assert.Len(t, envelope.Data.Events, 2)
	assert.Equal(t, 2, envelope.Data.Pagination.Page)
	assert.Equal(t, 2, envelope.Data.Pagination.PageSize)
	assert.Equal(t, 12, envelope.Data.Pagination.Total)
	assert.Equal(t, 6, envelope.Data.Pagination.TotalPages)
}

func TestEventController_UpdateEvent(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		updateErr    error
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			body:       `{"name":"Renamed"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:         "empty name rejected",
			body:         `{"name":"  "}`,
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "not owner",
			body:         `{"name":"Renamed"}`,
			updateErr:    domain.ErrForbidden,
			wantStatus:   http.StatusForbidden,
			wantBodyCode: helpers.ErrCodeForbidden,
		},
		{
			name:         "not found",
			body:         `{"name":"Renamed"}`,
			updateErr:    domain.ErrNotFound,
			wantStatus:   http.StatusNotFound,
			wantBodyCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{updated: &domain.Event{ID: "ev-1", Name: "Renamed"}, updateErr: tt.updateErr}
			ctrl := NewEventController(testLogger(), fake)

			req := httptest.NewRequest(http.MethodPatch, "http://test/events/ev-1", strings.NewReader(tt.body))
			req.SetPathValue("eventID", "ev-1")
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
			rr := httptest.NewRecorder()

			ctrl.UpdateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBodyCode != "" {
				var envelope helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
		})
	}
}

func TestEventController_GetEventStatus(t *testing.T) {
	status := &domain.EventStatus{
		GuestCount:      5,
		RespondentCount: 4,
		QuestionCount:   3,
		MatchCount:      2,
	}
	fake := &fakeEventService{status: status}
	ctrl := NewEventController(testLogger(), fake)

	req := httptest.NewRequest(http.MethodGet, "http://test/events/ev-1/status", nil)
	req.SetPathValue("eventID", "ev-1")
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()

	ctrl.GetEventStatus(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var envelope struct {
		Data  *domain.EventStatus `json:"data"`
		Error *helpers.APIError   `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.Nil(t, envelope.Error)
	assert.Equal(t, 5, envelope.Data.GuestCount)
	assert.Equal(t, 4, envelope.Data.RespondentCount)
}
