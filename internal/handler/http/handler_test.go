// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/mock"
	"github.com/MKhiriev/go-doc-sync/internal/service"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ---- Fakes ----

type fakeAppInfoSvc struct{}

func (fakeAppInfoSvc) GetAppInfo(context.Context) models.AppInfo {
	return models.AppInfo{Version: "1.2.3", BuildDate: "2026-01-02", BuildCommit: "abc"}
}

type fakeHealthSvc struct{ err error }

func (f fakeHealthSvc) Check(context.Context) error { return f.err }

// newTestRouter wires the real document and validation services over a
// mocked repository.
func newTestRouter(t *testing.T) (http.Handler, *mock.MockDocumentRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mock.NewMockDocumentRepository(ctrl)

	services := &service.Services{
		DocumentService: service.NewDocumentValidationService().Wrap(service.NewDocumentService(repo, logger.Nop())),
		AppInfoService:  fakeAppInfoSvc{},
		HealthService:   fakeHealthSvc{},
	}
	return NewHandler(services, 0, logger.Nop()).Init(), repo
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

// ---- GET /api/workflows/{id} ----

func TestGetDocument(t *testing.T) {
	tests := []struct {
		name       string
		repoDoc    models.RemoteDocument
		repoErr    error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "found",
			repoDoc:    models.RemoteDocument{ID: "wf-1", Name: "Order pipeline", Content: json.RawMessage(`{"nodes":[]}`), Version: 3},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			repoErr:    store.ErrDocumentNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "document not found",
		},
		{
			name:       "database down",
			repoErr:    fmt.Errorf("%w: connection refused", store.ErrDatabaseUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "database temporarily unavailable",
		},
		{
			name:       "unexpected failure",
			repoErr:    errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, repo := newTestRouter(t)
			repo.EXPECT().GetDocument(gomock.Any(), "wf-1").Return(tt.repoDoc, tt.repoErr)

			rr := doRequest(router, http.MethodGet, "/api/workflows/wf-1", "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.NotEmpty(t, rr.Header().Get(traceIDHeader))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decodeError(t, rr).Message)
				return
			}
			var got models.RemoteDocument
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.repoDoc.Version, got.Version)
			assert.JSONEq(t, `{"nodes":[]}`, string(got.Content))
		})
	}
}

// ---- PUT /api/workflows/{id} ----

func TestUpdateDocument_Success(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.EXPECT().UpdateDocument(gomock.Any(), "wf-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.UpdateRequest) (int64, models.RemoteDocument, error) {
			assert.Equal(t, int64(3), req.ExpectedVersion)
			assert.Equal(t, "renamed", req.Name)
			return 4, models.RemoteDocument{}, nil
		})

	rr := doRequest(router, http.MethodPut, "/api/workflows/wf-1",
		`{"name":"renamed","description":"","content":{"nodes":[]},"expectedVersion":3}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"version":4}`, rr.Body.String())
}

func TestUpdateDocument_Conflict(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.EXPECT().UpdateDocument(gomock.Any(), "wf-1", gomock.Any()).
		Return(int64(0), models.RemoteDocument{Name: "theirs", Version: 7}, store.ErrVersionConflict)

	rr := doRequest(router, http.MethodPut, "/api/workflows/wf-1", `{"name":"mine","expectedVersion":3}`)

	require.Equal(t, http.StatusConflict, rr.Code)
	var current models.RemoteDocument
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &current))
	assert.Equal(t, "wf-1", current.ID)
	assert.Equal(t, "theirs", current.Name)
	assert.Equal(t, int64(7), current.Version)
}

func TestUpdateDocument_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantMsg    string
		wantFields []string
	}{
		{name: "broken JSON", body: `{"name":`, wantMsg: "invalid data provided"},
		{name: "missing name", body: `{"name":"","expectedVersion":1}`, wantMsg: "invalid document", wantFields: []string{"name"}},
		{name: "negative version", body: `{"name":"n","expectedVersion":-2}`, wantMsg: "invalid document", wantFields: []string{"expectedVersion"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t)

			rr := doRequest(router, http.MethodPut, "/api/workflows/wf-1", tt.body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, tt.wantMsg, resp.Message)
			var fields []string
			for _, f := range resp.Errors {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestDocumentRoutes_BlankID(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, http.MethodGet, "/api/workflows/%20", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "empty document id", decodeError(t, rr).Message)
}

// ---- Health, version, unknown routes ----

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := doRequest(router, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	down := &service.Services{HealthService: fakeHealthSvc{err: store.ErrDatabaseUnavailable}}
	rr = doRequest(NewHandler(down, 0, logger.Nop()).Init(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestGetServerVersion(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, http.MethodGet, "/api/version", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"version":"1.2.3","build_date":"2026-01-02","build_commit":"abc"}`, rr.Body.String())
}

func TestUnknownRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodGet, "/api/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(router, http.MethodDelete, "/api/workflows/wf-1", "").Code)
}
