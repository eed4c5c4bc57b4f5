package server

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/libsync/libsync/pkg/config"
	"github.com/libsync/libsync/pkg/jobs"
	"github.com/libsync/libsync/pkg/migrations"
	"github.com/libsync/libsync/pkg/models"
)

func newTestServer(t *testing.T) (http.Handler, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	cfg := &config.Config{APIKey: "secret"}
	srv, err := New(cfg, db)
	require.NoError(t, err)

	return srv.Handler, db
}

func request(handler http.Handler, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+apiKey)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestTriggerRequiresAPIKey(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := request(handler, http.MethodPost, "/update/fl", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(handler, http.MethodPost, "/update/fl", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerUnknownUpdater(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := request(handler, http.MethodPost, "/update/nope", "secret")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerEnqueuesRunJob(t *testing.T) {
	handler, db := newTestServer(t)

	rec := request(handler, http.MethodPost, "/update/fl", "secret")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Triggered bool   `json:"triggered"`
		JobID     string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Triggered)
	require.NotEmpty(t, resp.JobID)

	job, err := jobs.NewService(db).RetrieveJob(context.Background(), jobs.RetrieveJobOptions{ID: &resp.JobID})
	require.NoError(t, err)
	assert.Equal(t, models.JobTypeRunFullUpdate, job.Type)
	assert.Equal(t, models.JobStatusPending, job.Status)
}

func TestJobsReadAPI(t *testing.T) {
	handler, db := newTestServer(t)

	jobService := jobs.NewService(db)
	job := &models.Job{
		ID:         "300_update_books",
		Type:       models.JobTypeUpdateBooks,
		DataParsed: &models.JobUpdateData{Prefix: "300"},
	}
	require.NoError(t, jobService.Enqueue(context.Background(), job))

	rec := request(handler, http.MethodGet, "/jobs", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(handler, http.MethodGet, "/jobs", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Jobs  []*models.Job `json:"jobs"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Total)
	require.Len(t, listResp.Jobs, 1)
	assert.Equal(t, "300_update_books", listResp.Jobs[0].ID)

	rec = request(handler, http.MethodGet, "/jobs/300_update_books", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(handler, http.MethodGet, "/jobs/missing", "secret")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(handler, http.MethodGet, "/jobs/300_update_books/logs", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := request(handler, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
