package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/motorsync/internal/store"
	"github.com/harborline/motorsync/pkg/parse"
	"github.com/harborline/motorsync/pkg/reconcile"
	"github.com/harborline/motorsync/pkg/sources"
	"github.com/harborline/motorsync/pkg/types"
)

// cannedFeed is a listing source serving a fixed set of listings.
type cannedFeed struct {
	listings []types.Listing
}

func (c *cannedFeed) Descriptor() types.SourceDescriptor {
	return types.SourceDescriptor{Name: "vendor-inventory", Active: true, Priority: 1}
}

func (c *cannedFeed) Fetch(context.Context) error { return nil }

func (c *cannedFeed) Listings() []types.Listing { return c.listings }

type testEnv struct {
	server *Server
	store  *store.Store
	motor  *types.Motor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "motorsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	motor := &types.Motor{
		ModelDisplay: "9.9MH FourStroke",
		Horsepower:   9.9,
		Family:       types.FamilyFourStroke,
		ShaftCode:    "MH",
		BasePrice:    3585,
	}
	require.NoError(t, s.InsertMotor(ctx, motor))
	require.NoError(t, s.SeedSources(ctx, []types.SourceDescriptor{
		{Name: "vendor-inventory", Active: true, Priority: 1},
	}))

	registry := sources.NewRegistry()
	registry.Set(&cannedFeed{listings: []types.Listing{{
		Raw:         "9.9MH FourStroke",
		Source:      "vendor-inventory",
		Parsed:      parse.Parse("9.9MH FourStroke"),
		Price:       3585,
		StockNumber: "MS-1001",
		Quantity:    2,
	}}})

	reconciler, err := reconcile.New(s, registry)
	require.NoError(t, err)

	return &testEnv{
		server: New(":0", s, reconciler, zerolog.Nop()),
		store:  s,
		motor:  motor,
	}
}

func (env *testEnv) request(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) seedReviewEntry(t *testing.T) *types.ReviewEntry {
	t.Helper()
	listing := types.Listing{
		Raw:         "5 hp FourStroke",
		Source:      "vendor-inventory",
		Parsed:      parse.Parse("5 hp FourStroke"),
		Price:       11900,
		StockNumber: "MS-2001",
		Quantity:    1,
	}
	entry, err := env.store.UpsertReviewEntry(context.Background(), listing, []types.MatchCandidate{
		{MotorID: env.motor.ID, ModelDisplay: env.motor.ModelDisplay, Score: 55},
	})
	require.NoError(t, err)
	return entry
}

func TestPreviewEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result reconcile.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, types.RunCompleted, result.Run.Status)
	require.NotNil(t, result.Preview)
	assert.Equal(t, 1, result.Preview.NewlyInStock)
	assert.Equal(t, 1, result.Run.Counters.Matched)

	// Preview never touches stock.
	motor, err := env.store.GetMotor(context.Background(), env.motor.ID)
	require.NoError(t, err)
	assert.False(t, motor.InStock)
}

func TestReviewListEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedReviewEntry(t)

	rec := env.request(t, http.MethodGet, "/api/review", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []types.ReviewEntry `json:"entries"`
		Total   int                 `json:"total"`
		Page    int                 `json:"page"`
		PerPage int                 `json:"per_page"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, resp.Page)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, types.ReviewPending, resp.Entries[0].Status)

	rec = env.request(t, http.MethodGet, "/api/review?status=approved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
}

func TestApproveEndpoint(t *testing.T) {
	env := newTestEnv(t)
	entry := env.seedReviewEntry(t)

	rec := env.request(t, http.MethodPost, "/api/review/"+entry.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var approved types.ReviewEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	assert.Equal(t, types.ReviewApproved, approved.Status)

	// The approved match flowed through the stock write path.
	motor, err := env.store.GetMotor(context.Background(), env.motor.ID)
	require.NoError(t, err)
	assert.True(t, motor.InStock)
	assert.Equal(t, 1, motor.StockQuantity)
	assert.InDelta(t, 11900, motor.DealerPrice, 0.001)

	// A second approval finds nothing left to resolve.
	rec = env.request(t, http.MethodPost, "/api/review/"+entry.ID+"/approve", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveEndpointBadBody(t *testing.T) {
	env := newTestEnv(t)
	entry := env.seedReviewEntry(t)

	rec := env.request(t, http.MethodPost, "/api/review/"+entry.ID+"/approve", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveEndpointUnknownCandidate(t *testing.T) {
	env := newTestEnv(t)
	entry := env.seedReviewEntry(t)

	body, _ := json.Marshal(map[string]int64{"motor_id": 9999})
	rec := env.request(t, http.MethodPost, "/api/review/"+entry.ID+"/approve", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectEndpoint(t *testing.T) {
	env := newTestEnv(t)
	entry := env.seedReviewEntry(t)

	rec := env.request(t, http.MethodPost, "/api/review/"+entry.ID+"/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rejected types.ReviewEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	assert.Equal(t, types.ReviewRejected, rejected.Status)

	motor, err := env.store.GetMotor(context.Background(), env.motor.ID)
	require.NoError(t, err)
	assert.False(t, motor.InStock)

	rec = env.request(t, http.MethodPost, "/api/review/no-such-entry/reject", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// A preview leaves an audit row behind.
	env.request(t, http.MethodGet, "/api/preview", nil)

	rec := env.request(t, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Runs []types.SyncRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, types.ModePreview, resp.Runs[0].Mode)
	assert.Equal(t, types.RunCompleted, resp.Runs[0].Status)
}

func TestMotorsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/motors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Motors []types.Motor `json:"motors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Motors, 1)
	assert.Equal(t, "9.9MH FourStroke", resp.Motors[0].ModelDisplay)
}
