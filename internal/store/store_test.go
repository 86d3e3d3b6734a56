package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/parse"
	"github.com/harborline/motorsync/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "motorsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedMotor(t *testing.T, s *Store, model string, horsepower float64, family types.Family) *types.Motor {
	t.Helper()
	motor := &types.Motor{
		ModelDisplay: model,
		Horsepower:   horsepower,
		Family:       family,
	}
	require.NoError(t, s.InsertMotor(context.Background(), motor))
	require.NotZero(t, motor.ID)
	return motor
}

func testListing(raw, source, stockNumber string, quantity int, price float64) types.Listing {
	return types.Listing{
		Raw:         raw,
		Source:      source,
		Parsed:      parse.Parse(raw),
		Price:       price,
		StockNumber: stockNumber,
		Quantity:    quantity,
	}
}

func TestMotorRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	motor := &types.Motor{
		ModelDisplay:   "9.9MH FourStroke",
		Horsepower:     9.9,
		Family:         types.FamilyFourStroke,
		ShaftCode:      "MH",
		BasePrice:      3585,
		Features:       []string{"Tiller handle"},
		Specifications: map[string]string{"Weight": "87 lbs"},
	}
	require.NoError(t, s.InsertMotor(ctx, motor))

	got, err := s.GetMotor(ctx, motor.ID)
	require.NoError(t, err)
	assert.Equal(t, "9.9MH FourStroke", got.ModelDisplay)
	assert.Equal(t, types.FamilyFourStroke, got.Family)
	assert.Equal(t, "MH", got.ShaftCode)
	assert.Equal(t, []string{"Tiller handle"}, got.Features)
	assert.Equal(t, map[string]string{"Weight": "87 lbs"}, got.Specifications)
	assert.False(t, got.InStock)
	assert.Nil(t, got.Override)

	_, err = s.GetMotor(ctx, 9999)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestResetThenUpsertStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedMotor(t, s, "9.9MH FourStroke", 9.9, types.FamilyFourStroke)
	b := seedMotor(t, s, "115ELPT Pro XS", 115, types.FamilyProXS)

	require.NoError(t, s.UpsertStock(ctx, a.ID, 2, 3585, "MS-1001"))
	require.NoError(t, s.UpsertStock(ctx, b.ID, 1, 11900, "MS-2001"))

	// The next run's feed no longer carries motor b.
	affected, err := s.ResetStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.NoError(t, s.UpsertStock(ctx, a.ID, 3, 3495, "MS-1001"))

	gotA, err := s.GetMotor(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, gotA.InStock)
	assert.Equal(t, 3, gotA.StockQuantity)
	assert.InDelta(t, 3495, gotA.DealerPrice, 0.001)
	assert.NotNil(t, gotA.LastStockCheck)

	gotB, err := s.GetMotor(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, gotB.InStock)
	assert.Equal(t, 0, gotB.StockQuantity)
	// Out of stock keeps its last known dealer price.
	assert.InDelta(t, 11900, gotB.DealerPrice, 0.001)
}

func TestUpsertStockZeroPriceKeepsDealerPrice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	motor := seedMotor(t, s, "25EL FourStroke", 25, types.FamilyFourStroke)
	require.NoError(t, s.UpsertStock(ctx, motor.ID, 1, 5200, "MS-3001"))
	require.NoError(t, s.UpsertStock(ctx, motor.ID, 2, 0, ""))

	got, err := s.GetMotor(ctx, motor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StockQuantity)
	assert.InDelta(t, 5200, got.DealerPrice, 0.001)
	assert.Equal(t, "MS-3001", got.StockNumber)
}

func TestSetEstimatedPriceLeavesAuthorityPrices(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	motor := seedMotor(t, s, "40ELPT FourStroke", 40, types.FamilyFourStroke)
	require.NoError(t, s.SetEstimatedPrice(ctx, motor.ID, 9400))

	got, err := s.GetMotor(ctx, motor.ID)
	require.NoError(t, err)
	assert.InDelta(t, 9400, got.EstimatedPrice, 0.001)
	assert.Zero(t, got.DealerPrice)
	assert.Zero(t, got.BasePrice)
}

func TestApplyEnrichmentAndOverride(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	motor := seedMotor(t, s, "9.9MH FourStroke", 9.9, types.FamilyFourStroke)

	enrichment := types.Enrichment{
		Description:    "Portable outboard.",
		Features:       []string{"Tiller handle"},
		Specifications: map[string]string{"Weight": "87 lbs"},
	}
	origins := []types.FieldOrigin{{Field: "description", Source: "dealer-site"}}
	require.NoError(t, s.ApplyEnrichment(ctx, motor.ID, enrichment, 75, origins))

	got, err := s.GetMotor(ctx, motor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Portable outboard.", got.Description)
	assert.Equal(t, 75, got.QualityScore)
	assert.NotNil(t, got.LastEnriched)
	require.Len(t, got.Origins, 1)
	assert.Equal(t, "dealer-site", got.Origins[0].Source)

	manual := "Hand-written copy."
	require.NoError(t, s.SetOverride(ctx, motor.ID, &types.Override{Description: &manual}))
	got, err = s.GetMotor(ctx, motor.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Override)
	require.NotNil(t, got.Override.Description)
	assert.Equal(t, "Hand-written copy.", *got.Override.Description)

	// Clearing the override removes the bundle entirely.
	require.NoError(t, s.SetOverride(ctx, motor.ID, nil))
	got, err = s.GetMotor(ctx, motor.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Override)
}

func TestReviewQueueUpsertByListingKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	listing := testListing("90ELPT Command Thrust", "vendor-inventory", "MS-4001", 1, 9800)
	candidates := []types.MatchCandidate{
		{MotorID: 1, ModelDisplay: "90ELPT FourStroke", Score: 55},
		{MotorID: 2, ModelDisplay: "90ELPT FourStroke CT", Score: 45},
	}

	first, err := s.UpsertReviewEntry(ctx, listing, candidates)
	require.NoError(t, err)
	assert.Equal(t, types.ReviewPending, first.Status)
	assert.Equal(t, 55, first.TopScore)

	// The same listing on the next run refreshes the entry in place.
	refreshed := []types.MatchCandidate{{MotorID: 2, ModelDisplay: "90ELPT FourStroke CT", Score: 60}}
	second, err := s.UpsertReviewEntry(ctx, listing, refreshed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same listing key never duplicates")
	assert.Equal(t, 60, second.TopScore)

	count, err := s.CountReviewEntries(ctx, types.ReviewPending)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReviewQueueAdjudicatedEntriesAreLeftAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	listing := testListing("90ELPT Command Thrust", "vendor-inventory", "MS-4001", 1, 9800)
	candidates := []types.MatchCandidate{{MotorID: 1, ModelDisplay: "90ELPT FourStroke", Score: 55}}

	entry, err := s.UpsertReviewEntry(ctx, listing, candidates)
	require.NoError(t, err)
	require.NoError(t, s.ResolveReviewEntry(ctx, entry.ID, types.ReviewApproved))

	// A later run sees the same listing again; the adjudication sticks.
	after, err := s.UpsertReviewEntry(ctx, listing, []types.MatchCandidate{{MotorID: 9, Score: 44}})
	require.NoError(t, err)
	assert.Equal(t, types.ReviewApproved, after.Status)
	assert.Equal(t, 55, after.TopScore)
}

func TestResolveReviewEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	listing := testListing("60ELPT FourStroke", "vendor-inventory", "MS-5001", 1, 8100)
	entry, err := s.UpsertReviewEntry(ctx, listing, []types.MatchCandidate{{MotorID: 1, Score: 50}})
	require.NoError(t, err)

	require.NoError(t, s.ResolveReviewEntry(ctx, entry.ID, types.ReviewRejected))

	// Already adjudicated entries cannot be resolved again.
	err = s.ResolveReviewEntry(ctx, entry.ID, types.ReviewApproved)
	assert.True(t, pkgerrors.IsNotFound(err))

	// Only approve/reject are valid adjudications.
	err = s.ResolveReviewEntry(ctx, entry.ID, types.ReviewPending)
	assert.Error(t, err)

	err = s.ResolveReviewEntry(ctx, "no-such-id", types.ReviewApproved)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestReopenReviewEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	listing := testListing("60ELPT FourStroke", "vendor-inventory", "MS-5002", 1, 8100)
	entry, err := s.UpsertReviewEntry(ctx, listing, []types.MatchCandidate{{MotorID: 1, Score: 50}})
	require.NoError(t, err)

	require.NoError(t, s.ResolveReviewEntry(ctx, entry.ID, types.ReviewApproved))
	require.NoError(t, s.ReopenReviewEntry(ctx, entry.ID))

	// A reopened entry is pending and can be adjudicated again.
	got, err := s.GetReviewEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ReviewPending, got.Status)
	require.NoError(t, s.ResolveReviewEntry(ctx, entry.ID, types.ReviewRejected))

	// Only approved entries can reopen; rejection is final.
	err = s.ReopenReviewEntry(ctx, entry.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	err = s.ReopenReviewEntry(ctx, "no-such-id")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestReviewQueueNoMatchStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	listing := testListing("Mystery Motor 9000", "vendor-inventory", "MS-6001", 1, 0)
	entry, err := s.UpsertReviewEntry(ctx, listing, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ReviewNoMatch, entry.Status)
	assert.Zero(t, entry.TopScore)
}

func TestListReviewEntriesPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		listing := testListing("25EL FourStroke", "vendor-inventory", "MS-"+string(rune('A'+i)), 1, 0)
		_, err := s.UpsertReviewEntry(ctx, listing, []types.MatchCandidate{{MotorID: 1, Score: 40}})
		require.NoError(t, err)
	}

	page, err := s.ListReviewEntries(ctx, types.ReviewPending, 3, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := s.ListReviewEntries(ctx, types.ReviewPending, 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestSyncRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, types.ModeApply)
	require.NoError(t, err)
	assert.Equal(t, types.RunRunning, run.Status)

	run.Status = types.RunFailed
	run.Error = "source fetch failed"
	run.Counters.Processed = 7
	run.Counters.Matched = 3
	require.NoError(t, s.FinishRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RunFailed, got.Status)
	assert.Equal(t, "source fetch failed", got.Error)
	assert.Equal(t, 7, got.Counters.Processed)
	assert.Equal(t, 3, got.Counters.Matched)
	assert.NotNil(t, got.EndedAt)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	_, err = s.GetRun(ctx, "no-such-run")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSourceHealthNudges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedSources(ctx, []types.SourceDescriptor{
		{Name: "vendor-inventory", Active: true, Priority: 1},
	}))

	require.NoError(t, s.RecordSourceFailure(ctx, "vendor-inventory"))
	descriptors, err := s.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.InDelta(t, 0.8, descriptors[0].SuccessRate, 0.001)
	assert.Nil(t, descriptors[0].LastSuccess)

	require.NoError(t, s.RecordSourceSuccess(ctx, "vendor-inventory"))
	descriptors, err = s.ListSources(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.84, descriptors[0].SuccessRate, 0.001)
	assert.NotNil(t, descriptors[0].LastSuccess)

	// Reseeding keeps the rolling health but applies config changes.
	require.NoError(t, s.SeedSources(ctx, []types.SourceDescriptor{
		{Name: "vendor-inventory", Active: false, Priority: 5},
	}))
	descriptors, err = s.ListSources(ctx)
	require.NoError(t, err)
	assert.False(t, descriptors[0].Active)
	assert.Equal(t, 5, descriptors[0].Priority)
	assert.InDelta(t, 0.84, descriptors[0].SuccessRate, 0.001)
}
