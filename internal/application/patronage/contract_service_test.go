package patronage

import (
	"context"
	"fmt"
	"testing"
	"time"

	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	"github.com/offeringbowl/backend/internal/domain/activity"
	"github.com/offeringbowl/backend/internal/domain/patronage"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"github.com/offeringbowl/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *testutil.SpyStore
	clock      *testutil.Clock
	activities *activityapp.Service
	contracts  *ContractService
	receipts   *ReceiptService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testutil.NewSpyStore()
	clock := testutil.NewClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	n := 0
	opts := []Option{
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		}),
	}
	activities := activityapp.NewService(st, activityapp.WithClock(clock.Now))
	contracts := NewContractService(st, activities, opts...)
	return &fixture{
		store:      st,
		clock:      clock,
		activities: activities,
		contracts:  contracts,
		receipts:   NewReceiptService(st, contracts, activities, opts...),
	}
}

func boolPtr(b bool) *bool { return &b }

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newContract(monasticID string) patronage.Contract {
	return patronage.Contract{
		MonasticID: monasticID,
		Amount:     amount("25.50"),
		Recurring:  boolPtr(true),
	}
}

func (f *fixture) mustCreate(t *testing.T, patronID, monasticID string, status patronage.ContractStatus) *patronage.Contract {
	t.Helper()
	c := newContract(monasticID)
	c.Status = status
	created, err := f.contracts.Create(context.Background(), patronID, c)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return created
}

func TestContractService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.contracts.Create(ctx, "katara", newContract("aang"))
	require.NoError(t, err)
	assert.Equal(t, "id-001", created.ContractID)
	assert.Equal(t, "katara", created.PatronID)
	assert.Equal(t, patronage.ContractStatusActive, created.Status)
	assert.Equal(t, "2024-06-01T00:00:00Z", created.CreatedAt)

	stored, err := f.contracts.Get(ctx, "id-001")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.5").Equal(*stored.Amount))
	assert.True(t, *stored.Recurring)

	result, err := f.activities.ListForUser(ctx, "katara", 10, "")
	require.NoError(t, err)
	require.Len(t, result.Activities, 1)
	assert.Equal(t, activity.TypeContractCreated, result.Activities[0].Type)
	assert.Equal(t, "aang", result.Activities[0].Details["monasticId"])
}

func TestContractService_CreateValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		caller   string
		contract patronage.Contract
		kind     shared.Kind
	}{
		{"missing amount", "katara", patronage.Contract{MonasticID: "aang", Recurring: boolPtr(false)}, shared.KindUnprocessable},
		{"missing recurring", "katara", patronage.Contract{MonasticID: "aang", Amount: amount("1")}, shared.KindUnprocessable},
		{"negative amount", "katara", patronage.Contract{MonasticID: "aang", Amount: amount("-1"), Recurring: boolPtr(false)}, shared.KindUnprocessable},
		{"bad status", "katara", patronage.Contract{MonasticID: "aang", Amount: amount("1"), Recurring: boolPtr(false), Status: "pending"}, shared.KindUnprocessable},
		{"self sponsorship", "aang", newContract("aang"), shared.KindUnprocessable},
		{"other patron", "katara", patronage.Contract{PatronID: "sokka", MonasticID: "aang", Amount: amount("1"), Recurring: boolPtr(false)}, shared.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.contracts.Create(ctx, tt.caller, tt.contract)
			require.Error(t, err)
			assert.Equal(t, tt.kind, shared.KindOf(err))
			assert.Equal(t, 0, f.store.Puts(store.TableContracts))
		})
	}
}

func TestContractService_GetForParty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.mustCreate(t, "katara", "aang", "")

	_, err := f.contracts.GetForParty(ctx, "katara", c.ContractID)
	assert.NoError(t, err)
	_, err = f.contracts.GetForParty(ctx, "aang", c.ContractID)
	assert.NoError(t, err)

	_, err = f.contracts.GetForParty(ctx, "zuko", c.ContractID)
	assert.True(t, shared.IsKind(err, shared.KindForbidden))

	_, err = f.contracts.GetForParty(ctx, "katara", "missing")
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestContractService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.mustCreate(t, "katara", "aang", "")

	paused, err := f.contracts.Update(ctx, "aang", c.ContractID, shared.Patch(`{"status":"paused","amount":"30","patronId":"zuko"}`))
	require.NoError(t, err)
	assert.Equal(t, patronage.ContractStatusPaused, paused.Status)
	assert.Equal(t, "katara", paused.PatronID)
	assert.True(t, decimal.NewFromInt(30).Equal(*paused.Amount))
	f.clock.Advance(time.Second)

	_, err = f.contracts.Update(ctx, "katara", c.ContractID, shared.Patch(`{"status":"canceled"}`))
	require.NoError(t, err)

	result, err := f.activities.ListForUser(ctx, "katara", 10, "")
	require.NoError(t, err)
	require.Len(t, result.Activities, 2)
	assert.Equal(t, activity.TypeContractCanceled, result.Activities[0].Type)
	assert.Equal(t, activity.TypeContractCreated, result.Activities[1].Type)

	byMonastic, err := f.activities.ListForUser(ctx, "aang", 10, "")
	require.NoError(t, err)
	require.Len(t, byMonastic.Activities, 1)
	assert.Equal(t, activity.TypeContractUpdated, byMonastic.Activities[0].Type)
}

func TestContractService_UpdateRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.mustCreate(t, "katara", "aang", "")

	_, err := f.contracts.Update(ctx, "zuko", c.ContractID, shared.Patch(`{"status":"canceled"}`))
	assert.True(t, shared.IsKind(err, shared.KindForbidden))

	_, err = f.contracts.Update(ctx, "katara", c.ContractID, shared.Patch(`{"status":"done"}`))
	assert.True(t, shared.IsKind(err, shared.KindUnprocessable))

	assert.Equal(t, 1, f.store.Puts(store.TableContracts))
}

func TestContractService_Listings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustCreate(t, "katara", "aang", patronage.ContractStatusActive)
	f.mustCreate(t, "katara", "aang", patronage.ContractStatusActive)
	f.mustCreate(t, "katara", "pathik", patronage.ContractStatusCanceled)
	f.mustCreate(t, "sokka", "aang", patronage.ContractStatusPaused)
	f.mustCreate(t, "toph", "aang", patronage.ContractStatusActive)

	all, err := f.contracts.ListForMonastic(ctx, "aang")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active, err := f.contracts.ActiveForMonastic(ctx, "aang")
	require.NoError(t, err)
	assert.Len(t, active, 3)

	patrons, err := f.contracts.ActivePatronIDsForMonastic(ctx, "aang")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"katara", "toph"}, patrons)

	forPatron, err := f.contracts.ListForPatron(ctx, "katara")
	require.NoError(t, err)
	assert.Len(t, forPatron, 3)

	monastics, err := f.contracts.ActiveMonasticIDsForPatron(ctx, "katara")
	require.NoError(t, err)
	assert.Equal(t, []string{"aang"}, monastics)

	between, err := f.contracts.Between(ctx, "katara", "pathik")
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, patronage.ContractStatusCanceled, between[0].Status)
}

func TestContractService_HasActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustCreate(t, "katara", "aang", patronage.ContractStatusActive)
	f.mustCreate(t, "sokka", "aang", patronage.ContractStatusPaused)

	tests := []struct {
		patron, monastic string
		want             bool
	}{
		{"katara", "aang", true},
		{"sokka", "aang", false},
		{"zuko", "aang", false},
		{"", "aang", false},
	}
	for _, tt := range tests {
		got, err := f.contracts.HasActive(ctx, tt.patron, tt.monastic)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.patron, tt.monastic)
	}
}

func TestContractService_CollectFollowsCursors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < queryPageSize+5; i++ {
		f.mustCreate(t, fmt.Sprintf("patron-%03d", i), "aang", patronage.ContractStatusActive)
	}

	all, err := f.contracts.ListForMonastic(ctx, "aang")
	require.NoError(t, err)
	assert.Len(t, all, queryPageSize+5)
}
