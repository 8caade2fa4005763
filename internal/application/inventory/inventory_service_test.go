package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	svc       *InventoryService
	store     *memStore
	publisher *recordingPublisher
	ctx       context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	cfg := shared.DefaultLockConfig()
	cfg.AcquireTimeout = 2 * time.Second
	locker := cache.NewInMemoryEntityLocker(cfg)
	t.Cleanup(func() { _ = locker.Close() })

	svc := NewInventoryService(
		&memBuildingRepo{s: store},
		&memFloorRepo{s: store},
		&memPropertyRepo{s: store},
		nil,
		locker,
	)
	svc.SetClock(shared.FixedClock{At: testNow})
	publisher := &recordingPublisher{}
	svc.SetEventPublisher(publisher)

	return &testEnv{svc: svc, store: store, publisher: publisher, ctx: context.Background()}
}

func (e *testEnv) createBuilding(t *testing.T) *BuildingResponse {
	t.Helper()
	b, err := e.svc.CreateBuilding(e.ctx, CreateBuildingRequest{
		ProjectName:        "Palm Grove",
		Location:           "Kochi",
		Category:           "apartment-complex",
		ConstructionStatus: "under-construction",
		PriceMin:           "4000000",
		PriceMax:           "9000000",
	})
	require.NoError(t, err)
	return b
}

func (e *testEnv) createFloor(t *testing.T, buildingID uuid.UUID, floorNumber, total int) *FloorUnitResponse {
	t.Helper()
	f, err := e.svc.CreateFloorUnit(e.ctx, buildingID, CreateFloorUnitRequest{
		FloorNumber:   floorNumber,
		UnitType:      "2BHK",
		TotalSubUnits: total,
		PriceMin:      "4000000",
		PriceMax:      "5000000",
	})
	require.NoError(t, err)
	return f
}

func (e *testEnv) createProperty(t *testing.T, floorID uuid.UUID, unit string) *PropertyResponse {
	t.Helper()
	p, err := e.svc.CreateProperty(e.ctx, floorID, CreatePropertyRequest{
		UnitNumber:  unit,
		TotalAmount: "4500000",
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) sell(t *testing.T, propertyID uuid.UUID) *SaleResponse {
	t.Helper()
	customer := uuid.New()
	sale, err := e.svc.RecordSale(e.ctx, RecordSaleRequest{PropertyID: propertyID, CustomerID: &customer})
	require.NoError(t, err)
	return sale
}

func TestInventoryService_CreateBuilding(t *testing.T) {
	env := newTestEnv(t)

	t.Run("round trips through the repository", func(t *testing.T) {
		created := env.createBuilding(t)

		got, err := env.svc.GetBuilding(env.ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Palm Grove", got.ProjectName)
		assert.Equal(t, "apartment-complex", got.Category)
		assert.Equal(t, "under-construction", got.ConstructionStatus)
		assert.True(t, decimal.NewFromInt(4_000_000).Equal(got.PriceMin))
		assert.Zero(t, got.TotalUnits)
		assert.Equal(t, testNow, got.CreatedAt)
		assert.Contains(t, env.publisher.types(), inventory.EventTypeBuildingCreated)
	})

	t.Run("rejects invalid draft with field details", func(t *testing.T) {
		_, err := env.svc.CreateBuilding(env.ctx, CreateBuildingRequest{
			ProjectName: " ",
			Location:    "Kochi",
			Category:    "castle",
			PriceMin:    "10",
			PriceMax:    "5",
		})

		require.Error(t, err)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, shared.CodeInvalidArgument, de.Code)
		fields := make([]string, 0, len(de.Details))
		for _, d := range de.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"project_name", "category"}, fields)
	})

	t.Run("rejects inverted price band", func(t *testing.T) {
		_, err := env.svc.CreateBuilding(env.ctx, CreateBuildingRequest{
			ProjectName: "Hill View",
			Location:    "Munnar",
			Category:    "villa-complex",
			PriceMin:    "10",
			PriceMax:    "5",
		})

		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
	})

	t.Run("missing building is NOT_FOUND", func(t *testing.T) {
		_, err := env.svc.GetBuilding(env.ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestInventoryService_ListBuildings(t *testing.T) {
	env := newTestEnv(t)
	env.createBuilding(t)
	_, err := env.svc.CreateBuilding(env.ctx, CreateBuildingRequest{
		ProjectName: "Lake Shore Plots",
		Location:    "Alappuzha",
		Category:    "plot-development",
		PriceMin:    "100",
		PriceMax:    "200",
	})
	require.NoError(t, err)

	items, total, err := env.svc.ListBuildings(env.ctx, BuildingListFilter{Category: "plot-development"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Lake Shore Plots", items[0].ProjectName)

	items, total, err = env.svc.ListBuildings(env.ctx, BuildingListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	_, _, err = env.svc.ListBuildings(env.ctx, BuildingListFilter{OrderDir: "sideways"})
	assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
}

func TestInventoryService_UpdateBuilding(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)

	updated, err := env.svc.UpdateBuilding(env.ctx, b.ID, UpdateBuildingRequest{
		ProjectName:        "Palm Grove Phase II",
		Location:           "Kochi",
		ConstructionStatus: "completed",
		CompletionDate:     "2026-03-31",
		PriceMin:           "4500000",
		PriceMax:           "9500000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Palm Grove Phase II", updated.ProjectName)
	assert.Equal(t, "completed", updated.ConstructionStatus)
	require.NotNil(t, updated.CompletionDate)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *updated.CompletionDate)
	assert.Greater(t, updated.Version, b.Version)

	_, err = env.svc.UpdateBuilding(env.ctx, b.ID, UpdateBuildingRequest{
		ProjectName:        "Palm Grove",
		Location:           "Kochi",
		ConstructionStatus: "planned",
		PriceMin:           "1",
		PriceMax:           "2",
	})
	assert.Equal(t, shared.CodeInvalidStateTransition, shared.CodeOf(err))
}

func TestInventoryService_OccupancyScenario(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f1 := env.createFloor(t, b.ID, 1, 6)
	f2 := env.createFloor(t, b.ID, 2, 4)

	got, err := env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalUnits)
	assert.Equal(t, 10, got.AvailableUnits)
	assert.Zero(t, got.SoldUnits)

	var units []*PropertyResponse
	for i := 0; i < 3; i++ {
		units = append(units, env.createProperty(t, f1.ID, fmt.Sprintf("1%02d", i+1)))
	}
	env.createProperty(t, f2.ID, "201")

	for _, u := range units {
		env.sell(t, u.ID)
	}

	occ, err := env.svc.ComputeOccupancy(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, occ.TotalUnits)
	assert.Equal(t, 7, occ.AvailableUnits)
	assert.Equal(t, 3, occ.SoldUnits)
	assert.True(t, decimal.NewFromInt(30).Equal(occ.PercentSold), "got %s", occ.PercentSold)

	got, err = env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalUnits)
	assert.Equal(t, 7, got.AvailableUnits)
	assert.Equal(t, 3, got.SoldUnits)

	floor, err := env.svc.GetFloorUnit(env.ctx, f1.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, floor.AvailableSubUnits)
	assert.Equal(t, 3, floor.SoldSubUnits)

	// Reconciling a consistent building is a no-op
	result, err := env.svc.ReconcileBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, result.Drifted)
}

func TestInventoryService_RecordSale(t *testing.T) {
	setup := func(t *testing.T) (*testEnv, *BuildingResponse, *FloorUnitResponse, *PropertyResponse) {
		env := newTestEnv(t)
		b := env.createBuilding(t)
		f := env.createFloor(t, b.ID, 1, 2)
		p := env.createProperty(t, f.ID, "101")
		return env, b, f, p
	}

	t.Run("updates all three levels", func(t *testing.T) {
		env, b, f, p := setup(t)
		customer := uuid.New()

		sale, err := env.svc.RecordSale(env.ctx, RecordSaleRequest{PropertyID: p.ID, CustomerID: &customer})
		require.NoError(t, err)

		assert.Equal(t, "sold", sale.Property.Status)
		require.NotNil(t, sale.Property.CustomerID)
		assert.Equal(t, customer, *sale.Property.CustomerID)
		require.NotNil(t, sale.Property.SoldAt)
		assert.Equal(t, testNow, *sale.Property.SoldAt)
		assert.Equal(t, f.ID, sale.FloorUnit.ID)
		assert.Equal(t, 1, sale.FloorUnit.AvailableSubUnits)
		assert.Equal(t, b.ID, sale.Building.ID)
		assert.Equal(t, 2, sale.Building.TotalUnits)
		assert.Equal(t, 1, sale.Building.AvailableUnits)
		assert.Equal(t, 1, sale.Building.SoldUnits)
		assert.Contains(t, env.publisher.types(), inventory.EventTypePropertySold)
	})

	t.Run("reconciles a drifted cache before counting", func(t *testing.T) {
		env, b, f, p := setup(t)
		_, err := env.svc.AddSubUnits(env.ctx, f.ID, 3)
		require.NoError(t, err)
		env.publisher.reset()

		sale := env.sell(t, p.ID)
		assert.Equal(t, b.ID, sale.Building.ID)
		assert.Equal(t, 5, sale.Building.TotalUnits)
		assert.Equal(t, 4, sale.Building.AvailableUnits)
		assert.Equal(t, 1, sale.Building.SoldUnits)
		assert.Contains(t, env.publisher.types(), inventory.EventTypeBuildingReconciled)
	})

	t.Run("second sale of same property is rejected", func(t *testing.T) {
		env, _, f, p := setup(t)
		env.sell(t, p.ID)

		customer := uuid.New()
		_, err := env.svc.RecordSale(env.ctx, RecordSaleRequest{PropertyID: p.ID, CustomerID: &customer})
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.CodeOf(err))

		floor, err := env.svc.GetFloorUnit(env.ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, floor.AvailableSubUnits)
	})

	t.Run("customer is required without a reservation", func(t *testing.T) {
		env, _, _, p := setup(t)

		_, err := env.svc.RecordSale(env.ctx, RecordSaleRequest{PropertyID: p.ID})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))

		got, err := env.svc.GetProperty(env.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "available", got.Status)
	})

	t.Run("reserved property sells to the reserving customer", func(t *testing.T) {
		env, _, _, p := setup(t)
		customer := uuid.New()
		_, err := env.svc.ReserveProperty(env.ctx, p.ID, ReservePropertyRequest{CustomerID: customer.String()})
		require.NoError(t, err)

		sale, err := env.svc.RecordSale(env.ctx, RecordSaleRequest{PropertyID: p.ID})
		require.NoError(t, err)
		assert.Equal(t, customer, *sale.Property.CustomerID)
	})

	t.Run("blocked property cannot be sold", func(t *testing.T) {
		env, _, _, p := setup(t)
		_, err := env.svc.BlockProperty(env.ctx, p.ID, BlockPropertyRequest{Reason: "legal hold"})
		require.NoError(t, err)

		customer := uuid.New()
		_, err = env.svc.RecordSale(env.ctx, RecordSaleRequest{PropertyID: p.ID, CustomerID: &customer})
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.CodeOf(err))
	})

	t.Run("unknown property is NOT_FOUND", func(t *testing.T) {
		env, _, _, _ := setup(t)
		customer := uuid.New()

		_, err := env.svc.RecordSale(env.ctx, RecordSaleRequest{PropertyID: uuid.New(), CustomerID: &customer})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestInventoryService_RecordSale_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f := env.createFloor(t, b.ID, 1, 5)
	p := env.createProperty(t, f.ID, "101")

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		codes     []string
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			customer := uuid.New()
			_, err := env.svc.RecordSale(env.ctx, RecordSaleRequest{PropertyID: p.ID, CustomerID: &customer})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			codes = append(codes, shared.CodeOf(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, c := range codes {
		assert.Contains(t, []string{shared.CodeInvalidStateTransition, shared.CodeConcurrencyConflict}, c)
	}

	floor, err := env.svc.GetFloorUnit(env.ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, floor.AvailableSubUnits)

	building, err := env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, building.SoldUnits)
	assert.Equal(t, 4, building.AvailableUnits)
}

func TestInventoryService_ConcurrentSalesAcrossBuilding(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f := env.createFloor(t, b.ID, 1, 6)

	ids := make([]uuid.UUID, 6)
	for i := range ids {
		ids[i] = env.createProperty(t, f.ID, fmt.Sprintf("1%02d", i+1)).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			customer := uuid.New()
			_, err := env.svc.RecordSale(env.ctx, RecordSaleRequest{PropertyID: id, CustomerID: &customer})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	building, err := env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, building.TotalUnits)
	assert.Equal(t, 0, building.AvailableUnits)
	assert.Equal(t, 6, building.SoldUnits)
}

func TestInventoryService_ReverseSale(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f := env.createFloor(t, b.ID, 1, 3)
	p := env.createProperty(t, f.ID, "101")
	env.sell(t, p.ID)

	sale, err := env.svc.ReverseSale(env.ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, "available", sale.Property.Status)
	assert.Nil(t, sale.Property.CustomerID)
	assert.Nil(t, sale.Property.SoldAt)
	assert.Equal(t, 3, sale.FloorUnit.AvailableSubUnits)
	assert.Equal(t, 3, sale.Building.AvailableUnits)
	assert.Zero(t, sale.Building.SoldUnits)
	assert.Contains(t, env.publisher.types(), inventory.EventTypePropertySaleReversed)

	_, err = env.svc.ReverseSale(env.ctx, p.ID)
	assert.Equal(t, shared.CodeInvalidStateTransition, shared.CodeOf(err))
}

func TestInventoryService_SaleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f := env.createFloor(t, b.ID, 1, 10)
	p := env.createProperty(t, f.ID, "101")
	env.createProperty(t, f.ID, "102")
	env.sell(t, p.ID)
	second := env.createProperty(t, f.ID, "103")

	buildingBefore, err := env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	floorBefore, err := env.svc.GetFloorUnit(env.ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, buildingBefore.TotalUnits)
	assert.Equal(t, 9, buildingBefore.AvailableUnits)
	assert.Equal(t, 1, buildingBefore.SoldUnits)

	env.sell(t, second.ID)
	_, err = env.svc.ReverseSale(env.ctx, second.ID)
	require.NoError(t, err)

	buildingAfter, err := env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	floorAfter, err := env.svc.GetFloorUnit(env.ctx, f.ID)
	require.NoError(t, err)

	assert.Equal(t, buildingBefore.TotalUnits, buildingAfter.TotalUnits)
	assert.Equal(t, buildingBefore.AvailableUnits, buildingAfter.AvailableUnits)
	assert.Equal(t, buildingBefore.SoldUnits, buildingAfter.SoldUnits)
	assert.Equal(t, floorBefore.TotalSubUnits, floorAfter.TotalSubUnits)
	assert.Equal(t, floorBefore.AvailableSubUnits, floorAfter.AvailableSubUnits)
	assert.Equal(t, floorBefore.SoldSubUnits, floorAfter.SoldSubUnits)
}

func TestInventoryService_FloorUnitRollsUpIntoBuilding(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)

	f1 := env.createFloor(t, b.ID, 1, 10)
	got, err := env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalUnits)
	assert.Equal(t, 10, got.AvailableUnits)
	assert.Zero(t, got.SoldUnits)
	assert.Contains(t, env.publisher.types(), inventory.EventTypeBuildingReconciled)

	f2 := env.createFloor(t, b.ID, 2, 4)
	got, err = env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, got.TotalUnits)
	assert.Equal(t, 14, got.AvailableUnits)

	require.NoError(t, env.svc.DeleteFloorUnit(env.ctx, f2.ID))
	got, err = env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalUnits)
	assert.Equal(t, 10, got.AvailableUnits)

	result, err := env.svc.ReconcileBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, result.Drifted)

	t.Run("unknown building", func(t *testing.T) {
		_, err := env.svc.CreateFloorUnit(env.ctx, uuid.New(), CreateFloorUnitRequest{
			FloorNumber:   3,
			UnitType:      "3BHK",
			TotalSubUnits: 2,
			PriceMin:      "1",
			PriceMax:      "2",
		})
		assert.True(t, errors.Is(err, shared.ErrNotFound))

		floors, err := env.svc.ListFloorUnits(env.ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, floors, 1)
		assert.Equal(t, f1.ID, floors[0].ID)
	})
}

func TestInventoryService_AddSubUnits(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f := env.createFloor(t, b.ID, 1, 2)
	_, err := env.svc.ReconcileBuilding(env.ctx, b.ID)
	require.NoError(t, err)

	t.Run("grows the floor and leaves the building for reconciliation", func(t *testing.T) {
		grown, err := env.svc.AddSubUnits(env.ctx, f.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, grown.TotalSubUnits)
		assert.Equal(t, 5, grown.AvailableSubUnits)
		assert.Contains(t, env.publisher.types(), inventory.EventTypeSubUnitsAdded)

		building, err := env.svc.GetBuilding(env.ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, building.TotalUnits)

		occ, err := env.svc.ComputeOccupancy(env.ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, occ.TotalUnits)
	})

	t.Run("rejects non-positive count", func(t *testing.T) {
		_, err := env.svc.AddSubUnits(env.ctx, f.ID, 0)
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
	})
}

func TestSubUnitsAddedHandler(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f := env.createFloor(t, b.ID, 1, 2)

	handler := NewSubUnitsAddedHandler(env.svc, zap.NewNop())
	assert.Equal(t, []string{inventory.EventTypeSubUnitsAdded}, handler.EventTypes())

	// Route published events through the handler the way the event bus does
	env.svc.SetEventPublisher(publisherFunc(func(ctx context.Context, events ...shared.DomainEvent) error {
		for _, e := range events {
			if e.EventType() == inventory.EventTypeSubUnitsAdded {
				require.NoError(t, handler.Handle(ctx, e))
			}
		}
		return nil
	}))

	_, err := env.svc.AddSubUnits(env.ctx, f.ID, 4)
	require.NoError(t, err)

	building, err := env.svc.GetBuilding(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, building.TotalUnits)
	assert.Equal(t, 6, building.AvailableUnits)

	other := inventory.NewPropertySoldEvent(&inventory.Property{}, testNow)
	assert.Error(t, handler.Handle(env.ctx, other))
}

type publisherFunc func(ctx context.Context, events ...shared.DomainEvent) error

func (f publisherFunc) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return f(ctx, events...)
}

func TestInventoryService_CreateProperty(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f := env.createFloor(t, b.ID, 1, 1)

	t.Run("inherits the building from its floor", func(t *testing.T) {
		agent := uuid.New()
		p, err := env.svc.CreateProperty(env.ctx, f.ID, CreatePropertyRequest{
			UnitNumber:   "101",
			Status:       "under-construction",
			TotalAmount:  "3500000",
			AgentID:      agent.String(),
			DeliveryDate: "2027-01-15",
			EMIEnabled:   true,
		})
		require.NoError(t, err)
		assert.Equal(t, b.ID, p.BuildingID)
		assert.Equal(t, "under-construction", p.Status)
		assert.Equal(t, "3500000.00 INR", p.BalanceAmount.String())
		assert.Equal(t, agent, *p.AgentID)
		assert.True(t, p.EMIEnabled)
	})

	t.Run("cannot exceed the floor's sub-unit count", func(t *testing.T) {
		_, err := env.svc.CreateProperty(env.ctx, f.ID, CreatePropertyRequest{UnitNumber: "102", TotalAmount: "1"})
		assert.Equal(t, shared.CodeInventoryExhausted, shared.CodeOf(err))
	})

	t.Run("cannot start as sold", func(t *testing.T) {
		f2 := env.createFloor(t, b.ID, 2, 1)
		_, err := env.svc.CreateProperty(env.ctx, f2.ID, CreatePropertyRequest{UnitNumber: "201", Status: "sold", TotalAmount: "1"})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
	})

	t.Run("unknown floor is NOT_FOUND", func(t *testing.T) {
		_, err := env.svc.CreateProperty(env.ctx, uuid.New(), CreatePropertyRequest{UnitNumber: "1", TotalAmount: "1"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestInventoryService_PropertyLifecycle(t *testing.T) {
	env := newTestEnv(t)
	b := env.createBuilding(t)
	f := env.createFloor(t, b.ID, 1, 2)
	p := env.createProperty(t, f.ID, "101")

	t.Run("payments reduce the balance", func(t *testing.T) {
		got, err := env.svc.RecordPayment(env.ctx, p.ID, RecordPaymentRequest{Amount: "500000"})
		require.NoError(t, err)
		assert.Equal(t, "4000000.00 INR", got.BalanceAmount.String())
		assert.Equal(t, "500000.00 INR", got.AmountReceived.String())

		_, err = env.svc.RecordPayment(env.ctx, p.ID, RecordPaymentRequest{Amount: "9999999"})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
	})

	t.Run("repricing below received is rejected", func(t *testing.T) {
		_, err := env.svc.UpdateProperty(env.ctx, p.ID, UpdatePropertyRequest{TotalAmount: "100"})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))

		yes := true
		got, err := env.svc.UpdateProperty(env.ctx, p.ID, UpdatePropertyRequest{TotalAmount: "5000000", MunicipalPermission: &yes})
		require.NoError(t, err)
		assert.Equal(t, "4500000.00 INR", got.BalanceAmount.String())
		assert.True(t, got.MunicipalPermission)
		assert.False(t, got.EMIEnabled)
	})

	t.Run("assign then clear", func(t *testing.T) {
		agent, contractor := uuid.New(), uuid.New()
		got, err := env.svc.AssignProperty(env.ctx, p.ID, AssignPropertyRequest{AgentID: agent.String(), ContractorID: contractor.String()})
		require.NoError(t, err)
		assert.Equal(t, agent, *got.AgentID)
		assert.Equal(t, contractor, *got.ContractorID)

		got, err = env.svc.AssignProperty(env.ctx, p.ID, AssignPropertyRequest{})
		require.NoError(t, err)
		assert.Nil(t, got.AgentID)
		assert.Nil(t, got.ContractorID)
	})

	t.Run("block and release", func(t *testing.T) {
		got, err := env.svc.BlockProperty(env.ctx, p.ID, BlockPropertyRequest{Reason: "title dispute"})
		require.NoError(t, err)
		assert.Equal(t, "blocked", got.Status)
		assert.Equal(t, "title dispute", got.BlockReason)

		got, err = env.svc.ReleaseProperty(env.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "available", got.Status)
	})

	t.Run("complete construction only from under-construction", func(t *testing.T) {
		_, err := env.svc.CompleteConstruction(env.ctx, p.ID)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.CodeOf(err))
	})

	t.Run("list by floor and building", func(t *testing.T) {
		byFloor, err := env.svc.ListPropertiesByFloorUnit(env.ctx, f.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, byFloor, 1)

		byBuilding, err := env.svc.ListPropertiesByBuilding(env.ctx, b.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, byBuilding, 1)
	})
}

func TestInventoryService_Deletion(t *testing.T) {
	t.Run("sold property cannot be deleted", func(t *testing.T) {
		env := newTestEnv(t)
		b := env.createBuilding(t)
		f := env.createFloor(t, b.ID, 1, 2)
		p := env.createProperty(t, f.ID, "101")
		env.sell(t, p.ID)

		err := env.svc.DeleteProperty(env.ctx, p.ID)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.CodeOf(err))

		err = env.svc.DeleteFloorUnit(env.ctx, f.ID)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.CodeOf(err))
	})

	t.Run("floor without sales is deleted with its properties", func(t *testing.T) {
		env := newTestEnv(t)
		b := env.createBuilding(t)
		f := env.createFloor(t, b.ID, 1, 2)
		p := env.createProperty(t, f.ID, "101")

		require.NoError(t, env.svc.DeleteFloorUnit(env.ctx, f.ID))

		_, err := env.svc.GetFloorUnit(env.ctx, f.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		_, err = env.svc.GetProperty(env.ctx, p.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("building with floors cannot be deleted", func(t *testing.T) {
		env := newTestEnv(t)
		b := env.createBuilding(t)
		f := env.createFloor(t, b.ID, 1, 2)

		err := env.svc.DeleteBuilding(env.ctx, b.ID)
		assert.Equal(t, shared.CodeInvalidStateTransition, shared.CodeOf(err))

		require.NoError(t, env.svc.DeleteFloorUnit(env.ctx, f.ID))
		require.NoError(t, env.svc.DeleteBuilding(env.ctx, b.ID))

		_, err = env.svc.GetBuilding(env.ctx, b.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("unknown ids are NOT_FOUND", func(t *testing.T) {
		env := newTestEnv(t)
		assert.True(t, errors.Is(env.svc.DeleteBuilding(env.ctx, uuid.New()), shared.ErrNotFound))
		assert.True(t, errors.Is(env.svc.DeleteFloorUnit(env.ctx, uuid.New()), shared.ErrNotFound))
		assert.True(t, errors.Is(env.svc.DeleteProperty(env.ctx, uuid.New()), shared.ErrNotFound))
	})
}

func TestInventoryService_ReconcileAll(t *testing.T) {
	env := newTestEnv(t)
	b1 := env.createBuilding(t)
	f := env.createFloor(t, b1.ID, 1, 4)
	env.createBuilding(t)
	_, err := env.svc.AddSubUnits(env.ctx, f.ID, 2)
	require.NoError(t, err)

	summary, err := env.svc.ReconcileAll(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Drifted)
	assert.Zero(t, summary.Failed)

	building, err := env.svc.GetBuilding(env.ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, building.TotalUnits)

	summary, err = env.svc.ReconcileAll(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Drifted)
}
