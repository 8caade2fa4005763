package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/estateflow/backend/internal/domain/inventory"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// memStore keeps detached copies of every aggregate, like a database would.
// One mutex guards all three tables.
type memStore struct {
	mu         sync.Mutex
	buildings  map[uuid.UUID]inventory.Building
	floors     map[uuid.UUID]inventory.FloorUnit
	properties map[uuid.UUID]inventory.Property
}

func newMemStore() *memStore {
	return &memStore{
		buildings:  make(map[uuid.UUID]inventory.Building),
		floors:     make(map[uuid.UUID]inventory.FloorUnit),
		properties: make(map[uuid.UUID]inventory.Property),
	}
}

func notFound(what string) error {
	return shared.NewDomainError(shared.CodeNotFound, what+" not found")
}

func conflict() error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, "version mismatch")
}

type memBuildingRepo struct{ s *memStore }

func (r *memBuildingRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Building, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.buildings[id]
	if !ok {
		return nil, notFound("building")
	}
	return &b, nil
}

func (r *memBuildingRepo) FindAll(_ context.Context, filter shared.Filter) ([]inventory.Building, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]inventory.Building, 0, len(r.s.buildings))
	for _, b := range r.s.buildings {
		if matchBuilding(b, filter) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectName < out[j].ProjectName })
	return out, nil
}

func matchBuilding(b inventory.Building, filter shared.Filter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(b.ProjectName), strings.ToLower(filter.Search)) {
		return false
	}
	if c, ok := filter.Filters["category"]; ok && string(b.Category) != c {
		return false
	}
	if s, ok := filter.Filters["construction_status"]; ok && string(b.ConstructionStatus) != s {
		return false
	}
	return true
}

func (r *memBuildingRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.s.buildings))
	for id := range r.s.buildings {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memBuildingRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	all, err := r.FindAll(ctx, filter)
	return int64(len(all)), err
}

func (r *memBuildingRepo) Save(_ context.Context, b *inventory.Building) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *b
	c.ClearDomainEvents()
	r.s.buildings[b.ID] = c
	return nil
}

func (r *memBuildingRepo) SaveWithLock(_ context.Context, b *inventory.Building, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.buildings[b.ID]
	if !ok {
		return notFound("building")
	}
	if stored.Version != expectedVersion {
		return conflict()
	}
	c := *b
	c.ClearDomainEvents()
	r.s.buildings[b.ID] = c
	return nil
}

func (r *memBuildingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.buildings[id]; !ok {
		return notFound("building")
	}
	delete(r.s.buildings, id)
	return nil
}

type memFloorRepo struct{ s *memStore }

func (r *memFloorRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.FloorUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.floors[id]
	if !ok {
		return nil, notFound("floor unit")
	}
	return &f, nil
}

func (r *memFloorRepo) FindByBuilding(_ context.Context, buildingID uuid.UUID) ([]inventory.FloorUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]inventory.FloorUnit, 0)
	for _, f := range r.s.floors {
		if f.BuildingID == buildingID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FloorNumber < out[j].FloorNumber })
	return out, nil
}

func (r *memFloorRepo) CountByBuilding(ctx context.Context, buildingID uuid.UUID) (int64, error) {
	floors, err := r.FindByBuilding(ctx, buildingID)
	return int64(len(floors)), err
}

func (r *memFloorRepo) Save(_ context.Context, f *inventory.FloorUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *f
	c.ClearDomainEvents()
	r.s.floors[f.ID] = c
	return nil
}

func (r *memFloorRepo) SaveWithLock(_ context.Context, f *inventory.FloorUnit, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.floors[f.ID]
	if !ok {
		return notFound("floor unit")
	}
	if stored.Version != expectedVersion {
		return conflict()
	}
	c := *f
	c.ClearDomainEvents()
	r.s.floors[f.ID] = c
	return nil
}

func (r *memFloorRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.floors, id)
	return nil
}

type memPropertyRepo struct{ s *memStore }

func (r *memPropertyRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return nil, notFound("property")
	}
	return &p, nil
}

func (r *memPropertyRepo) find(match func(p inventory.Property) bool, filter shared.Filter) []inventory.Property {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]inventory.Property, 0)
	for _, p := range r.s.properties {
		if !match(p) {
			continue
		}
		if st, ok := filter.Filters["status"]; ok && string(p.Status) != st {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitNumber < out[j].UnitNumber })
	return out
}

func (r *memPropertyRepo) FindByFloorUnit(_ context.Context, floorUnitID uuid.UUID, filter shared.Filter) ([]inventory.Property, error) {
	return r.find(func(p inventory.Property) bool { return p.FloorUnitID == floorUnitID }, filter), nil
}

func (r *memPropertyRepo) FindByBuilding(_ context.Context, buildingID uuid.UUID, filter shared.Filter) ([]inventory.Property, error) {
	return r.find(func(p inventory.Property) bool { return p.BuildingID == buildingID }, filter), nil
}

func (r *memPropertyRepo) CountByFloorUnit(ctx context.Context, floorUnitID uuid.UUID) (int64, error) {
	items, err := r.FindByFloorUnit(ctx, floorUnitID, shared.Filter{})
	return int64(len(items)), err
}

func (r *memPropertyRepo) Save(_ context.Context, p *inventory.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *p
	c.ClearDomainEvents()
	r.s.properties[p.ID] = c
	return nil
}

func (r *memPropertyRepo) SaveWithLock(_ context.Context, p *inventory.Property, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.properties[p.ID]
	if !ok {
		return notFound("property")
	}
	if stored.Version != expectedVersion {
		return conflict()
	}
	c := *p
	c.ClearDomainEvents()
	r.s.properties[p.ID] = c
	return nil
}

func (r *memPropertyRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.properties[id]; !ok {
		return notFound("property")
	}
	delete(r.s.properties, id)
	return nil
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
