// Package memory keeps every repository in process memory. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/repository"
)

type Store struct {
	Reservations *ReservationRepository
	TripGroups   *TripGroupRepository
	Passes       *PassRepository
	Documents    *DocumentRepository
	Deletions    *DeletionRepository
}

func NewStore() *Store {
	return &Store{
		Reservations: NewReservationRepository(),
		TripGroups:   NewTripGroupRepository(),
		Passes:       NewPassRepository(),
		Documents:    NewDocumentRepository(),
		Deletions:    NewDeletionRepository(),
	}
}

type ReservationRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[string]domain.Reservation)}
}

func (r *ReservationRepository) Create(_ context.Context, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[res.ID]; ok {
		return domain.ConflictError{Resource: "reservation", Msg: "id " + res.ID + " already exists"}
	}
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	r.items[res.ID] = cloneReservation(*res)
	return nil
}

func (r *ReservationRepository) Update(_ context.Context, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[res.ID]
	if !ok {
		return domain.NotFoundError{Resource: "reservation", ID: res.ID}
	}
	res.CreatedAt = current.CreatedAt
	res.UpdatedAt = time.Now().UTC()
	r.items[res.ID] = cloneReservation(*res)
	return nil
}

func (r *ReservationRepository) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.items[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "reservation", ID: id}
	}
	out := cloneReservation(res)
	return &out, nil
}

func (r *ReservationRepository) List(_ context.Context) ([]domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Reservation, 0, len(r.items))
	for _, res := range r.items {
		out = append(out, cloneReservation(res))
	}
	domain.SortReservations(out)
	return out, nil
}

func (r *ReservationRepository) ListByIDs(_ context.Context, ids []string) ([]domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Reservation, 0, len(ids))
	for _, id := range ids {
		if res, ok := r.items[id]; ok {
			out = append(out, cloneReservation(res))
		}
	}
	domain.SortReservations(out)
	return out, nil
}

func (r *ReservationRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.NotFoundError{Resource: "reservation", ID: id}
	}
	delete(r.items, id)
	return nil
}

func cloneReservation(res domain.Reservation) domain.Reservation {
	res.DocumentIDs = append([]string(nil), res.DocumentIDs...)
	return res
}

type TripGroupRepository struct {
	mu    sync.RWMutex
	items map[string]domain.TripGroup
}

func NewTripGroupRepository() *TripGroupRepository {
	return &TripGroupRepository{items: make(map[string]domain.TripGroup)}
}

func (r *TripGroupRepository) Create(_ context.Context, g *domain.TripGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[g.ID]; ok {
		return domain.ConflictError{Resource: "trip group", Msg: "id " + g.ID + " already exists"}
	}
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	r.items[g.ID] = cloneGroup(*g)
	return nil
}

func (r *TripGroupRepository) Update(_ context.Context, g *domain.TripGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[g.ID]
	if !ok {
		return domain.NotFoundError{Resource: "trip group", ID: g.ID}
	}
	g.CreatedAt = current.CreatedAt
	g.UpdatedAt = time.Now().UTC()
	r.items[g.ID] = cloneGroup(*g)
	return nil
}

func (r *TripGroupRepository) GetByID(_ context.Context, id string) (*domain.TripGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.items[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "trip group", ID: id}
	}
	out := cloneGroup(g)
	return &out, nil
}

func (r *TripGroupRepository) FindByReservation(_ context.Context, reservationID string) (*domain.TripGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.items {
		if g.Contains(reservationID) {
			out := cloneGroup(g)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *TripGroupRepository) List(_ context.Context) ([]domain.TripGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TripGroup, 0, len(r.items))
	for _, g := range r.items {
		out = append(out, cloneGroup(g))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Begin.IsZero() != out[j].Begin.IsZero() {
			return !out[i].Begin.IsZero()
		}
		if !out[i].Begin.Equal(out[j].Begin) {
			return out[i].Begin.Before(out[j].Begin)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *TripGroupRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.NotFoundError{Resource: "trip group", ID: id}
	}
	delete(r.items, id)
	return nil
}

func cloneGroup(g domain.TripGroup) domain.TripGroup {
	g.Elements = append([]string(nil), g.Elements...)
	return g
}

type PassRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Pass
}

func NewPassRepository() *PassRepository {
	return &PassRepository{items: make(map[string]domain.Pass)}
}

func (r *PassRepository) Create(_ context.Context, p *domain.Pass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[p.ID]; ok {
		return domain.ConflictError{Resource: "pass", Msg: "id " + p.ID + " already exists"}
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.items[p.ID] = *p
	return nil
}

func (r *PassRepository) Update(_ context.Context, p *domain.Pass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[p.ID]
	if !ok {
		return domain.NotFoundError{Resource: "pass", ID: p.ID}
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.items[p.ID] = *p
	return nil
}

func (r *PassRepository) GetByID(_ context.Context, id string) (*domain.Pass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "pass", ID: id}
	}
	return &p, nil
}

func (r *PassRepository) List(_ context.Context) ([]domain.Pass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Pass, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PassRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.NotFoundError{Resource: "pass", ID: id}
	}
	delete(r.items, id)
	return nil
}

type DocumentRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Document
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{items: make(map[string]domain.Document)}
}

func (r *DocumentRepository) Create(_ context.Context, d *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[d.ID]; ok {
		return domain.ConflictError{Resource: "document", Msg: "id " + d.ID + " already exists"}
	}
	d.CreatedAt = time.Now().UTC()
	r.items[d.ID] = *d
	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.items[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "document", ID: id}
	}
	return &d, nil
}

func (r *DocumentRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Document
	for _, d := range r.items {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *DocumentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.NotFoundError{Resource: "document", ID: id}
	}
	delete(r.items, id)
	return nil
}

type DeletionRepository struct {
	mu    sync.RWMutex
	items map[string]domain.DeletionRequest
}

func NewDeletionRepository() *DeletionRepository {
	return &DeletionRepository{items: make(map[string]domain.DeletionRequest)}
}

func (r *DeletionRepository) Create(_ context.Context, req *domain.DeletionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[req.Token]; ok {
		return domain.ConflictError{Resource: "deletion request", Msg: "token already used"}
	}
	now := time.Now().UTC()
	req.State = domain.DeletionPending
	req.CreatedAt, req.UpdatedAt = now, now
	r.items[req.Token] = *req
	return nil
}

func (r *DeletionRepository) GetByToken(_ context.Context, token string) (*domain.DeletionRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.items[token]
	if !ok {
		return nil, domain.NotFoundError{Resource: "deletion request", ID: token}
	}
	return &req, nil
}

func (r *DeletionRepository) UpdateState(_ context.Context, token string, state domain.DeletionState) (*domain.DeletionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[token]
	if !ok {
		return nil, domain.NotFoundError{Resource: "deletion request", ID: token}
	}
	req.State = state
	req.UpdatedAt = time.Now().UTC()
	r.items[token] = req
	return &req, nil
}

func (r *DeletionRepository) ExpirePendingBefore(_ context.Context, deadline time.Time) ([]domain.DeletionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []domain.DeletionRequest
	for token, req := range r.items {
		if req.State != domain.DeletionPending || req.ExpiresAt.After(deadline) {
			continue
		}
		req.State = domain.DeletionExpired
		req.UpdatedAt = time.Now().UTC()
		r.items[token] = req
		expired = append(expired, req)
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].Token < expired[j].Token })
	return expired, nil
}

var (
	_ repository.ReservationRepository = (*ReservationRepository)(nil)
	_ repository.TripGroupRepository   = (*TripGroupRepository)(nil)
	_ repository.PassRepository        = (*PassRepository)(nil)
	_ repository.DocumentRepository    = (*DocumentRepository)(nil)
	_ repository.DeletionRepository    = (*DeletionRepository)(nil)
)
