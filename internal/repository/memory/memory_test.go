package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository()
	base := time.Date(2017, 9, 10, 8, 0, 0, 0, time.UTC)

	later := &domain.Reservation{ID: "b", Kind: domain.KindLodging, Name: "Hotel", Start: base.Add(6 * time.Hour)}
	earlier := &domain.Reservation{ID: "a", Kind: domain.KindTrain, Start: base, DocumentIDs: []string{"d1"}}
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, earlier))
	assert.False(t, later.CreatedAt.IsZero())

	err := repo.Create(ctx, &domain.Reservation{ID: "a"})
	assert.True(t, domain.IsConflict(err))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	// returned values are copies
	list[0].DocumentIDs[0] = "changed"
	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, got.DocumentIDs)

	got.Name = "ICE 1"
	require.NoError(t, repo.Update(ctx, got))
	got, _ = repo.GetByID(ctx, "a")
	assert.Equal(t, "ICE 1", got.Name)

	byIDs, err := repo.ListByIDs(ctx, []string{"b", "missing", "a"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
	assert.Equal(t, "a", byIDs[0].ID)

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.GetByID(ctx, "a")
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(repo.Delete(ctx, "a")))
	assert.True(t, domain.IsNotFound(repo.Update(ctx, &domain.Reservation{ID: "a"})))
}

func TestTripGroupRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTripGroupRepository()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &domain.TripGroup{ID: "g2", Name: "Later", Elements: []string{"r3"}, Begin: base.AddDate(0, 1, 0)}))
	require.NoError(t, repo.Create(ctx, &domain.TripGroup{ID: "g1", Name: "Sooner", Elements: []string{"r1", "r2"}, Begin: base}))
	require.NoError(t, repo.Create(ctx, &domain.TripGroup{ID: "g0", Name: "Empty"}))

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"g1", "g2", "g0"}, []string{groups[0].ID, groups[1].ID, groups[2].ID})

	g, err := repo.FindByReservation(ctx, "r2")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "g1", g.ID)

	g, err = repo.FindByReservation(ctx, "r9")
	assert.NoError(t, err)
	assert.Nil(t, g)

	require.NoError(t, repo.Delete(ctx, "g1"))
	_, err = repo.GetByID(ctx, "g1")
	assert.True(t, domain.IsNotFound(err))
}

func TestPassAndDocumentRepositories(t *testing.T) {
	ctx := context.Background()

	passes := NewPassRepository()
	require.NoError(t, passes.Create(ctx, &domain.Pass{ID: "p2", Name: "BahnCard"}))
	require.NoError(t, passes.Create(ctx, &domain.Pass{ID: "p1", Name: "ADAC"}))
	list, err := passes.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", list[0].ID)
	assert.True(t, domain.IsNotFound(passes.Delete(ctx, "p3")))

	docs := NewDocumentRepository()
	require.NoError(t, docs.Create(ctx, &domain.Document{ID: "d1", OwnerID: "r1"}))
	require.NoError(t, docs.Create(ctx, &domain.Document{ID: "d2", OwnerID: "r2"}))
	owned, err := docs.ListByOwner(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "d1", owned[0].ID)
}

func TestDeletionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDeletionRepository()
	now := time.Now()

	stale := &domain.DeletionRequest{Token: "t1", Kind: domain.EntityPass, EntityID: "p1", ExpiresAt: now.Add(-time.Minute)}
	fresh := &domain.DeletionRequest{Token: "t2", Kind: domain.EntityPass, EntityID: "p2", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))
	assert.Equal(t, domain.DeletionPending, stale.State)

	expired, err := repo.ExpirePendingBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "t1", expired[0].Token)
	assert.Equal(t, domain.DeletionExpired, expired[0].State)

	updated, err := repo.UpdateState(ctx, "t2", domain.DeletionCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.DeletionCancelled, updated.State)

	_, err = repo.UpdateState(ctx, "missing", domain.DeletionCancelled)
	assert.True(t, domain.IsNotFound(err))
}
