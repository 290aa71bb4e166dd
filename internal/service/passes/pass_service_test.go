package passes

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/repository/memory"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentRemover struct {
	mock.Mock
}

func (m *MockDocumentRemover) RemoveOwned(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

var now = time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*PassService, *memory.PassRepository, *MockDocumentRemover) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	repo := memory.NewPassRepository()
	docs := &MockDocumentRemover{}
	svc := NewPassService(repo, docs, logger)
	svc.now = func() time.Time { return now }
	return svc, repo, docs
}

func TestPassService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   Input
		wantErr bool
	}{
		{
			name:  "name only",
			input: Input{Name: strPtr("BahnCard 50")},
		},
		{
			name:    "empty name",
			input:   Input{Name: strPtr("  ")},
			wantErr: true,
		},
		{
			name:    "missing name",
			input:   Input{MemberNumber: strPtr("7081411234567890")},
			wantErr: true,
		},
		{
			name: "window reversed",
			input: Input{
				Name:       strPtr("BahnCard 25"),
				ValidFrom:  strPtr("2018-05-01T00:00:00Z"),
				ValidUntil: strPtr("2018-04-01T00:00:00Z"),
			},
			wantErr: true,
		},
		{
			name:    "bad date",
			input:   Input{Name: strPtr("BahnCard 25"), ValidUntil: strPtr("next year")},
			wantErr: true,
		},
		{
			name:    "unknown type",
			input:   Input{Name: strPtr("Museum card"), Type: domain.PassType("flight")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			p, err := svc.Create(ctx, tt.input)
			if tt.wantErr {
				assert.True(t, domain.IsValidation(err))
				list, _ := repo.List(ctx)
				assert.Empty(t, list)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, p.ID)
			assert.Equal(t, domain.PassProgramMembership, p.Type)
		})
	}
}

func TestPassService_UpdateName(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	p, err := svc.Create(ctx, Input{
		Name:         strPtr("BahnCard 50"),
		MemberName:   strPtr("Volker Krause"),
		MemberNumber: strPtr("7081411234567890"),
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, Input{Name: strPtr("")})
	assert.True(t, domain.IsValidation(err))

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "BahnCard 50", stored.Name)

	updated, err := svc.Update(ctx, p.ID, Input{Name: strPtr("BahnCard 100")})
	require.NoError(t, err)
	assert.Equal(t, "BahnCard 100", updated.Name)
	assert.Equal(t, "Volker Krause", updated.MemberName)
	assert.Equal(t, "7081411234567890", updated.MemberNumber)
}

func TestPassService_Update_UnknownType(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	p, err := svc.Create(ctx, Input{Name: strPtr("BahnCard 50"), Type: domain.PassTicket})
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, Input{Type: domain.PassType("boarding")})
	assert.True(t, domain.IsValidation(err))

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PassTicket, stored.Type)
}

func TestPassService_Update_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), "missing", Input{Name: strPtr("x")})
	assert.True(t, domain.IsNotFound(err))
}

func TestPassService_Import(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	first, created, err := svc.Import(ctx, domain.Pass{Name: "BahnCard 25", MemberNumber: "123"})
	require.NoError(t, err)
	assert.True(t, created)

	merged, created, err := svc.Import(ctx, domain.Pass{
		Name:         "bahncard 25",
		MemberNumber: "123",
		MemberName:   "Jane Doe",
		ValidUntil:   timePtr(now.AddDate(1, 0, 0)),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, "Jane Doe", merged.MemberName)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, _, err = svc.Import(ctx, domain.Pass{Name: "X", ValidFrom: timePtr(now), ValidUntil: timePtr(now.Add(-time.Hour))})
	assert.True(t, domain.IsValidation(err))
}

func TestPassService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	require.NoError(t, repo.Create(ctx, &domain.Pass{ID: "a", Name: "Alpha", ValidUntil: timePtr(now.Add(-time.Hour))}))
	require.NoError(t, repo.Create(ctx, &domain.Pass{ID: "b", Name: "Beta"}))
	require.NoError(t, repo.Create(ctx, &domain.Pass{ID: "c", Name: "Gamma", ValidFrom: timePtr(now.Add(time.Hour))}))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, domain.PassSectionValid, list[0].Section)
	assert.Equal(t, domain.PassSectionFuture, list[1].Section)
	assert.Equal(t, "a", list[2].ID)
	assert.Equal(t, domain.PassSectionExpired, list[2].Section)
}

func TestPassService_FindMatching(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	require.NoError(t, repo.Create(ctx, &domain.Pass{ID: "bc", Name: "BahnCard 50", MemberNumber: "7081"}))
	require.NoError(t, repo.Create(ctx, &domain.Pass{ID: "bc-old", Name: "BahnCard 25", ValidUntil: timePtr(now.AddDate(-1, 0, 0))}))
	require.NoError(t, repo.Create(ctx, &domain.Pass{ID: "adac", Name: "ADAC Plus"}))
	require.NoError(t, repo.Create(ctx, &domain.Pass{ID: "adac2", Name: "ADAC Classic"}))

	tests := []struct {
		name   string
		query  string
		wantID string
	}{
		{name: "by number", query: "7081", wantID: "bc"},
		{name: "expired ignored", query: "bahncard", wantID: "bc"},
		{name: "case insensitive", query: "plus", wantID: "adac"},
		{name: "ambiguous", query: "adac"},
		{name: "no match", query: "miles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.FindMatching(ctx, tt.query)
			if tt.wantID == "" {
				assert.True(t, domain.IsNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}

	_, err := svc.FindMatching(ctx, " ")
	assert.True(t, domain.IsValidation(err))
}

func TestPassService_DeletePass(t *testing.T) {
	ctx := context.Background()
	svc, repo, docs := newTestService(t)
	require.NoError(t, repo.Create(ctx, &domain.Pass{ID: "p1", Name: "BahnCard"}))

	err := svc.DeletePass(ctx, &domain.DeletionRequest{Kind: domain.EntityPass, EntityID: "p1", State: domain.DeletionPending})
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)

	err = svc.DeletePass(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)

	docs.On("RemoveOwned", ctx, "p1").Return(nil).Once()
	err = svc.Delete(ctx, &domain.DeletionRequest{Kind: domain.EntityPass, EntityID: "p1", State: domain.DeletionCommitted})
	require.NoError(t, err)
	docs.AssertExpectations(t)

	assert.True(t, domain.IsNotFound(svc.Exists(ctx, "p1")))
}
