package api

import (
	"context"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/service/documents"
	"github.com/Domenick1991/itinerary/internal/service/imports"
	"github.com/Domenick1991/itinerary/internal/service/passes"
	"github.com/Domenick1991/itinerary/internal/service/trips"
	"github.com/Domenick1991/itinerary/internal/settings"
	"github.com/stretchr/testify/mock"
)

type MockDeletionUseCase struct {
	mock.Mock
}

func (m *MockDeletionUseCase) Request(ctx context.Context, kind domain.EntityKind, id string) (*domain.DeletionRequest, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeletionRequest), args.Error(1)
}

func (m *MockDeletionUseCase) Confirm(ctx context.Context, token string) (*domain.DeletionRequest, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeletionRequest), args.Error(1)
}

func (m *MockDeletionUseCase) Cancel(ctx context.Context, token string) (*domain.DeletionRequest, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeletionRequest), args.Error(1)
}

func (m *MockDeletionUseCase) ExpirePending(ctx context.Context) ([]domain.DeletionRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.DeletionRequest), args.Error(1)
}

type MockTripUseCase struct {
	mock.Mock
}

func (m *MockTripUseCase) List(ctx context.Context) ([]domain.TripGroup, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TripGroup), args.Error(1)
}

func (m *MockTripUseCase) Get(ctx context.Context, id string) (*domain.TripGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripGroup), args.Error(1)
}

func (m *MockTripUseCase) CreateGroup(ctx context.Context, name string) (*domain.TripGroup, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripGroup), args.Error(1)
}

func (m *MockTripUseCase) RenameGroup(ctx context.Context, id, name string) (*domain.TripGroup, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripGroup), args.Error(1)
}

func (m *MockTripUseCase) AddEvent(ctx context.Context, groupID string, input trips.EventInput) (*domain.Reservation, error) {
	args := m.Called(ctx, groupID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockTripUseCase) AssignToGroup(ctx context.Context, target, tripName string, reservationIDs []string) (*domain.TripGroup, error) {
	args := m.Called(ctx, target, tripName, reservationIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripGroup), args.Error(1)
}

func (m *MockTripUseCase) Rescan(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTripUseCase) ReservationRemoved(ctx context.Context, reservationID string) error {
	return m.Called(ctx, reservationID).Error(0)
}

func (m *MockTripUseCase) ReservationChanged(ctx context.Context, reservationID string) error {
	return m.Called(ctx, reservationID).Error(0)
}

func (m *MockTripUseCase) DeleteGroup(ctx context.Context, req *domain.DeletionRequest) error {
	return m.Called(ctx, req).Error(0)
}

type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) List(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) ListByGroup(ctx context.Context, groupID string) ([]domain.Reservation, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) EditField(ctx context.Context, id, field, value string) (*domain.Reservation, error) {
	args := m.Called(ctx, id, field, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) AddDocument(ctx context.Context, id, name string, data []byte) (*domain.Document, error) {
	args := m.Called(ctx, id, name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockReservationUseCase) Documents(ctx context.Context, id string) (documents.List, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(documents.List), args.Error(1)
}

func (m *MockReservationUseCase) Upsert(ctx context.Context, r domain.Reservation) (*domain.Reservation, bool, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.Reservation), args.Bool(1), args.Error(2)
}

func (m *MockReservationUseCase) DeleteReservation(ctx context.Context, req *domain.DeletionRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockReservationUseCase) DeleteDocument(ctx context.Context, req *domain.DeletionRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockReservationUseCase) RemoveAll(ctx context.Context, ids []string) error {
	return m.Called(ctx, ids).Error(0)
}

type MockPassUseCase struct {
	mock.Mock
}

func (m *MockPassUseCase) List(ctx context.Context) ([]passes.Entry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]passes.Entry), args.Error(1)
}

func (m *MockPassUseCase) Get(ctx context.Context, id string) (*domain.Pass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pass), args.Error(1)
}

func (m *MockPassUseCase) Import(ctx context.Context, p domain.Pass) (*domain.Pass, bool, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.Pass), args.Bool(1), args.Error(2)
}

func (m *MockPassUseCase) Create(ctx context.Context, input passes.Input) (*domain.Pass, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pass), args.Error(1)
}

func (m *MockPassUseCase) Update(ctx context.Context, id string, input passes.Input) (*domain.Pass, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pass), args.Error(1)
}

func (m *MockPassUseCase) FindMatching(ctx context.Context, query string) (*domain.Pass, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pass), args.Error(1)
}

func (m *MockPassUseCase) DeletePass(ctx context.Context, req *domain.DeletionRequest) error {
	return m.Called(ctx, req).Error(0)
}

// MockImportUseCase ignores stage options; they are functions and cannot be matched.
type MockImportUseCase struct {
	mock.Mock
}

func (m *MockImportUseCase) ImportFile(ctx context.Context, data []byte, fileName string, _ ...imports.StageOption) (*domain.ImportSession, error) {
	args := m.Called(ctx, data, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportSession), args.Error(1)
}

func (m *MockImportUseCase) ImportBarcode(ctx context.Context, payload string, _ ...imports.StageOption) (*domain.ImportSession, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportSession), args.Error(1)
}

func (m *MockImportUseCase) ImportOnline(ctx context.Context, vendorID, name, ref string, _ ...imports.StageOption) (*domain.ImportSession, error) {
	args := m.Called(ctx, vendorID, name, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportSession), args.Error(1)
}

func (m *MockImportUseCase) CanSearch(vendorID, name, ref string) bool {
	return m.Called(vendorID, name, ref).Bool(0)
}

func (m *MockImportUseCase) GetSession(ctx context.Context, id string) (*domain.ImportSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportSession), args.Error(1)
}

func (m *MockImportUseCase) SetSelected(ctx context.Context, sessionID, candidateID string, selected bool) (*domain.ImportSession, error) {
	args := m.Called(ctx, sessionID, candidateID, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportSession), args.Error(1)
}

func (m *MockImportUseCase) SelectAll(ctx context.Context, sessionID string, selected bool) (*domain.ImportSession, error) {
	args := m.Called(ctx, sessionID, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportSession), args.Error(1)
}

func (m *MockImportUseCase) Discard(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockImportUseCase) Commit(ctx context.Context, sessionID, target string) (*imports.CommitResult, error) {
	args := m.Called(ctx, sessionID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imports.CommitResult), args.Error(1)
}

func (m *MockImportUseCase) AutoCommit(ctx context.Context, session *domain.ImportSession) (*imports.CommitResult, bool, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*imports.CommitResult), args.Bool(1), args.Error(2)
}

type MockSettingsUseCase struct {
	mock.Mock
}

func (m *MockSettingsUseCase) Snapshot(ctx context.Context) (settings.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(settings.Snapshot), args.Error(1)
}

func (m *MockSettingsUseCase) Get(ctx context.Context, key settings.Key) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsUseCase) Set(ctx context.Context, key settings.Key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockSettingsUseCase) Toggle(ctx context.Context, key settings.Key) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type MockDocumentUseCase struct {
	mock.Mock
}

func (m *MockDocumentUseCase) Attach(ctx context.Context, ownerID, name string, data []byte) (*domain.Document, error) {
	args := m.Called(ctx, ownerID, name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) List(ctx context.Context, ownerID string) (documents.List, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(documents.List), args.Error(1)
}

func (m *MockDocumentUseCase) Get(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) Content(ctx context.Context, id string) (*domain.Document, []byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Document), args.Get(1).([]byte), args.Error(2)
}

func (m *MockDocumentUseCase) Remove(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDocumentUseCase) RemoveOwned(ctx context.Context, ownerID string) error {
	return m.Called(ctx, ownerID).Error(0)
}
