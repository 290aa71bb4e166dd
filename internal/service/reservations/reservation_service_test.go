package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/events"
	"github.com/Domenick1991/itinerary/internal/kafka"
	"github.com/Domenick1991/itinerary/internal/repository/memory"
	"github.com/Domenick1991/itinerary/internal/service/documents"
	"github.com/Domenick1991/itinerary/internal/storage"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pdf = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

type MockGroupTracker struct {
	mock.Mock
}

func (m *MockGroupTracker) ReservationRemoved(ctx context.Context, reservationID string) error {
	args := m.Called(ctx, reservationID)
	return args.Error(0)
}

func (m *MockGroupTracker) ReservationChanged(ctx context.Context, reservationID string) error {
	args := m.Called(ctx, reservationID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func eventOfType(eventType kafka.EventType) interface{} {
	return mock.MatchedBy(func(e kafka.Event) bool { return e.Type == eventType })
}

type fixture struct {
	svc      *ReservationService
	store    *memory.Store
	docs     *documents.DocumentService
	producer *MockProducer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	docs := documents.NewDocumentService(store.Documents, blobs, 1<<20, logger)
	producer := &MockProducer{}
	publisher := events.NewPublisher(producer, "itinerary.events", logger)
	svc := NewReservationService(store.Reservations, store.TripGroups, docs, logger, WithPublisher(publisher))
	return fixture{svc: svc, store: store, docs: docs, producer: producer}
}

func flight(start time.Time) domain.Reservation {
	return domain.Reservation{
		Kind:              domain.KindFlight,
		TripNumber:        "LX 1612",
		ReservationNumber: "XXX007",
		UnderName:         "Volker Krause",
		Departure:         domain.Location{City: "Berlin", Code: "TXL"},
		Arrival:           domain.Location{City: "Zurich", Code: "ZRH"},
		Start:             start,
	}
}

func TestReservationService_Upsert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	start := time.Date(2017, 9, 10, 6, 45, 0, 0, time.UTC)

	f.producer.On("Publish", ctx, "itinerary.events", mock.Anything, eventOfType(kafka.ReservationAdded)).Return(nil).Once()
	f.producer.On("Publish", ctx, "itinerary.events", mock.Anything, eventOfType(kafka.ReservationUpdated)).Return(nil).Once()

	first, created, err := f.svc.Upsert(ctx, flight(start))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)

	again := flight(start)
	again.End = start.Add(90 * time.Minute)
	merged, created, err := f.svc.Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, again.End, merged.End)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	f.producer.AssertExpectations(t)
}

func TestReservationService_EditField(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2017, 9, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		kind    domain.ReservationKind
		field   string
		value   string
		wantErr bool
		check   func(t *testing.T, r *domain.Reservation)
	}{
		{
			name:  "rename event",
			kind:  domain.KindEvent,
			field: "name",
			value: " Akademy 2017 ",
			check: func(t *testing.T, r *domain.Reservation) { assert.Equal(t, "Akademy 2017", r.Name) },
		},
		{name: "event name required", kind: domain.KindEvent, field: "name", value: "", wantErr: true},
		{
			name:  "lodging name may be cleared",
			kind:  domain.KindLodging,
			field: "name",
			value: "",
			check: func(t *testing.T, r *domain.Reservation) { assert.Empty(t, r.Name) },
		},
		{name: "start required", kind: domain.KindEvent, field: "start", value: "", wantErr: true},
		{name: "lodging start required", kind: domain.KindLodging, field: "start", value: "", wantErr: true},
		{name: "bad start", kind: domain.KindEvent, field: "start", value: "tomorrow", wantErr: true},
		{name: "end before start", kind: domain.KindEvent, field: "end", value: "2017-09-09T09:00:00Z", wantErr: true},
		{
			name:  "set end",
			kind:  domain.KindEvent,
			field: "end",
			value: "2017-09-10T18:00:00Z",
			check: func(t *testing.T, r *domain.Reservation) {
				assert.Equal(t, time.Date(2017, 9, 10, 18, 0, 0, 0, time.UTC), r.End.UTC())
			},
		},
		{
			name:  "booking reference",
			kind:  domain.KindLodging,
			field: "reservation_number",
			value: "ABC123",
			check: func(t *testing.T, r *domain.Reservation) { assert.Equal(t, "ABC123", r.ReservationNumber) },
		},
		{name: "not editable", kind: domain.KindEvent, field: "trip_number", value: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
			r := domain.Reservation{ID: "r1", Kind: tt.kind, Name: "Original", Start: start}
			require.NoError(t, f.store.Reservations.Create(ctx, &r))

			got, err := f.svc.EditField(ctx, "r1", tt.field, tt.value)
			if tt.wantErr {
				assert.True(t, domain.IsValidation(err))
				stored, err := f.store.Reservations.GetByID(ctx, "r1")
				require.NoError(t, err)
				assert.Equal(t, "Original", stored.Name)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestReservationService_EditField_NotifiesTracker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tracker := &MockGroupTracker{}
	f.svc.SetGroupTracker(tracker)

	r := domain.Reservation{ID: "r1", Kind: domain.KindEvent, Name: "Akademy", Start: time.Date(2017, 9, 10, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, f.store.Reservations.Create(ctx, &r))

	// renaming does not move the reservation
	_, err := f.svc.EditField(ctx, "r1", "name", "Akademy 2017")
	require.NoError(t, err)
	tracker.AssertNotCalled(t, "ReservationChanged", mock.Anything, mock.Anything)

	tracker.On("ReservationChanged", ctx, "r1").Return(nil).Twice()
	_, err = f.svc.EditField(ctx, "r1", "start", "2017-09-12T09:00:00Z")
	require.NoError(t, err)
	_, err = f.svc.EditField(ctx, "r1", "end", "2017-09-12T18:00:00Z")
	require.NoError(t, err)

	// rejected edits leave the groups alone
	_, err = f.svc.EditField(ctx, "r1", "start", "")
	assert.True(t, domain.IsValidation(err))
	tracker.AssertExpectations(t)
}

func TestReservationService_Documents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	r := domain.Reservation{ID: "r1", Kind: domain.KindEvent, Name: "Akademy", Start: time.Now()}
	require.NoError(t, f.store.Reservations.Create(ctx, &r))

	list, err := f.svc.Documents(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, list.HasDocuments)
	assert.Empty(t, list.Documents)

	doc, err := f.svc.AddDocument(ctx, "r1", "ticket.pdf", pdf)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)

	_, err = f.svc.AddDocument(ctx, "r1", "notes.exe", []byte{0x4d, 0x5a, 0x90, 0x00, 0x03, 0x00, 0x00, 0x00})
	assert.True(t, domain.IsAttach(err))

	list, err = f.svc.Documents(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, list.HasDocuments)
	require.Len(t, list.Documents, 1)

	stored, err := f.store.Reservations.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{doc.ID}, stored.DocumentIDs)

	err = f.svc.DeleteDocument(ctx, &domain.DeletionRequest{Kind: domain.EntityDocument, EntityID: doc.ID, State: domain.DeletionPending})
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)

	remover := f.svc.DocumentRemover()
	require.NoError(t, remover.Exists(ctx, doc.ID))
	require.NoError(t, remover.Delete(ctx, &domain.DeletionRequest{Kind: domain.EntityDocument, EntityID: doc.ID, State: domain.DeletionCommitted}))

	stored, err = f.store.Reservations.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, stored.DocumentIDs)
	assert.True(t, domain.IsNotFound(remover.Exists(ctx, doc.ID)))

	_, err = f.svc.Documents(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestReservationService_DeleteReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tracker := &MockGroupTracker{}
	f.svc.SetGroupTracker(tracker)

	r := domain.Reservation{ID: "r1", Kind: domain.KindEvent, Name: "Akademy", Start: time.Now()}
	require.NoError(t, f.store.Reservations.Create(ctx, &r))
	_, err := f.svc.AddDocument(ctx, "r1", "ticket.pdf", pdf)
	require.NoError(t, err)

	err = f.svc.DeleteReservation(ctx, &domain.DeletionRequest{Kind: domain.EntityReservation, EntityID: "r1", State: domain.DeletionPending})
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)
	require.NoError(t, f.svc.Exists(ctx, "r1"))

	err = f.svc.DeleteReservation(ctx, &domain.DeletionRequest{Kind: domain.EntityTripGroup, EntityID: "r1", State: domain.DeletionCommitted})
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)

	tracker.On("ReservationRemoved", ctx, "r1").Return(nil).Once()
	err = f.svc.Delete(ctx, &domain.DeletionRequest{Kind: domain.EntityReservation, EntityID: "r1", State: domain.DeletionCommitted})
	require.NoError(t, err)
	tracker.AssertExpectations(t)

	assert.True(t, domain.IsNotFound(f.svc.Exists(ctx, "r1")))
	docs, err := f.docs.List(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, docs.HasDocuments)
}

func TestReservationService_ListByGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := time.Date(2017, 9, 10, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"b", "a"} {
		r := domain.Reservation{ID: id, Kind: domain.KindEvent, Name: id, Start: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, f.store.Reservations.Create(ctx, &r))
	}
	require.NoError(t, f.store.TripGroups.Create(ctx, &domain.TripGroup{ID: "g1", Name: "Randa", Elements: []string{"a", "b"}}))
	require.NoError(t, f.store.TripGroups.Create(ctx, &domain.TripGroup{ID: "g2", Name: "Empty"}))

	list, err := f.svc.ListByGroup(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)

	list, err = f.svc.ListByGroup(ctx, "g2")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.ListByGroup(ctx, "g3")
	assert.True(t, domain.IsNotFound(err))
}

func TestReservationService_RemoveAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	for _, id := range []string{"r1", "r2"} {
		r := domain.Reservation{ID: id, Kind: domain.KindEvent, Name: id, Start: time.Now()}
		require.NoError(t, f.store.Reservations.Create(ctx, &r))
	}

	require.NoError(t, f.svc.RemoveAll(ctx, []string{"r1", "r2", "gone"}))
	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
