package passes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/events"
	"github.com/Domenick1991/itinerary/internal/form"
	"github.com/Domenick1991/itinerary/internal/kafka"
	"github.com/Domenick1991/itinerary/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type PassUseCase interface {
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (*domain.Pass, error)
	Import(ctx context.Context, p domain.Pass) (*domain.Pass, bool, error)
	Create(ctx context.Context, input Input) (*domain.Pass, error)
	Update(ctx context.Context, id string, input Input) (*domain.Pass, error)
	FindMatching(ctx context.Context, query string) (*domain.Pass, error)
	DeletePass(ctx context.Context, req *domain.DeletionRequest) error
}

// DocumentRemover drops the documents attached to a pass.
type DocumentRemover interface {
	RemoveOwned(ctx context.Context, ownerID string) error
}

// Input carries pass fields. Nil fields are left unchanged by Update.
type Input struct {
	Type         domain.PassType `json:"type,omitempty"`
	Name         *string         `json:"name,omitempty"`
	MemberName   *string         `json:"member_name,omitempty"`
	MemberNumber *string         `json:"member_number,omitempty"`
	ValidFrom    *string         `json:"valid_from,omitempty"`
	ValidUntil   *string         `json:"valid_until,omitempty"`
}

// Entry is a pass with its list section.
type Entry struct {
	domain.Pass
	Section domain.PassSection `json:"section"`
}

type PassService struct {
	passes    repository.PassRepository
	documents DocumentRemover
	forms     *form.Validator
	events    *events.Publisher
	logger    logrus.FieldLogger
	now       func() time.Time
	mu        sync.Mutex
}

type PassServiceOption func(*PassService)

func WithPublisher(p *events.Publisher) PassServiceOption {
	return func(s *PassService) {
		s.events = p
	}
}

func NewPassService(passes repository.PassRepository, docs DocumentRemover, logger logrus.FieldLogger, opts ...PassServiceOption) *PassService {
	s := &PassService{
		passes:    passes,
		documents: docs,
		forms:     form.New(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List orders valid passes before expired ones, then by name.
func (s *PassService) List(ctx context.Context) ([]Entry, error) {
	list, err := s.passes.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	domain.SortPasses(list, now)

	out := make([]Entry, 0, len(list))
	for _, p := range list {
		out = append(out, Entry{Pass: p, Section: p.Section(now)})
	}
	return out, nil
}

func (s *PassService) Get(ctx context.Context, id string) (*domain.Pass, error) {
	return s.passes.GetByID(ctx, id)
}

// Import merges p into a stored pass with the same id or membership number, or stores it as new.
func (s *PassService) Import(ctx context.Context, p domain.Pass) (*domain.Pass, bool, error) {
	if err := validateWindow(p.ValidFrom, p.ValidUntil); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.passes.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range existing {
		current := existing[i]
		if !current.IsSame(p) {
			continue
		}
		merge(&current, p)
		if err := s.passes.Update(ctx, &current); err != nil {
			return nil, false, err
		}
		s.events.Publish(ctx, kafka.PassChanged, domain.EntityPass, current.ID, current.Name)
		return &current, false, nil
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Type == "" {
		p.Type = domain.PassProgramMembership
	}
	if err := s.passes.Create(ctx, &p); err != nil {
		return nil, false, err
	}
	s.events.Publish(ctx, kafka.PassChanged, domain.EntityPass, p.ID, p.Name)
	return &p, true, nil
}

func (s *PassService) Create(ctx context.Context, input Input) (*domain.Pass, error) {
	if err := s.forms.Require("pass", input.values(nil)); err != nil {
		return nil, err
	}

	p := domain.Pass{ID: uuid.NewString(), Type: input.Type}
	if p.Type == "" {
		p.Type = domain.PassProgramMembership
	}
	if err := apply(&p, input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.passes.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"pass": p.ID, "name": p.Name}).Info("pass created")
	s.events.Publish(ctx, kafka.PassChanged, domain.EntityPass, p.ID, p.Name)
	return &p, nil
}

func (s *PassService) Update(ctx context.Context, id string, input Input) (*domain.Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.passes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.forms.Require("pass", input.values(p)); err != nil {
		return nil, err
	}
	if err := apply(p, input); err != nil {
		return nil, err
	}
	if err := s.passes.Update(ctx, p); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, kafka.PassChanged, domain.EntityPass, p.ID, p.Name)
	return p, nil
}

// FindMatching prefers an exact membership number match, then a unique name match among passes still valid.
func (s *PassService) FindMatching(ctx context.Context, query string) (*domain.Pass, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ValidationError{Field: "query", Msg: "required"}
	}
	list, err := s.passes.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].MemberNumber != "" && list[i].MemberNumber == query {
			return &list[i], nil
		}
	}

	now := s.now()
	needle := strings.ToLower(query)
	var match *domain.Pass
	for i := range list {
		if list[i].IsExpired(now) || !strings.Contains(strings.ToLower(list[i].Name), needle) {
			continue
		}
		if match != nil {
			// ambiguous
			return nil, domain.NotFoundError{Resource: "pass", ID: query}
		}
		match = &list[i]
	}
	if match == nil {
		return nil, domain.NotFoundError{Resource: "pass", ID: query}
	}
	return match, nil
}

// Exists and Delete make the service the deleter of passes.
func (s *PassService) Exists(ctx context.Context, id string) error {
	_, err := s.passes.GetByID(ctx, id)
	return err
}

func (s *PassService) Delete(ctx context.Context, req *domain.DeletionRequest) error {
	return s.DeletePass(ctx, req)
}

func (s *PassService) DeletePass(ctx context.Context, req *domain.DeletionRequest) error {
	if req == nil || !req.Authorizes(domain.EntityPass, req.EntityID) {
		return domain.ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.passes.GetByID(ctx, req.EntityID)
	if err != nil {
		return err
	}
	if s.documents != nil {
		if err := s.documents.RemoveOwned(ctx, p.ID); err != nil {
			return err
		}
	}
	if err := s.passes.Delete(ctx, p.ID); err != nil {
		return err
	}
	s.logger.WithField("pass", p.ID).Info("pass removed")
	s.events.Publish(ctx, kafka.PassRemoved, domain.EntityPass, p.ID, p.Name)
	return nil
}

// DiscardImported drops passes that an import created when the rest of that import failed.
// They carry no documents yet.
func (s *PassService) DiscardImported(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if err := s.passes.Delete(ctx, id); err != nil && !domain.IsNotFound(err) {
			return err
		}
		s.logger.WithField("pass", id).Info("imported pass rolled back")
		s.events.Publish(ctx, kafka.PassRemoved, domain.EntityPass, id, "")
	}
	return nil
}

// values is the form view of the pass after input is applied on top of current.
func (in Input) values(current *domain.Pass) map[string]string {
	v := map[string]string{}
	if current != nil {
		v["name"] = current.Name
		v["member_name"] = current.MemberName
		v["member_number"] = current.MemberNumber
		if current.ValidFrom != nil {
			v["valid_from"] = current.ValidFrom.Format(form.DateTimeLayout)
		}
		if current.ValidUntil != nil {
			v["valid_until"] = current.ValidUntil.Format(form.DateTimeLayout)
		}
	}
	set := func(key string, value *string) {
		if value != nil {
			v[key] = *value
		}
	}
	set("name", in.Name)
	set("member_name", in.MemberName)
	set("member_number", in.MemberNumber)
	set("valid_from", in.ValidFrom)
	set("valid_until", in.ValidUntil)
	return v
}

func apply(p *domain.Pass, in Input) error {
	if in.Type != "" {
		if !in.Type.Valid() {
			return domain.ValidationError{Field: "type", Msg: fmt.Sprintf("unknown pass type %q", in.Type)}
		}
		p.Type = in.Type
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.MemberName != nil {
		p.MemberName = strings.TrimSpace(*in.MemberName)
	}
	if in.MemberNumber != nil {
		p.MemberNumber = strings.TrimSpace(*in.MemberNumber)
	}
	var err error
	if in.ValidFrom != nil {
		if p.ValidFrom, err = parseOptional(*in.ValidFrom); err != nil {
			return domain.ValidationError{Field: "valid_from", Msg: "invalid", Err: err}
		}
	}
	if in.ValidUntil != nil {
		if p.ValidUntil, err = parseOptional(*in.ValidUntil); err != nil {
			return domain.ValidationError{Field: "valid_until", Msg: "invalid", Err: err}
		}
	}
	return validateWindow(p.ValidFrom, p.ValidUntil)
}

func merge(dst *domain.Pass, src domain.Pass) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.MemberName != "" {
		dst.MemberName = src.MemberName
	}
	if src.MemberNumber != "" {
		dst.MemberNumber = src.MemberNumber
	}
	if src.ValidFrom != nil {
		dst.ValidFrom = src.ValidFrom
	}
	if src.ValidUntil != nil {
		dst.ValidUntil = src.ValidUntil
	}
}

func parseOptional(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(form.DateTimeLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func validateWindow(from, until *time.Time) error {
	if from != nil && until != nil && until.Before(*from) {
		return domain.ValidationError{Field: "valid_until", Msg: "before valid_from"}
	}
	return nil
}

var _ PassUseCase = (*PassService)(nil)
