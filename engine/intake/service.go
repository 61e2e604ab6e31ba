package intake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devclub/formsheets/engine/form"
	"github.com/devclub/formsheets/engine/notify"
	"github.com/devclub/formsheets/pkg/format"
	"github.com/devclub/formsheets/pkg/logger"
)

var (
	ErrInvalidInput = errors.New("invalid form response")
	ErrStorage      = errors.New("failed to store submission")
)

// Store persists one output row.
type Store interface {
	AppendRow(ctx context.Context, cells []string) error
}

// NameNormalizer formats a personal name. It must return the input when it
// cannot do better.
type NameNormalizer interface {
	Normalize(ctx context.Context, raw string) string
}

// Notifier sends the welcome message.
type Notifier interface {
	SendWelcome(ctx context.Context, phone, name string) (*notify.Delivery, error)
}

// NotifyObserver is told how each notification attempt ended.
type NotifyObserver func(ctx context.Context, err error)

// Result is the public summary of a processed submission.
type Result struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Service runs the submission pipeline: extract, normalize, assemble,
// store and then notify in the background.
type Service struct {
	store      Store
	normalizer NameNormalizer
	notifier   Notifier
	labels     form.Labels
	now        func() time.Time
	onNotify   NotifyObserver

	wg sync.WaitGroup
}

type Option func(*Service)

func WithNormalizer(n NameNormalizer) Option {
	return func(s *Service) { s.normalizer = n }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLabels(l form.Labels) Option {
	return func(s *Service) { s.labels = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotifyObserver(o NotifyObserver) Option {
	return func(s *Service) { s.onNotify = o }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, labels: form.DefaultLabels(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute processes one form response. Only a nil response or a storage
// failure produce an error; notification problems are logged.
func (s *Service) Execute(ctx context.Context, resp *form.Response) (*Result, error) {
	if resp == nil {
		return nil, ErrInvalidInput
	}
	log := logger.FromContext(ctx).With("form_id", resp.FormID)
	sub := form.NewSubmission(resp, s.labels, s.now)
	sub.Extract()
	idx := sub.Index()
	log.Info("processing submission", "answers", len(sub.Answers), "fields", idx.Len(), "submitted_at", sub.SubmittedAt)
	for _, ref := range []string{form.RefName, form.RefEmail, form.RefPhone} {
		if !idx.Has(ref) {
			log.Warn("submission has no answer for field", "ref", ref)
		}
	}
	if doc := sub.Contact.DocumentID; doc != "" && !format.ValidateCPF(doc) {
		log.Warn("submission carries an invalid CPF")
	}
	if s.normalizer != nil {
		sub.ProcessedName = s.normalizer.Normalize(ctx, sub.Contact.Name)
	}
	row := form.Assemble(sub)
	if err := s.store.AppendRow(ctx, row.Cells()); err != nil {
		log.Error("failed to store submission", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	log.Info("submission stored")
	if sub.Contact.Phone != "" && s.notifier != nil {
		s.dispatch(ctx, sub.Contact.Phone, sub.DisplayName())
	}
	return &Result{
		Name:  sub.DisplayName(),
		Email: sub.Contact.Email,
		Phone: sub.Contact.Phone,
	}, nil
}

// dispatch sends the welcome message on its own goroutine, detached from
// the request's cancellation.
func (s *Service) dispatch(ctx context.Context, phone, name string) {
	nctx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log := logger.FromContext(nctx)
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic while sending welcome message", "panic", r)
			}
		}()
		_, err := s.notifier.SendWelcome(nctx, phone, name)
		if s.onNotify != nil {
			s.onNotify(nctx, err)
		}
		switch {
		case err == nil:
		case errors.Is(err, notify.ErrNotConfigured):
			log.Debug("whatsapp not configured, skipping welcome message")
		default:
			log.Warn("failed to send welcome message", "error", err)
		}
	}()
}

// Wait blocks until in-flight notifications finish or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
