package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/events"
	"github.com/fieldops/fieldservice/internal/repository"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// Step names, also used as metric labels.
const (
	stepTickets         = "tickets"
	stepDocuments       = "documents"
	stepListModules     = "list_modules"
	stepModuleTickets   = "module_tickets"
	stepModuleDocuments = "module_documents"
	stepModule          = "module"
	stepClient          = "client"
	stepTransaction     = "transaction"
)

// CascadeRecorder counts failed cascade steps.
type CascadeRecorder interface {
	RecordCascadeFailure(entity, step string)
}

// CascadeService deletes clients and modules together with their dependents.
type CascadeService struct {
	tx         repository.Transactor
	store      repository.Store
	recorder   CascadeRecorder
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CascadeDependencies bundles collaborators for cascade deletion.
type CascadeDependencies struct {
	Transactor repository.Transactor
	// Store is used outside the unit of work for existence checks and
	// post-condition counts.
	Store      repository.Store
	Recorder   CascadeRecorder
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewCascadeService constructs the service.
func NewCascadeService(deps CascadeDependencies) *CascadeService {
	return &CascadeService{
		tx:         deps.Transactor,
		store:      deps.Store,
		recorder:   deps.Recorder,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

type cascadeRun struct {
	svc      *CascadeService
	entity   domain.CascadeEntity
	id       string
	failures []domain.CascadeStepFailure
}

func (r *cascadeRun) step(ctx context.Context, uow repository.UnitOfWork, name, target string, fn func(ctx context.Context) error) {
	if err := uow.Step(ctx, fn); err != nil {
		r.fail(name, target, err)
	}
}

func (r *cascadeRun) fail(name, target string, err error) {
	msg := err.Error()
	if target != "" {
		msg = fmt.Sprintf("%s: %s", target, msg)
	}
	r.failures = append(r.failures, domain.CascadeStepFailure{Step: name, Error: msg})
	r.svc.logger.Warn("cascade step failed",
		zap.String("entity", string(r.entity)),
		zap.String("id", r.id),
		zap.String("step", name),
		zap.String("target", target),
		zap.Error(err))
	if r.svc.recorder != nil {
		r.svc.recorder.RecordCascadeFailure(string(r.entity), name)
	}
}

// DeleteClient removes the client's tickets and documents, then every
// module of the client with its tickets and documents, then the client.
// A failed step does not stop the following ones.
func (s *CascadeService) DeleteClient(ctx context.Context, id string) (*domain.CascadeResult, error) {
	if _, err := s.store.Clients.GetByID(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("client", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	run := &cascadeRun{svc: s, entity: domain.CascadeEntityClient, id: id}
	var moduleIDs []string

	err := s.tx.InTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		store := uow.Store()
		run.step(ctx, uow, stepTickets, "", func(ctx context.Context) error {
			_, err := store.Tickets.DeleteByClient(ctx, id)
			return err
		})
		run.step(ctx, uow, stepDocuments, "", func(ctx context.Context) error {
			_, err := store.Documents.DeleteByClient(ctx, id)
			return err
		})

		var modules []domain.Module
		run.step(ctx, uow, stepListModules, "", func(ctx context.Context) error {
			var err error
			modules, err = store.Modules.List(ctx, repository.ModuleFilter{ClientID: &id})
			return err
		})
		for _, module := range modules {
			moduleIDs = append(moduleIDs, module.ID)
			s.deleteModuleSteps(ctx, uow, run, module.ID)
		}

		run.step(ctx, uow, stepClient, "", func(ctx context.Context) error {
			return store.Clients.Delete(ctx, id)
		})
		return nil
	})
	if err != nil {
		run.fail(stepTransaction, "", err)
	}

	remaining := map[string]int{}
	s.count(ctx, run, remaining, "tickets", func(ctx context.Context) (int, error) {
		n, err := s.store.Tickets.Count(ctx, repository.TicketFilter{ClientID: &id})
		if err != nil {
			return 0, err
		}
		for _, moduleID := range moduleIDs {
			moduleID := moduleID
			m, err := s.store.Tickets.Count(ctx, repository.TicketFilter{ModuleID: &moduleID})
			if err != nil {
				return 0, err
			}
			n += m
		}
		return n, nil
	})
	s.count(ctx, run, remaining, "documents", func(ctx context.Context) (int, error) {
		n, err := s.store.Documents.Count(ctx, repository.DocumentFilter{ClientID: &id})
		if err != nil {
			return 0, err
		}
		for _, moduleID := range moduleIDs {
			moduleID := moduleID
			m, err := s.store.Documents.Count(ctx, repository.DocumentFilter{ModuleID: &moduleID})
			if err != nil {
				return 0, err
			}
			n += m
		}
		return n, nil
	})
	s.count(ctx, run, remaining, "modules", func(ctx context.Context) (int, error) {
		return s.store.Modules.Count(ctx, repository.ModuleFilter{ClientID: &id})
	})
	s.count(ctx, run, remaining, "clients", func(ctx context.Context) (int, error) {
		_, err := s.store.Clients.GetByID(ctx, id)
		return presence(err)
	})

	return s.finish(ctx, run, remaining), nil
}

// DeleteModule removes the module's tickets and documents, then the module.
func (s *CascadeService) DeleteModule(ctx context.Context, id string) (*domain.CascadeResult, error) {
	if _, err := s.store.Modules.GetByID(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("module", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	run := &cascadeRun{svc: s, entity: domain.CascadeEntityModule, id: id}
	err := s.tx.InTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		s.deleteModuleSteps(ctx, uow, run, id)
		return nil
	})
	if err != nil {
		run.fail(stepTransaction, "", err)
	}

	remaining := map[string]int{}
	s.count(ctx, run, remaining, "tickets", func(ctx context.Context) (int, error) {
		return s.store.Tickets.Count(ctx, repository.TicketFilter{ModuleID: &id})
	})
	s.count(ctx, run, remaining, "documents", func(ctx context.Context) (int, error) {
		return s.store.Documents.Count(ctx, repository.DocumentFilter{ModuleID: &id})
	})
	s.count(ctx, run, remaining, "modules", func(ctx context.Context) (int, error) {
		_, err := s.store.Modules.GetByID(ctx, id)
		return presence(err)
	})

	return s.finish(ctx, run, remaining), nil
}

func (s *CascadeService) deleteModuleSteps(ctx context.Context, uow repository.UnitOfWork, run *cascadeRun, moduleID string) {
	store := uow.Store()
	target := "module " + moduleID
	run.step(ctx, uow, stepModuleTickets, target, func(ctx context.Context) error {
		_, err := store.Tickets.DeleteByModule(ctx, moduleID)
		return err
	})
	run.step(ctx, uow, stepModuleDocuments, target, func(ctx context.Context) error {
		_, err := store.Documents.DeleteByModule(ctx, moduleID)
		return err
	})
	run.step(ctx, uow, stepModule, target, func(ctx context.Context) error {
		return store.Modules.Delete(ctx, moduleID)
	})
}

// count stores a post-condition count; an unverifiable count is reported
// as -1 and forces the partial outcome.
func (s *CascadeService) count(ctx context.Context, run *cascadeRun, remaining map[string]int, name string, fn func(ctx context.Context) (int, error)) {
	n, err := fn(ctx)
	if err != nil {
		run.fail("verify_"+name, "", err)
		remaining[name] = -1
		return
	}
	remaining[name] = n
}

func (s *CascadeService) finish(ctx context.Context, run *cascadeRun, remaining map[string]int) *domain.CascadeResult {
	outcome := domain.CascadeFullyDeleted
	for _, n := range remaining {
		if n != 0 {
			outcome = domain.CascadePartiallyDeleted
			break
		}
	}
	result := &domain.CascadeResult{
		Entity:    run.entity,
		ID:        run.id,
		Outcome:   outcome,
		Remaining: remaining,
		Failures:  run.failures,
	}

	fields := []zap.Field{
		zap.String("entity", string(run.entity)),
		zap.String("id", run.id),
		zap.String("outcome", string(outcome)),
		zap.Any("remaining", remaining),
		zap.Int("failed_steps", len(run.failures)),
	}
	if outcome == domain.CascadeFullyDeleted {
		s.logger.Info("cascade delete finished", fields...)
	} else {
		s.logger.Warn("cascade delete left records behind", fields...)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventEntityDeleted,
			SubjectID: run.id,
			Timestamp: time.Now().UTC(),
			Payload:   events.EntityDeletedPayload{Result: *result},
		})
	}
	return result
}

// presence turns a single-record lookup into a count of 0 or 1.
func presence(err error) (int, error) {
	if err == nil {
		return 1, nil
	}
	if apperrors.IsNotFound(err) {
		return 0, nil
	}
	return 0, err
}
