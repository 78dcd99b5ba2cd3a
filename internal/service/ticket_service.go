package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/events"
	"github.com/fieldops/fieldservice/internal/repository"
	"github.com/fieldops/fieldservice/internal/storage"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

const maxParallelUploads = 4

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	clients    *ClientService
	modules    *ModuleService
	objects    storage.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	ClientService *ClientService
	ModuleService *ModuleService
	Objects       storage.Store
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ClientID    string
	ModuleID    string
	Title       string
	Description string
	Priority    domain.TicketPriority
	Latitude    *float64
	Longitude   *float64
}

// TicketUpdateInput carries optional field changes. Status has its own operation.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	Latitude    *float64
	Longitude   *float64
	// ClearCoordinates removes both coordinates.
	ClearCoordinates bool
}

// PhotoUpload is one file of a multi-file upload.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadFailure names a file that did not upload.
type UploadFailure struct {
	Filename string
	Error    string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		clients:    deps.ClientService,
		modules:    deps.ModuleService,
		objects:    deps.Objects,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        time.Now,
	}
}

// Create opens a ticket in New status for a module of the client.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	details := map[string]any{}
	if strings.TrimSpace(input.Title) == "" {
		details["title"] = "required"
	}
	if input.ClientID == "" {
		details["client_id"] = "required"
	}
	if input.ModuleID == "" {
		details["module_id"] = "required"
	}
	if input.Priority != "" && !input.Priority.Valid() {
		details["priority"] = "invalid"
	}
	if err := checkCoordinates(input.Latitude, input.Longitude); err != nil {
		details["coordinates"] = err.Error()
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	client, err := s.clients.Get(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	module, err := s.modules.Get(ctx, input.ModuleID)
	if err != nil {
		return nil, err
	}
	if module.ClientID != client.ID {
		return nil, apperrors.NewValidationError("module does not belong to client", map[string]any{"module_id": module.ID})
	}

	ticket := &domain.Ticket{
		ClientID:     client.ID,
		ClientName:   client.Name,
		ModuleID:     module.ID,
		ModuleSerial: module.SerialNumber,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusNew,
		Priority:     input.Priority,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Photos:       []string{},
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		SubjectID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			ClientID: ticket.ClientID,
			ModuleID: ticket.ModuleID,
			Priority: ticket.Priority,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// Get loads one ticket.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// List returns tickets in store order.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// CountByStatus returns one count per known status.
func (s *TicketService) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	out := make(map[domain.TicketStatus]int, 4)
	for _, status := range []domain.TicketStatus{
		domain.TicketStatusNew,
		domain.TicketStatusInProgress,
		domain.TicketStatusScheduled,
		domain.TicketStatusClosed,
	} {
		n, err := s.tickets.Count(ctx, repository.TicketFilter{Statuses: []domain.TicketStatus{status}})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		out[status] = n
	}
	return out, nil
}

// Update applies field changes. Concurrent edits are last-write-wins.
func (s *TicketService) Update(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"title": "required"})
		}
		ticket.Title = title
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"priority": "invalid"})
		}
		ticket.Priority = *input.Priority
	}
	switch {
	case input.ClearCoordinates:
		ticket.Latitude, ticket.Longitude = nil, nil
	case input.Latitude != nil || input.Longitude != nil:
		if err := checkCoordinates(input.Latitude, input.Longitude); err != nil {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"coordinates": err.Error()})
		}
		ticket.Latitude, ticket.Longitude = input.Latitude, input.Longitude
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// Delete removes a ticket immediately. Uploaded photos stay in storage.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ChangeStatus moves a ticket to status. Scheduled requires a date; every
// other status clears the scheduled date, including Closed.
func (s *TicketService) ChangeStatus(ctx context.Context, id string, status domain.TicketStatus, date *domain.Date) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(status)})
	}
	if status == domain.TicketStatusScheduled && (date == nil || date.IsZero()) {
		return nil, apperrors.NewValidationError("scheduled date required", map[string]any{"scheduled_date": "required"})
	}

	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := ticket.Status
	ticket.Status = status
	if status == domain.TicketStatusScheduled {
		d := *date
		ticket.ScheduledDate = &d
	} else {
		ticket.ScheduledDate = nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if old != status {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketStatusChanged,
			SubjectID: ticket.ID,
			Payload:   events.TicketStatusChangedPayload{OldStatus: old, NewStatus: status},
		})
	}
	if status == domain.TicketStatusScheduled {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketScheduled,
			SubjectID: ticket.ID,
			Payload:   events.TicketScheduledPayload{Ticket: *ticket},
		})
	}
	return ticket, nil
}

// AddPhotos uploads files in parallel, waits for all of them and appends the
// URLs that succeeded. Failed files are reported and nothing is rolled back.
func (s *TicketService) AddPhotos(ctx context.Context, id string, files []PhotoUpload) (*domain.Ticket, []UploadFailure, error) {
	if len(files) == 0 {
		return nil, nil, apperrors.NewValidationError("no files", map[string]any{"files": "required"})
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, nil, err
	}

	urls := make([]string, len(files))
	errs := make([]error, len(files))
	var g errgroup.Group
	g.SetLimit(maxParallelUploads)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			objectPath := fmt.Sprintf("%s/%s%s", id, uuid.NewString(), strings.ToLower(path.Ext(file.Filename)))
			urls[i], errs[i] = s.objects.Upload(ctx, storage.BucketTicketPhotos, objectPath, file.Data, file.ContentType)
			return nil
		})
	}
	_ = g.Wait()

	var (
		uploaded []string
		failures []UploadFailure
	)
	for i, err := range errs {
		if err != nil {
			s.logger.Warn("photo upload failed", zap.String("ticket_id", id), zap.String("file", files[i].Filename), zap.Error(err))
			failures = append(failures, UploadFailure{Filename: files[i].Filename, Error: err.Error()})
			continue
		}
		uploaded = append(uploaded, urls[i])
	}
	if len(uploaded) == 0 {
		return nil, failures, apperrors.NewUpstreamError("photo upload failed", errs[0])
	}

	// reload so photos added concurrently by another request are kept
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, failures, err
	}
	ticket.Photos = append(ticket.Photos, uploaded...)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, failures, apperrors.MapError(err)
	}
	return ticket, failures, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func checkCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return fmt.Errorf("latitude and longitude must be set together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return fmt.Errorf("out of range")
	}
	return nil
}
