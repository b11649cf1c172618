package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskworks/service-desk/internal/config"
	"github.com/deskworks/service-desk/internal/domain"
	"github.com/deskworks/service-desk/internal/events"
	"github.com/deskworks/service-desk/internal/lifecycle"
	"github.com/deskworks/service-desk/internal/observability"
	"github.com/deskworks/service-desk/internal/projection"
	"github.com/deskworks/service-desk/internal/repository"
	apperrors "github.com/deskworks/service-desk/pkg/util/errorutil"
)

// PublicIDGenerator issues human-facing entry codes.
type PublicIDGenerator interface {
	Next(ctx context.Context, kind domain.EntryKind) (string, error)
}

// EntryService coordinates ticket and service request workflows: each call
// loads one entry, applies one lifecycle operation and persists the result.
type EntryService struct {
	entries        repository.EntryRepository
	publicIDs      PublicIDGenerator
	engine         *lifecycle.Engine
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	metrics        *observability.Metrics
	limits         config.TimelineConfig
	auditUnchanged bool
}

// EntryDependencies bundles collaborators for the entry service.
type EntryDependencies struct {
	EntryRepo  repository.EntryRepository
	PublicIDs  PublicIDGenerator
	Engine     *lifecycle.Engine
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Timeline   config.TimelineConfig
	Visit      config.VisitConfig
}

// EntryRef addresses one entry of a given kind.
type EntryRef struct {
	Kind domain.EntryKind
	ID   string
}

// EntryCreateInput describes entry creation payload.
type EntryCreateInput struct {
	Kind          domain.EntryKind
	Title         string
	Description   string
	Category      string
	PreferredDate string
	PreferredSlot domain.Slot
}

// NoteRequest describes a timeline note submission.
type NoteRequest struct {
	Note      string
	Images    []string
	PriceList []lifecycle.PriceInput
}

// ReplyRequest is a note plus an optional visit to schedule with it.
type ReplyRequest struct {
	NoteRequest
	ScheduledVisitAt *time.Time
}

// NewEntryService constructs the service.
func NewEntryService(deps EntryDependencies) *EntryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := deps.Engine
	if engine == nil {
		engine = lifecycle.NewEngine(lifecycle.Options{})
	}
	return &EntryService{
		entries:        deps.EntryRepo,
		publicIDs:      deps.PublicIDs,
		engine:         engine,
		dispatcher:     deps.Dispatcher,
		logger:         logger,
		metrics:        deps.Metrics,
		limits:         deps.Timeline,
		auditUnchanged: deps.Visit.AuditUnchanged,
	}
}

// Location returns the business time zone the service schedules in.
func (s *EntryService) Location() *time.Location {
	return s.engine.Visits.Location()
}

// CreateEntry files a new ticket or service request for a customer.
func (s *EntryService) CreateEntry(ctx context.Context, viewer domain.Viewer, input EntryCreateInput) (*domain.Entry, error) {
	if viewer.Role != domain.RoleCustomer {
		return nil, apperrors.NewForbidden("only customers file entries")
	}
	if !input.Kind.IsValid() {
		return nil, apperrors.NewValidationError("unknown entry kind", map[string]any{"kind": input.Kind})
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	entry := domain.NewEntry(input.Kind, viewer.ID, title, strings.TrimSpace(input.Description), strings.TrimSpace(input.Category))
	if input.PreferredDate != "" || input.PreferredSlot != "" {
		if input.PreferredDate == "" || input.PreferredSlot == "" {
			return nil, apperrors.NewValidationError("preferred date and slot must be given together", nil)
		}
		if err := s.engine.Visits.SetPreferred(entry, input.PreferredDate, input.PreferredSlot); err != nil {
			return nil, err
		}
	}

	publicID, err := s.publicIDs.Next(ctx, entry.Kind)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	entry.PublicID = publicID

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordLifecycle("create", string(entry.Kind))
	s.publishEvent(ctx, events.EventEntryCreated, entry, viewer, events.EntryCreatedPayload{
		OwnerID:          entry.OwnerID,
		Title:            entry.Title,
		Category:         entry.Category,
		PreferredVisitAt: entry.PreferredVisitAt,
	})
	return entry, nil
}

// ListEntries returns the viewer's entries of a kind; administrators see all.
func (s *EntryService) ListEntries(ctx context.Context, viewer domain.Viewer, kind domain.EntryKind) ([]domain.Entry, error) {
	filter := repository.EntryFilter{Kind: &kind}
	if !viewer.IsAdmin() {
		filter.OwnerID = &viewer.ID
	}
	entries, err := s.entries.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// OpenEntry fetches an entry. An administrator opening an entry still in
// its initial status moves it to the intermediate status; repeated opens
// have no further effect.
func (s *EntryService) OpenEntry(ctx context.Context, viewer domain.Viewer, ref EntryRef) (*domain.Entry, error) {
	entry, err := s.load(ctx, viewer, ref)
	if err != nil {
		return nil, err
	}
	oldStatus := entry.Status
	advanced, err := s.engine.Status.AutoAdvance(entry, viewer.Role)
	if err != nil {
		return nil, err
	}
	if !advanced {
		return entry, nil
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordLifecycle("auto_advance", "changed")
	s.logger.Info("entry auto-advanced",
		zap.String("entry_id", entry.ID),
		zap.String("public_id", entry.PublicID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(entry.Status)))
	s.publishEvent(ctx, events.EventEntryStatusChanged, entry, viewer, events.EntryStatusChangedPayload{
		OldStatus:   oldStatus,
		NewStatus:   entry.Status,
		AutoAdvance: true,
	})
	return entry, nil
}

// Transition changes the entry status. The bool result is false when the
// requested status was already current and nothing was written.
func (s *EntryService) Transition(ctx context.Context, viewer domain.Viewer, ref EntryRef, status domain.Status) (*domain.Entry, bool, error) {
	entry, err := s.load(ctx, viewer, ref)
	if err != nil {
		return nil, false, err
	}
	oldStatus := entry.Status
	if err := s.engine.Status.Transition(entry, status, viewer.Role); err != nil {
		if errors.Is(err, lifecycle.ErrNoEffectiveChange) {
			s.metrics.RecordLifecycle("transition", "unchanged")
			return entry, false, nil
		}
		s.metrics.RecordLifecycle("transition", "rejected")
		return nil, false, err
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, false, apperrors.MapError(err)
	}
	s.metrics.RecordLifecycle("transition", "changed")
	s.logger.Info("entry status changed",
		zap.String("entry_id", entry.ID),
		zap.String("public_id", entry.PublicID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(entry.Status)))
	s.publishEvent(ctx, events.EventEntryStatusChanged, entry, viewer, events.EntryStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: entry.Status,
	})
	return entry, true, nil
}

// AssignVisit sets the administrator-chosen visit time. The bool result is
// false when the instant was already assigned.
func (s *EntryService) AssignVisit(ctx context.Context, viewer domain.Viewer, ref EntryRef, at time.Time) (*domain.Entry, bool, error) {
	entry, err := s.load(ctx, viewer, ref)
	if err != nil {
		return nil, false, err
	}
	previous := entry.AssignedVisitAt
	if err := s.engine.Visits.Assign(entry, at, viewer.Role); err != nil {
		if errors.Is(err, lifecycle.ErrNoEffectiveChange) {
			s.metrics.RecordLifecycle("assign", "unchanged")
			s.auditUnchangedVisit(ctx, entry, viewer)
			return entry, false, nil
		}
		s.metrics.RecordLifecycle("assign", "rejected")
		return nil, false, err
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, false, apperrors.MapError(err)
	}
	s.metrics.RecordLifecycle("assign", "changed")
	s.publishVisitAssigned(ctx, entry, viewer, previous)
	return entry, true, nil
}

// AddNote appends a note to the entry's timeline.
func (s *EntryService) AddNote(ctx context.Context, viewer domain.Viewer, ref EntryRef, req NoteRequest) (*domain.Entry, error) {
	if err := s.checkImages(viewer, req.Images); err != nil {
		return nil, err
	}
	entry, err := s.load(ctx, viewer, ref)
	if err != nil {
		return nil, err
	}
	note, err := s.engine.Ledger.AppendNote(entry, s.noteInput(viewer, req))
	if err != nil {
		s.metrics.RecordLifecycle("append_note", "rejected")
		return nil, err
	}
	if err := s.entries.AppendNote(ctx, entry.ID, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordLifecycle("append_note", "changed")
	s.publishNoteAdded(ctx, entry, viewer)
	return entry, nil
}

// Reply schedules an optional visit and appends a note in one unit. If the
// visit half is rejected, nothing is written.
func (s *EntryService) Reply(ctx context.Context, viewer domain.Viewer, ref EntryRef, req ReplyRequest) (*domain.Entry, lifecycle.ReplyResult, error) {
	if err := s.checkImages(viewer, req.Images); err != nil {
		return nil, lifecycle.ReplyResult{}, err
	}
	entry, err := s.load(ctx, viewer, ref)
	if err != nil {
		return nil, lifecycle.ReplyResult{}, err
	}
	previous := entry.AssignedVisitAt
	result, err := s.engine.Reply(entry, lifecycle.ReplyInput{
		NoteInput:        s.noteInput(viewer, req.NoteRequest),
		ScheduledVisitAt: req.ScheduledVisitAt,
	})
	if err != nil {
		s.metrics.RecordLifecycle("reply", "rejected")
		return nil, lifecycle.ReplyResult{}, err
	}

	if result.VisitChanged {
		err = s.entries.UpdateWithNote(ctx, entry, result.Note)
	} else {
		err = s.entries.AppendNote(ctx, entry.ID, result.Note)
	}
	if err != nil {
		return nil, lifecycle.ReplyResult{}, apperrors.MapError(err)
	}
	s.metrics.RecordLifecycle("reply", "changed")

	if result.VisitChanged {
		s.publishVisitAssigned(ctx, entry, viewer, previous)
	} else if req.ScheduledVisitAt != nil {
		s.auditUnchangedVisit(ctx, entry, viewer)
	}
	s.publishNoteAdded(ctx, entry, viewer)
	return entry, result, nil
}

// MarkSeen records that the viewer acknowledged the index-th timeline note.
func (s *EntryService) MarkSeen(ctx context.Context, viewer domain.Viewer, ref EntryRef, index int) error {
	entry, err := s.load(ctx, viewer, ref)
	if err != nil {
		return err
	}
	added, err := s.engine.Ledger.MarkSeen(entry, index, viewer.ID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrIndexOutOfRange) {
			s.logger.Warn("mark seen on stale timeline index",
				zap.String("entry_id", entry.ID),
				zap.Int("index", index),
				zap.Int("timeline_len", len(entry.Timeline)))
		}
		return err
	}
	if !added {
		s.metrics.RecordLifecycle("mark_seen", "unchanged")
		return nil
	}
	if err := s.entries.MarkSeen(ctx, entry.ID, index, viewer.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.metrics.RecordLifecycle("mark_seen", "changed")
	return nil
}

// UnseenReplies projects the other-side notes the viewer has not seen
// across every entry they can access.
func (s *EntryService) UnseenReplies(ctx context.Context, viewer domain.Viewer) (projection.UnseenSummary, error) {
	filter := repository.EntryFilter{}
	if !viewer.IsAdmin() {
		filter.OwnerID = &viewer.ID
	}
	entries, err := s.entries.ListWithFilter(ctx, filter)
	if err != nil {
		return projection.UnseenSummary{}, apperrors.MapError(err)
	}
	return projection.UnseenFor(viewer, entries, s.Location()), nil
}

// VisitCalendar buckets every open scheduled visit by calendar day.
func (s *EntryService) VisitCalendar(ctx context.Context, viewer domain.Viewer) (projection.Calendar, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	tickets, serviceRequests, err := s.listBothKinds(ctx)
	if err != nil {
		return nil, err
	}
	return projection.BucketVisits(tickets, serviceRequests, s.Location()), nil
}

// Stats counts entries per lifecycle stage for both kinds.
func (s *EntryService) Stats(ctx context.Context, viewer domain.Viewer) ([]projection.Stats, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	tickets, serviceRequests, err := s.listBothKinds(ctx)
	if err != nil {
		return nil, err
	}
	return []projection.Stats{
		projection.StatsOf(domain.KindTicket, tickets),
		projection.StatsOf(domain.KindServiceRequest, serviceRequests),
	}, nil
}

// DeleteEntry removes an entry with its timeline.
func (s *EntryService) DeleteEntry(ctx context.Context, viewer domain.Viewer, ref EntryRef) error {
	if !viewer.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	if _, err := s.load(ctx, viewer, ref); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, ref.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("entry deleted", zap.String("entry_id", ref.ID), zap.String("kind", string(ref.Kind)))
	return nil
}

func (s *EntryService) listBothKinds(ctx context.Context) ([]domain.Entry, []domain.Entry, error) {
	ticketKind, requestKind := domain.KindTicket, domain.KindServiceRequest
	tickets, err := s.entries.ListWithFilter(ctx, repository.EntryFilter{Kind: &ticketKind})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	serviceRequests, err := s.entries.ListWithFilter(ctx, repository.EntryFilter{Kind: &requestKind})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return tickets, serviceRequests, nil
}

func (s *EntryService) load(ctx context.Context, viewer domain.Viewer, ref EntryRef) (*domain.Entry, error) {
	entry, err := s.entries.GetByID(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(string(ref.Kind), map[string]any{"id": ref.ID})
		}
		return nil, apperrors.MapError(err)
	}
	if entry.Kind != ref.Kind {
		return nil, apperrors.NewNotFound(string(ref.Kind), map[string]any{"id": ref.ID})
	}
	if !viewer.IsAdmin() && entry.OwnerID != viewer.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return entry, nil
}

func (s *EntryService) checkImages(viewer domain.Viewer, images []string) error {
	limit := s.limits.MaxCustomerImages
	if viewer.IsAdmin() {
		limit = s.limits.MaxAdminImages
	}
	if limit > 0 && len(images) > limit {
		return apperrors.NewValidationError("too many images", map[string]any{"max": limit, "given": len(images)})
	}
	return nil
}

func (s *EntryService) noteInput(viewer domain.Viewer, req NoteRequest) lifecycle.NoteInput {
	return lifecycle.NoteInput{
		Note:      req.Note,
		Author:    viewer,
		Images:    req.Images,
		PriceList: req.PriceList,
	}
}

func (s *EntryService) auditUnchangedVisit(ctx context.Context, entry *domain.Entry, viewer domain.Viewer) {
	if !s.auditUnchanged || entry.AssignedVisitAt == nil {
		return
	}
	s.publishEvent(ctx, events.EventVisitUnchanged, entry, viewer, events.VisitAssignedPayload{
		Previous: entry.AssignedVisitAt,
		VisitAt:  *entry.AssignedVisitAt,
	})
}

func (s *EntryService) publishVisitAssigned(ctx context.Context, entry *domain.Entry, viewer domain.Viewer, previous *time.Time) {
	label, _ := s.engine.Visits.SlotLabelOf(entry.AssignedVisitAt)
	s.publishEvent(ctx, events.EventVisitAssigned, entry, viewer, events.VisitAssignedPayload{
		Previous:  previous,
		VisitAt:   *entry.AssignedVisitAt,
		SlotLabel: label,
	})
}

func (s *EntryService) publishNoteAdded(ctx context.Context, entry *domain.Entry, viewer domain.Viewer) {
	index := len(entry.Timeline) - 1
	note := entry.Timeline[index]
	s.publishEvent(ctx, events.EventTimelineNoteAdded, entry, viewer, events.TimelineNoteAddedPayload{
		TimelineIndex: index,
		AuthorRole:    note.AuthorRole,
		ImageCount:    len(note.Images),
		HasQuote:      note.TotalPrice != nil,
		NotePreview:   stringPreview(note.Note, 120),
	})
}

func (s *EntryService) publishEvent(ctx context.Context, eventType events.EventType, entry *domain.Entry, viewer domain.Viewer, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		Type:     eventType,
		EntryID:  entry.ID,
		Kind:     entry.Kind,
		PublicID: entry.PublicID,
		Actor:    events.Actor{ID: viewer.ID, DisplayName: viewer.DisplayName, Role: viewer.Role},
		Payload:  payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
