package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskworks/service-desk/internal/api/dto"
	"github.com/deskworks/service-desk/internal/auth"
	"github.com/deskworks/service-desk/internal/domain"
	"github.com/deskworks/service-desk/internal/lifecycle"
	"github.com/deskworks/service-desk/internal/service"
	apperrors "github.com/deskworks/service-desk/pkg/util/errorutil"
)

const kindKey = "entry_kind"

// KindSegments maps each collection path segment onto its entry kind.
var KindSegments = map[string]domain.EntryKind{
	"tickets":          domain.KindTicket,
	"service-requests": domain.KindServiceRequest,
}

// WithKind tags requests under a collection with the kind it serves.
func WithKind(kind domain.EntryKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(kindKey, kind)
		return c.Next()
	}
}

// EntriesHandler serves ticket and service request endpoints for both
// collections.
type EntriesHandler struct {
	service *service.EntryService
}

// NewEntriesHandler constructs handler.
func NewEntriesHandler(entryService *service.EntryService) *EntriesHandler {
	return &EntriesHandler{service: entryService}
}

// Create POST /api/{kind}.
func (h *EntriesHandler) Create(c *fiber.Ctx) error {
	viewer, kind, err := viewerAndKind(c)
	if err != nil {
		return err
	}
	var req dto.CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	entry, err := h.service.CreateEntry(c.UserContext(), viewer, service.EntryCreateInput{
		Kind:          kind,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		PreferredDate: strings.TrimSpace(req.PreferredDate),
		PreferredSlot: domain.Slot(strings.TrimSpace(req.PreferredSlot)),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEntryDetail(entry, h.service.Location())})
}

// List GET /api/{kind}.
func (h *EntriesHandler) List(c *fiber.Ctx) error {
	viewer, kind, err := viewerAndKind(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListEntries(c.UserContext(), viewer, kind)
	if err != nil {
		return err
	}
	items := make([]dto.EntrySummary, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewEntrySummary(&entries[i], h.service.Location()))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/{kind}/:id.
func (h *EntriesHandler) Get(c *fiber.Ctx) error {
	viewer, ref, err := viewerAndRef(c)
	if err != nil {
		return err
	}
	entry, err := h.service.OpenEntry(c.UserContext(), viewer, ref)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEntryDetail(entry, h.service.Location())})
}

// AddNote POST /api/{kind}/:id/notes.
func (h *EntriesHandler) AddNote(c *fiber.Ctx) error {
	viewer, ref, err := viewerAndRef(c)
	if err != nil {
		return err
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	entry, err := h.service.AddNote(c.UserContext(), viewer, ref, noteRequest(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEntryDetail(entry, h.service.Location())})
}

// Reply POST /api/{kind}/:id/replies.
func (h *EntriesHandler) Reply(c *fiber.Ctx) error {
	viewer, ref, err := viewerAndRef(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	entry, result, err := h.service.Reply(c.UserContext(), viewer, ref, service.ReplyRequest{
		NoteRequest:      noteRequest(req.AddNoteRequest),
		ScheduledVisitAt: req.ScheduledVisitAt,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data":          dto.NewEntryDetail(entry, h.service.Location()),
		"visit_changed": result.VisitChanged,
	})
}

// ChangeStatus PUT /api/{kind}/:id/status.
func (h *EntriesHandler) ChangeStatus(c *fiber.Ctx) error {
	viewer, ref, err := viewerAndRef(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	entry, changed, err := h.service.Transition(c.UserContext(), viewer, ref, domain.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		return err
	}
	return c.JSON(changeResponse(dto.NewEntryDetail(entry, h.service.Location()), changed))
}

// AssignVisit PUT /api/{kind}/:id/visit.
func (h *EntriesHandler) AssignVisit(c *fiber.Ctx) error {
	viewer, ref, err := viewerAndRef(c)
	if err != nil {
		return err
	}
	var req dto.AssignVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	entry, changed, err := h.service.AssignVisit(c.UserContext(), viewer, ref, *req.VisitAt)
	if err != nil {
		return err
	}
	return c.JSON(changeResponse(dto.NewEntryDetail(entry, h.service.Location()), changed))
}

// MarkSeen PUT /api/{kind}/:id/timeline/:index/seen. An index past the end
// of the timeline is acknowledged without effect.
func (h *EntriesHandler) MarkSeen(c *fiber.Ctx) error {
	viewer, ref, err := viewerAndRef(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return apperrors.NewBadRequest("index must be an integer")
	}
	if err := h.service.MarkSeen(c.UserContext(), viewer, ref, index); err != nil && !errors.Is(err, lifecycle.ErrIndexOutOfRange) {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete DELETE /api/{kind}/:id.
func (h *EntriesHandler) Delete(c *fiber.Ctx) error {
	viewer, ref, err := viewerAndRef(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteEntry(c.UserContext(), viewer, ref); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func changeResponse(data dto.EntryDetailResponse, changed bool) fiber.Map {
	resp := fiber.Map{"data": data, "changed": changed}
	if !changed {
		resp["message"] = "no changes detected"
	}
	return resp
}

func noteRequest(req dto.AddNoteRequest) service.NoteRequest {
	return service.NoteRequest{
		Note:      req.Note,
		Images:    req.Images,
		PriceList: req.PriceInputs(),
	}
}

func viewerAndKind(c *fiber.Ctx) (domain.Viewer, domain.EntryKind, error) {
	viewer, ok := auth.ViewerFromContext(c)
	if !ok {
		return domain.Viewer{}, "", apperrors.NewUnauthorized("authentication required")
	}
	kind, ok := c.Locals(kindKey).(domain.EntryKind)
	if !ok {
		return domain.Viewer{}, "", apperrors.NewNotFound("collection", nil)
	}
	return viewer, kind, nil
}

func viewerAndRef(c *fiber.Ctx) (domain.Viewer, service.EntryRef, error) {
	viewer, kind, err := viewerAndKind(c)
	if err != nil {
		return domain.Viewer{}, service.EntryRef{}, err
	}
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return domain.Viewer{}, service.EntryRef{}, apperrors.NewBadRequest("id required")
	}
	return viewer, service.EntryRef{Kind: kind, ID: id}, nil
}
