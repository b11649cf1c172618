package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/deskworks/service-desk/internal/api/dto"
	"github.com/deskworks/service-desk/internal/auth"
	"github.com/deskworks/service-desk/internal/persistence"
	"github.com/deskworks/service-desk/internal/service"
	apperrors "github.com/deskworks/service-desk/pkg/util/errorutil"
)

// digestKey matches worker.CalendarDigestKey.
const digestKey = "visit_calendar"

// ViewsHandler serves the read-only projections over all entries.
type ViewsHandler struct {
	service *service.EntryService
	digests DigestReader
}

// DigestReader loads a prebuilt digest document.
type DigestReader interface {
	Load(ctx context.Context, key string) ([]byte, error)
}

// NewViewsHandler constructs handler. digests may be nil, in which case the
// cached calendar endpoint reports not found.
func NewViewsHandler(entryService *service.EntryService, digests DigestReader) *ViewsHandler {
	return &ViewsHandler{service: entryService, digests: digests}
}

// Calendar GET /api/admin/calendar.
func (h *ViewsHandler) Calendar(c *fiber.Ctx) error {
	viewer, ok := auth.ViewerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	cal, err := h.service.VisitCalendar(c.UserContext(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCalendarResponse(cal)})
}

// Stats GET /api/admin/stats.
func (h *ViewsHandler) Stats(c *fiber.Ctx) error {
	viewer, ok := auth.ViewerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.Stats(c.UserContext(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Unseen GET /api/replies/unseen.
func (h *ViewsHandler) Unseen(c *fiber.Ctx) error {
	viewer, ok := auth.ViewerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	summary, err := h.service.UnseenReplies(c.UserContext(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// CalendarDigest GET /api/admin/calendar/digest serves the last calendar
// snapshot built by the background worker.
func (h *ViewsHandler) CalendarDigest(c *fiber.Ctx) error {
	if h.digests == nil {
		return apperrors.NewNotFound("digest", nil)
	}
	payload, err := h.digests.Load(c.UserContext(), digestKey)
	if err != nil {
		if errors.Is(err, persistence.ErrDigestMissing) {
			return apperrors.NewNotFound("digest", nil)
		}
		return apperrors.MapError(err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(payload)
}
