package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/deskworks/service-desk/internal/domain"
	"github.com/deskworks/service-desk/internal/lifecycle"
	"github.com/deskworks/service-desk/internal/projection"
)

// CreateEntryRequest payload.
type CreateEntryRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description" validate:"max=4000"`
	Category      string `json:"category" validate:"max=100"`
	PreferredDate string `json:"preferred_date" validate:"required_with=PreferredSlot"`
	PreferredSlot string `json:"preferred_slot" validate:"required_with=PreferredDate"`
}

// PriceLineRequest is one quoted line as typed by an administrator.
type PriceLineRequest struct {
	Description string `json:"description"`
	Price       string `json:"price"`
}

// AddNoteRequest payload. Note length rules are enforced by the lifecycle
// so that their error kinds reach the caller unchanged.
type AddNoteRequest struct {
	Note      string             `json:"note"`
	Images    []string           `json:"images" validate:"omitempty,dive,required"`
	PriceList []PriceLineRequest `json:"price_list"`
}

// ReplyRequest payload.
type ReplyRequest struct {
	AddNoteRequest
	ScheduledVisitAt *time.Time `json:"scheduled_visit_at"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssignVisitRequest payload.
type AssignVisitRequest struct {
	VisitAt *time.Time `json:"visit_at" validate:"required"`
}

// PriceInputs converts request lines for the ledger.
func (r AddNoteRequest) PriceInputs() []lifecycle.PriceInput {
	if len(r.PriceList) == 0 {
		return nil
	}
	out := make([]lifecycle.PriceInput, 0, len(r.PriceList))
	for _, line := range r.PriceList {
		out = append(out, lifecycle.PriceInput{Description: line.Description, Price: line.Price})
	}
	return out
}

// EntrySummary response.
type EntrySummary struct {
	ID               string           `json:"id"`
	PublicID         string           `json:"public_id"`
	Kind             domain.EntryKind `json:"kind"`
	Title            string           `json:"title"`
	Category         string           `json:"category"`
	Status           domain.Status    `json:"status"`
	PreferredVisitAt *time.Time       `json:"preferred_visit_at,omitempty"`
	AssignedVisitAt  *time.Time       `json:"assigned_visit_at,omitempty"`
	VisitSlotLabel   string           `json:"visit_slot_label,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// EntryDetailResponse provides the full entry with its timeline.
type EntryDetailResponse struct {
	EntrySummary
	OwnerID     string                  `json:"owner_id"`
	Description string                  `json:"description"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	Timeline    []TimelineEntryResponse `json:"timeline"`
}

// TimelineEntryResponse represents one note.
type TimelineEntryResponse struct {
	Index      int                `json:"index"`
	Note       string             `json:"note"`
	AddedBy    string             `json:"added_by"`
	AuthorRole domain.Role        `json:"author_role,omitempty"`
	AddedAt    time.Time          `json:"added_at"`
	Images     []string           `json:"images"`
	PriceList  []domain.PriceLine `json:"price_list,omitempty"`
	TotalPrice *decimal.Decimal   `json:"total_price,omitempty"`
	SeenBy     []string           `json:"seen_by"`
}

// CalendarDayResponse is one bucket of the visit calendar.
type CalendarDayResponse struct {
	Day                string             `json:"day"`
	HasTickets         bool               `json:"has_tickets"`
	HasServiceRequests bool               `json:"has_service_requests"`
	Mixed              bool               `json:"mixed"`
	AllResolved        bool               `json:"all_resolved"`
	Visits             []projection.Visit `json:"visits"`
}

// NewEntrySummary maps an entry for list responses.
func NewEntrySummary(e *domain.Entry, loc *time.Location) EntrySummary {
	summary := EntrySummary{
		ID:               e.ID,
		PublicID:         e.PublicID,
		Kind:             e.Kind,
		Title:            e.Title,
		Category:         e.Category,
		Status:           e.Status,
		PreferredVisitAt: e.PreferredVisitAt,
		AssignedVisitAt:  e.AssignedVisitAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
	visit := e.AssignedVisitAt
	if visit == nil {
		visit = e.PreferredVisitAt
	}
	if label, ok := lifecycle.SlotLabelOf(visit, loc); ok {
		summary.VisitSlotLabel = label
	}
	return summary
}

// NewEntryDetail maps an entry with its timeline.
func NewEntryDetail(e *domain.Entry, loc *time.Location) EntryDetailResponse {
	timeline := make([]TimelineEntryResponse, 0, len(e.Timeline))
	for i, item := range e.Timeline {
		timeline = append(timeline, TimelineEntryResponse{
			Index:      i,
			Note:       item.Note,
			AddedBy:    item.AddedBy,
			AuthorRole: item.AuthorRole,
			AddedAt:    item.AddedAt,
			Images:     nonNil(item.Images),
			PriceList:  item.PriceList,
			TotalPrice: item.TotalPrice,
			SeenBy:     nonNil(item.SeenBy),
		})
	}
	return EntryDetailResponse{
		EntrySummary: NewEntrySummary(e, loc),
		OwnerID:      e.OwnerID,
		Description:  e.Description,
		CompletedAt:  e.CompletedAt,
		Timeline:     timeline,
	}
}

// NewCalendarResponse flattens the calendar into day order.
func NewCalendarResponse(cal projection.Calendar) []CalendarDayResponse {
	days := cal.Days()
	out := make([]CalendarDayResponse, 0, len(days))
	for _, day := range days {
		bucket := cal[day]
		out = append(out, CalendarDayResponse{
			Day:                string(day),
			HasTickets:         bucket.HasTickets,
			HasServiceRequests: bucket.HasServiceRequests,
			Mixed:              bucket.Mixed(),
			AllResolved:        bucket.AllResolved,
			Visits:             bucket.Visits,
		})
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
