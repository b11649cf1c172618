package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/deskworks/service-desk/internal/domain"
	"github.com/deskworks/service-desk/internal/events"
)

// Message is one rendered email.
type Message struct {
	Subject string
	Plain   string
	HTML    string
}

// Renderer turns lifecycle events into operator emails.
type Renderer struct {
	markdown *Markdown
	loc      *time.Location
}

// NewRenderer constructs a renderer formatting times in loc.
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{markdown: NewMarkdown(), loc: loc}
}

// Render returns the email for event. The second result is false for
// events that do not warrant one.
func (r *Renderer) Render(event events.Event) (Message, bool, error) {
	ref := r.markdown.PlainText(event.PublicID)
	noun := kindNoun(event.Kind)
	actor := r.markdown.PlainText(event.Actor.DisplayName)

	switch payload := event.Payload.(type) {
	case events.EntryCreatedPayload:
		title := r.markdown.PlainText(payload.Title)
		lines := []string{
			fmt.Sprintf("%s filed %s %s: %s", actor, noun, ref, title),
		}
		if payload.Category != "" {
			lines = append(lines, "Category: "+r.markdown.PlainText(payload.Category))
		}
		if payload.PreferredVisitAt != nil {
			lines = append(lines, "Preferred visit: "+r.formatTime(*payload.PreferredVisitAt))
		}
		return r.message(fmt.Sprintf("[%s] New %s: %s", ref, noun, title), lines), true, nil

	case events.VisitAssignedPayload:
		lines := []string{fmt.Sprintf("Visit for %s %s set to %s", noun, ref, r.formatTime(payload.VisitAt))}
		if payload.SlotLabel != "" {
			lines = append(lines, "Slot: "+payload.SlotLabel)
		}
		if payload.Previous != nil {
			lines = append(lines, "Previously: "+r.formatTime(*payload.Previous))
		}
		return r.message(fmt.Sprintf("[%s] Visit scheduled", ref), lines), true, nil

	case events.TimelineNoteAddedPayload:
		if payload.AuthorRole == domain.RoleAdmin {
			return Message{}, false, nil
		}
		noteHTML, err := r.markdown.ToHTML(payload.NotePreview)
		if err != nil {
			return Message{}, false, err
		}
		lines := []string{fmt.Sprintf("%s added a note to %s %s", actor, noun, ref)}
		if payload.ImageCount > 0 {
			lines = append(lines, fmt.Sprintf("%d image(s) attached", payload.ImageCount))
		}
		msg := r.message(fmt.Sprintf("[%s] New customer note", ref), lines)
		msg.Plain += "\n" + r.markdown.PlainText(payload.NotePreview) + "\n"
		msg.HTML = strings.Replace(msg.HTML, "</body>", "<blockquote>"+noteHTML+"</blockquote></body>", 1)
		return msg, true, nil
	}
	return Message{}, false, nil
}

func (r *Renderer) message(subject string, lines []string) Message {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, line := range lines {
		b.WriteString("<p>" + html.EscapeString(line) + "</p>")
	}
	b.WriteString("</body></html>")
	return Message{
		Subject: subject,
		Plain:   strings.Join(lines, "\n") + "\n",
		HTML:    b.String(),
	}
}

func (r *Renderer) formatTime(t time.Time) string {
	return t.In(r.loc).Format("Mon 02 Jan 2006 15:04 MST")
}

func kindNoun(kind domain.EntryKind) string {
	if kind == domain.KindServiceRequest {
		return "service request"
	}
	return "ticket"
}
