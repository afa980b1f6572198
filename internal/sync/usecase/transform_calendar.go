package usecase

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

const eventDescriptionSnippetLen = 1000

// parseEventTime handles the two shapes Google uses: dateTime for
// timed events, bare date for all-day events.
func parseEventTime(edt *calendar.EventDateTime) (*time.Time, bool) {
	if edt == nil {
		return nil, false
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return nil, false
		}
		return &t, false
	}
	if edt.Date != "" {
		t, err := time.Parse("2006-01-02", edt.Date)
		if err != nil {
			return nil, true
		}
		return &t, true
	}
	return nil, false
}

func classifyEvent(summary string, isAllDay bool) syncdomain.EventType {
	if isAllDay {
		return syncdomain.EventTypeAllDay
	}
	lower := strings.ToLower(summary)
	if strings.Contains(lower, "focus") || strings.Contains(lower, "block") {
		return syncdomain.EventTypeFocusTime
	}
	return syncdomain.EventTypeMeeting
}

func attendeeEmails(event *calendar.Event) []string {
	emails := make([]string, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		if a.Email != "" {
			emails = append(emails, a.Email)
		}
	}
	return emails
}

// buildEventEmbeddingText assembles searchable text for an event with
// a tighter cap than emails; event bodies carry less signal.
func buildEventEmbeddingText(summary, description, location, organizer string, attendees []string) string {
	parts := []string{
		summary,
		truncate(description, eventDescriptionSnippetLen),
		location,
		organizer,
		strings.Join(attendees, " "),
	}
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return truncate(strings.Join(nonEmpty, " "), eventEmbeddingMaxLen)
}

// transformCalendarEvent normalizes one Google Calendar event.
func transformCalendarEvent(userID, calendarID, calendarName string, event *calendar.Event) (*syncdomain.CalendarEvent, error) {
	if event == nil || event.Id == "" {
		return nil, fmt.Errorf("event has no id")
	}

	startTime, startAllDay := parseEventTime(event.Start)
	endTime, _ := parseEventTime(event.End)

	organizerEmail := ""
	if event.Organizer != nil {
		organizerEmail = event.Organizer.Email
	}
	attendees := attendeeEmails(event)

	out := &syncdomain.CalendarEvent{
		UserID:           userID,
		GoogleEventID:    event.Id,
		CalendarID:       calendarID,
		CalendarName:     calendarName,
		Summary:          event.Summary,
		Description:      event.Description,
		Location:         event.Location,
		StartTime:        startTime,
		EndTime:          endTime,
		IsAllDay:         startAllDay,
		EventType:        classifyEvent(event.Summary, startAllDay),
		Status:           event.Status,
		OrganizerEmail:   organizerEmail,
		Attendees:        mustJSON(attendees),
		IsRecurring:      len(event.Recurrence) > 0 || event.RecurringEventId != "",
		RecurringEventID: event.RecurringEventId,
		IsDeleted:        event.Status == "cancelled",
		RawData:          mustJSON(event),
	}
	out.EmbeddingText = buildEventEmbeddingText(event.Summary, event.Description, event.Location, organizerEmail, attendees)
	return out, nil
}
