package googleapi

import (
	"context"

	"google.golang.org/api/calendar/v3"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

type calendarProvider struct {
	srv    *calendar.Service
	api    *apiclient.Client
	userID string
}

func (p *calendarProvider) do(ctx context.Context, fn func() error) error {
	return p.api.Do(ctx, p.userID, "calendar", func() error {
		return apiclient.ClassifyGoogleError("calendar", fn())
	})
}

func (p *calendarProvider) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	var entries []*calendar.CalendarListEntry
	pageToken := ""
	for {
		var resp *calendar.CalendarList
		err := p.do(ctx, func() error {
			call := p.srv.CalendarList.List()
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			resp, err = call.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, resp.Items...)
		if resp.NextPageToken == "" {
			return entries, nil
		}
		pageToken = resp.NextPageToken
	}
}

// ListEvents runs one events.list page. A 410 from the API surfaces as
// a CursorInvalidError so the caller can drop the sync token and
// re-bootstrap that calendar.
func (p *calendarProvider) ListEvents(ctx context.Context, calendarID string, opts syncdomain.EventListOptions) (*calendar.Events, error) {
	var resp *calendar.Events
	err := p.do(ctx, func() error {
		call := p.srv.Events.List(calendarID).SingleEvents(false).ShowDeleted(true)
		if opts.SyncToken != "" {
			call = call.SyncToken(opts.SyncToken)
		} else {
			if !opts.TimeMin.IsZero() {
				call = call.TimeMin(opts.TimeMin.Format("2006-01-02T15:04:05Z07:00"))
			}
			if !opts.TimeMax.IsZero() {
				call = call.TimeMax(opts.TimeMax.Format("2006-01-02T15:04:05Z07:00"))
			}
		}
		if opts.PageToken != "" {
			call = call.PageToken(opts.PageToken)
		}
		if opts.MaxResults > 0 {
			call = call.MaxResults(opts.MaxResults)
		}
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
