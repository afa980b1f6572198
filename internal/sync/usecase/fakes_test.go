package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"

	customerdomain "github.com/cs-flytbase/support-sync/internal/customer/domain"
	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
	"github.com/cs-flytbase/support-sync/pkg/hubspot"
)

type fakeIntegrationRepo struct {
	mu           sync.Mutex
	integrations map[string]*integrationdomain.UserIntegration
	deactivated  []string
}

func newFakeIntegrationRepo(active ...string) *fakeIntegrationRepo {
	repo := &fakeIntegrationRepo{integrations: make(map[string]*integrationdomain.UserIntegration)}
	for _, key := range active {
		repo.integrations[key] = &integrationdomain.UserIntegration{
			ID: key, UserID: "user-1", Platform: keyPlatform(key), AccessToken: "tok", IsActive: true,
		}
	}
	return repo
}

func keyPlatform(key string) string { return key[len("user-1:"):] }

func (f *fakeIntegrationRepo) GetByUserAndPlatform(userID, platform string) (*integrationdomain.UserIntegration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.integrations[userID+":"+platform], nil
}

func (f *fakeIntegrationRepo) ListActiveByPlatform(platform string) ([]*integrationdomain.UserIntegration, error) {
	return nil, nil
}

func (f *fakeIntegrationRepo) ListActiveUserIDs() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, integration := range f.integrations {
		if integration.IsActive && !seen[integration.UserID] {
			seen[integration.UserID] = true
			ids = append(ids, integration.UserID)
		}
	}
	return ids, nil
}

func (f *fakeIntegrationRepo) Upsert(integration *integrationdomain.UserIntegration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.integrations[integration.UserID+":"+integration.Platform] = integration
	return nil
}

func (f *fakeIntegrationRepo) UpdateTokens(userID, platform, accessToken, refreshToken string) error {
	return nil
}

func (f *fakeIntegrationRepo) SetActive(userID, platform string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !active {
		f.deactivated = append(f.deactivated, userID+":"+platform)
	}
	if integration := f.integrations[userID+":"+platform]; integration != nil {
		integration.IsActive = active
	}
	return nil
}

func (f *fakeIntegrationRepo) TouchLastSync(userID, platform string, at time.Time) error { return nil }
func (f *fakeIntegrationRepo) GetMetadata(userID, platform string) ([]byte, error)       { return nil, nil }
func (f *fakeIntegrationRepo) SaveMetadata(userID, platform string, metadata []byte) error {
	return nil
}

type fakeCursorStore struct {
	mu     sync.Mutex
	states map[string]*syncdomain.CursorState
	saves  int
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{states: make(map[string]*syncdomain.CursorState)}
}

func (f *fakeCursorStore) Get(userID, source string) (*syncdomain.CursorState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.states[userID+":"+source]
	if state == nil {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (f *fakeCursorStore) Save(userID, source string, state syncdomain.CursorState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	current := f.states[userID+":"+source]
	if current == nil {
		current = &syncdomain.CursorState{}
		f.states[userID+":"+source] = current
	}
	current.Merge(state)
	return nil
}

func (f *fakeCursorStore) Clear(userID, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, userID+":"+source)
	return nil
}

// fakeEmailRepo mimics keyed upserts in memory. failOn lists provider
// IDs whose writes should fail, for batch isolation tests.
type fakeEmailRepo struct {
	mu      sync.Mutex
	rows    map[string]*syncdomain.Email
	failOn  map[string]bool
	deleted []string
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{rows: make(map[string]*syncdomain.Email), failOn: make(map[string]bool)}
}

func (f *fakeEmailRepo) UpsertBatch(emails []*syncdomain.Email) (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	written := 0
	var errs []string
	for _, email := range emails {
		if f.failOn[email.GoogleMessageID] {
			errs = append(errs, fmt.Sprintf("%s: simulated write failure", email.GoogleMessageID))
			continue
		}
		if existing, ok := f.rows[email.GoogleMessageID]; ok {
			email.ID = existing.ID
		} else if email.ID == "" {
			email.ID = "row-" + email.GoogleMessageID
		}
		f.rows[email.GoogleMessageID] = email
		written++
	}
	return written, errs
}

func (f *fakeEmailRepo) MarkDeleted(userID, googleMessageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, googleMessageID)
	if row, ok := f.rows[googleMessageID]; ok {
		row.IsDeleted = true
	}
	return nil
}

func (f *fakeEmailRepo) GetByGoogleID(userID, googleMessageID string) (*syncdomain.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[googleMessageID], nil
}

func (f *fakeEmailRepo) SaveEmbedding(emailID string, embedding []byte) error { return nil }

type fakeQueue struct {
	mu    sync.Mutex
	items []*embeddingdomain.QueueItem
}

func (f *fakeQueue) Enqueue(item *embeddingdomain.QueueItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, item)
	return nil
}

// fakeGmailProvider serves canned messages and history records.
type fakeGmailProvider struct {
	messages      map[string]*gmail.Message
	listPages     [][]string
	historyID     uint64
	historyAdds   []string
	historyDels   []string
	historyErr    error
	latestHistory uint64
	getErr        map[string]error
}

func (f *fakeGmailProvider) ListMessageIDs(ctx context.Context, query, pageToken string, pageSize int64) ([]string, string, error) {
	page := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "page-%d", &page)
	}
	if page >= len(f.listPages) {
		return nil, "", nil
	}
	next := ""
	if page+1 < len(f.listPages) {
		next = fmt.Sprintf("page-%d", page+1)
	}
	return f.listPages[page], next, nil
}

func (f *fakeGmailProvider) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	msg, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return msg, nil
}

func (f *fakeGmailProvider) ProfileHistoryID(ctx context.Context) (uint64, error) {
	return f.historyID, nil
}

func (f *fakeGmailProvider) ListHistory(ctx context.Context, startHistoryID uint64, pageToken string) (*gmail.ListHistoryResponse, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	resp := &gmail.ListHistoryResponse{HistoryId: f.latestHistory}
	var history gmail.History
	for _, id := range f.historyAdds {
		history.MessagesAdded = append(history.MessagesAdded, &gmail.HistoryMessageAdded{Message: &gmail.Message{Id: id}})
	}
	for _, id := range f.historyDels {
		history.MessagesDeleted = append(history.MessagesDeleted, &gmail.HistoryMessageDeleted{Message: &gmail.Message{Id: id}})
	}
	resp.History = []*gmail.History{&history}
	return resp, nil
}

type fakeCustomerRepo struct {
	byEmail  map[string]*customerdomain.Customer
	byDomain map[string]*customerdomain.Customer
}

func (f *fakeCustomerRepo) FindByContactEmail(userID, email string) (*customerdomain.Customer, error) {
	return f.byEmail[email], nil
}

func (f *fakeCustomerRepo) FindByWebsiteDomain(userID, domain string) (*customerdomain.Customer, error) {
	return f.byDomain[domain], nil
}

func (f *fakeCustomerRepo) Create(customer *customerdomain.Customer) error              { return nil }
func (f *fakeCustomerRepo) CreateContact(contact *customerdomain.CustomerContact) error { return nil }

func encodeBody(body string) string {
	return base64.URLEncoding.EncodeToString([]byte(body))
}

type fakeEventRepo struct {
	mu      sync.Mutex
	rows    map[string]*syncdomain.CalendarEvent
	failOn  map[string]bool
	deleted []string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{rows: make(map[string]*syncdomain.CalendarEvent), failOn: make(map[string]bool)}
}

func (f *fakeEventRepo) UpsertBatch(events []*syncdomain.CalendarEvent) (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	written := 0
	var errs []string
	for _, event := range events {
		if f.failOn[event.GoogleEventID] {
			errs = append(errs, fmt.Sprintf("%s: simulated write failure", event.GoogleEventID))
			continue
		}
		if existing, ok := f.rows[event.GoogleEventID]; ok {
			event.ID = existing.ID
		} else if event.ID == "" {
			event.ID = "row-" + event.GoogleEventID
		}
		f.rows[event.GoogleEventID] = event
		written++
	}
	return written, errs
}

func (f *fakeEventRepo) MarkDeleted(userID, googleEventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, googleEventID)
	if row, ok := f.rows[googleEventID]; ok {
		row.IsDeleted = true
	}
	return nil
}

func (f *fakeEventRepo) GetByGoogleID(userID, googleEventID string) (*syncdomain.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[googleEventID], nil
}

func (f *fakeEventRepo) SaveEmbedding(eventID string, embedding []byte) error { return nil }

// fakeCalendarProvider serves canned calendars and events. Bootstrap
// passes are told apart by their time window; future windows serve
// futureEvents, past windows pastEvents. Delta calls carry a sync
// token and serve deltaEvents unless the token is marked invalid.
type fakeCalendarProvider struct {
	calendars     []*calendar.CalendarListEntry
	futureEvents  map[string][]*calendar.Event
	pastEvents    map[string][]*calendar.Event
	deltaEvents   map[string][]*calendar.Event
	nextTokens    map[string]string
	invalidTokens map[string]bool
	deltaCalls    int
	bootstraps    int
}

func (f *fakeCalendarProvider) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	return f.calendars, nil
}

func (f *fakeCalendarProvider) ListEvents(ctx context.Context, calendarID string, opts syncdomain.EventListOptions) (*calendar.Events, error) {
	if opts.SyncToken != "" {
		if f.invalidTokens[opts.SyncToken] {
			return nil, &apiclient.CursorInvalidError{Source: "calendar", Msg: "sync token expired"}
		}
		f.deltaCalls++
		return &calendar.Events{
			Items:         f.deltaEvents[calendarID],
			NextSyncToken: f.nextTokens[calendarID],
		}, nil
	}
	f.bootstraps++
	items := f.pastEvents[calendarID]
	if opts.TimeMax.After(time.Now().Add(time.Hour)) {
		items = f.futureEvents[calendarID]
	}
	return &calendar.Events{
		Items:         items,
		NextSyncToken: f.nextTokens[calendarID],
	}, nil
}

func timedEvent(id, summary, organizer string, attendees ...string) *calendar.Event {
	event := &calendar.Event{
		Id:        id,
		Summary:   summary,
		Status:    "confirmed",
		Start:     &calendar.EventDateTime{DateTime: time.Now().Format(time.RFC3339)},
		End:       &calendar.EventDateTime{DateTime: time.Now().Add(time.Hour).Format(time.RFC3339)},
		Organizer: &calendar.EventOrganizer{Email: organizer},
	}
	for _, email := range attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}
	return event
}

// fakeCRMRepo keeps insertion-ordered HubSpot rows per object type.
type fakeCRMRepo struct {
	mu           sync.Mutex
	companies    map[string]*syncdomain.Company
	contacts     map[string]*syncdomain.Contact
	deals        map[string]*syncdomain.Deal
	order        map[string][]string
	associations []*syncdomain.Association
}

func newFakeCRMRepo() *fakeCRMRepo {
	return &fakeCRMRepo{
		companies: make(map[string]*syncdomain.Company),
		contacts:  make(map[string]*syncdomain.Contact),
		deals:     make(map[string]*syncdomain.Deal),
		order:     make(map[string][]string),
	}
}

func (f *fakeCRMRepo) track(objectType, hubspotID string) {
	for _, id := range f.order[objectType] {
		if id == hubspotID {
			return
		}
	}
	f.order[objectType] = append(f.order[objectType], hubspotID)
}

func (f *fakeCRMRepo) UpsertCompanies(companies []*syncdomain.Company) (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range companies {
		f.companies[row.HubSpotID] = row
		f.track(hubspot.ObjectCompanies, row.HubSpotID)
	}
	return len(companies), nil
}

func (f *fakeCRMRepo) UpsertContacts(contacts []*syncdomain.Contact) (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range contacts {
		f.contacts[row.HubSpotID] = row
		f.track(hubspot.ObjectContacts, row.HubSpotID)
	}
	return len(contacts), nil
}

func (f *fakeCRMRepo) UpsertDeals(deals []*syncdomain.Deal) (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range deals {
		f.deals[row.HubSpotID] = row
		f.track(hubspot.ObjectDeals, row.HubSpotID)
	}
	return len(deals), nil
}

func (f *fakeCRMRepo) UpsertAssociations(associations []*syncdomain.Association) (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.associations = append(f.associations, associations...)
	return len(associations), nil
}

func (f *fakeCRMRepo) Counts(userID string) (int64, int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.companies)), int64(len(f.contacts)), int64(len(f.deals)), nil
}

func (f *fakeCRMRepo) ListHubSpotIDs(userID, objectType string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order[objectType]...), nil
}

// fakeHubSpotProvider pages objects out of fixed slices. The paging
// cursor is the decimal page index, so resume tests can seed it.
type fakeHubSpotProvider struct {
	pages      map[string][][]hubspot.Object
	errOn      map[string]error // "objectType:pageIndex"
	assocs     map[string][]hubspot.Association
	listCalls  []string
	assocCalls int
	assocErr   error
}

func (f *fakeHubSpotProvider) ListObjects(ctx context.Context, userID, objectType, after string, limit int) (*hubspot.Page, error) {
	idx := 0
	if after != "" {
		idx, _ = strconv.Atoi(after)
	}
	f.listCalls = append(f.listCalls, fmt.Sprintf("%s:%d", objectType, idx))
	if err := f.errOn[fmt.Sprintf("%s:%d", objectType, idx)]; err != nil {
		return nil, err
	}
	pages := f.pages[objectType]
	if idx >= len(pages) {
		return &hubspot.Page{}, nil
	}
	page := &hubspot.Page{Results: pages[idx]}
	if idx+1 < len(pages) {
		page.After = strconv.Itoa(idx + 1)
	}
	return page, nil
}

func (f *fakeHubSpotProvider) ListAssociations(ctx context.Context, userID, fromType, toType string, fromIDs []string) ([]hubspot.Association, error) {
	f.assocCalls++
	if f.assocErr != nil {
		return nil, f.assocErr
	}
	wanted := make(map[string]bool, len(fromIDs))
	for _, id := range fromIDs {
		wanted[id] = true
	}
	var out []hubspot.Association
	for _, assoc := range f.assocs[fromType+":"+toType] {
		if wanted[assoc.FromID] {
			out = append(out, assoc)
		}
	}
	return out, nil
}

func hubspotObj(id string, props map[string]string) hubspot.Object {
	return hubspot.Object{ID: id, Properties: props}
}

// fakeSlackProvider pages message history per channel; the page cursor
// is the decimal page index.
type fakeSlackProvider struct {
	channels   []slack.Channel
	history    map[string][][]slack.Message
	historyErr map[string]error
	oldestSeen map[string]string
}

func (f *fakeSlackProvider) ListChannels(ctx context.Context, userID string) ([]slack.Channel, error) {
	return f.channels, nil
}

func (f *fakeSlackProvider) ChannelHistory(ctx context.Context, userID, channelID, oldest, cursor string) ([]slack.Message, string, bool, error) {
	if f.oldestSeen == nil {
		f.oldestSeen = make(map[string]string)
	}
	f.oldestSeen[channelID] = oldest
	if err := f.historyErr[channelID]; err != nil {
		return nil, "", false, err
	}
	idx := 0
	if cursor != "" {
		idx, _ = strconv.Atoi(cursor)
	}
	pages := f.history[channelID]
	if idx >= len(pages) {
		return nil, "", false, nil
	}
	next := ""
	if idx+1 < len(pages) {
		next = strconv.Itoa(idx + 1)
	}
	return pages[idx], next, next != "", nil
}

func slackChannel(id, name string) slack.Channel {
	channel := slack.Channel{}
	channel.ID = id
	channel.Name = name
	return channel
}

type fakeSlackRepo struct {
	mu       sync.Mutex
	channels map[string]*syncdomain.SlackChannel
	messages map[string]*syncdomain.SlackMessage
	failOn   map[string]bool
}

func newFakeSlackRepo() *fakeSlackRepo {
	return &fakeSlackRepo{
		channels: make(map[string]*syncdomain.SlackChannel),
		messages: make(map[string]*syncdomain.SlackMessage),
		failOn:   make(map[string]bool),
	}
}

func (f *fakeSlackRepo) UpsertChannels(channels []*syncdomain.SlackChannel) (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range channels {
		f.channels[row.SlackChannelID] = row
	}
	return len(channels), nil
}

func (f *fakeSlackRepo) UpsertMessages(messages []*syncdomain.SlackMessage) (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	written := 0
	var errs []string
	for _, row := range messages {
		key := row.SlackChannelID + ":" + row.MessageTS
		if f.failOn[key] {
			errs = append(errs, fmt.Sprintf("%s: simulated write failure", key))
			continue
		}
		if existing, ok := f.messages[key]; ok {
			row.ID = existing.ID
		} else if row.ID == "" {
			row.ID = "row-" + key
		}
		f.messages[key] = row
		written++
	}
	return written, errs
}

func (f *fakeSlackRepo) SaveMessageEmbedding(messageID string, embedding []byte) error { return nil }

type fakeRunRepo struct {
	mu   sync.Mutex
	runs []*syncdomain.SyncRun
}

func (f *fakeRunRepo) Create(run *syncdomain.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", len(f.runs)+1)
	}
	run.Status = syncdomain.SyncRunInProgress
	run.StartedAt = time.Now()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunRepo) Complete(runID string, status syncdomain.SyncRunStatus, errs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.runs {
		if run.ID == runID {
			run.Status = status
			now := time.Now()
			run.CompletedAt = &now
		}
	}
	return nil
}

func (f *fakeRunRepo) GetLatestByUser(userID string) (*syncdomain.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].UserID == userID {
			return f.runs[i], nil
		}
	}
	return nil, nil
}

// fakeSyncer is a scriptable source for orchestrator tests. An
// optional block channel holds Sync open so overlap can be provoked.
type fakeSyncer struct {
	source string
	result *dto.SyncResult
	err    error
	block  chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeSyncer) Source() string { return f.source }

func (f *fakeSyncer) Sync(ctx context.Context, userID string, opts SyncOptions) (*dto.SyncResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.result == nil && f.err == nil {
		return &dto.SyncResult{Source: f.source, Mode: string(opts.Mode)}, nil
	}
	return f.result, f.err
}

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func textMessage(id, from, to, subject, body string, labels ...string) *gmail.Message {
	return &gmail.Message{
		Id:           id,
		ThreadId:     "thread-" + id,
		LabelIds:     labels,
		Snippet:      body,
		InternalDate: time.Now().UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "To", Value: to},
				{Name: "Subject", Value: subject},
			},
			Body: &gmail.MessagePartBody{Data: encodeBody(body)},
		},
	}
}
