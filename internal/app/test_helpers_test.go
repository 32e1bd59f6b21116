package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/example/plotsync/internal/config"
	"github.com/example/plotsync/internal/core/address"
	"github.com/example/plotsync/internal/core/layout"
	"github.com/example/plotsync/internal/core/plot"
	"github.com/example/plotsync/internal/ports/secondary"
)

// ============================================================================
// Mock TrackingRepository
// ============================================================================

var _ secondary.TrackingRepository = (*mockTrackingRepository)(nil)

type mockTrackingRepository struct {
	mu              sync.Mutex
	entries         map[string]*secondary.TrackingRecord
	updateStatusErr error
	feedbackErr     error
	deleteErr       error
	findErr         error
	statusWrites    []string
}

func newMockTrackingRepository(records ...*secondary.TrackingRecord) *mockTrackingRepository {
	m := &mockTrackingRepository{entries: make(map[string]*secondary.TrackingRecord)}
	for _, r := range records {
		m.entries[r.MessageID] = r
	}
	return m
}

func (m *mockTrackingRepository) Insert(ctx context.Context, entry *secondary.TrackingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.PlotID == entry.PlotID {
			delete(m.entries, id)
		}
	}
	copied := *entry
	m.entries[entry.MessageID] = &copied
	return nil
}

func (m *mockTrackingRepository) UpdateStatus(ctx context.Context, messageID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	e, ok := m.entries[messageID]
	if !ok {
		return secondary.ErrNotFound
	}
	e.Status = status
	m.statusWrites = append(m.statusWrites, status)
	return nil
}

func (m *mockTrackingRepository) UpdateFeedback(ctx context.Context, messageID string, feedback *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.feedbackErr != nil {
		return m.feedbackErr
	}
	e, ok := m.entries[messageID]
	if !ok {
		return secondary.ErrNotFound
	}
	e.Feedback = feedback
	return nil
}

func (m *mockTrackingRepository) Delete(ctx context.Context, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.entries[messageID]; !ok {
		return secondary.ErrNotFound
	}
	delete(m.entries, messageID)
	return nil
}

func (m *mockTrackingRepository) FindByPlotID(ctx context.Context, plotID int) ([]*secondary.TrackingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []*secondary.TrackingRecord
	for _, e := range m.entries {
		if e.PlotID == plotID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockTrackingRepository) GetByMessageID(ctx context.Context, messageID string) (*secondary.TrackingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[messageID]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockTrackingRepository) List(ctx context.Context, filters secondary.TrackingFilters) ([]*secondary.TrackingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.TrackingRecord
	for _, e := range m.entries {
		if filters.Status == "" || e.Status == filters.Status {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockTrackingRepository) get(messageID string) *secondary.TrackingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[messageID]
}

// ============================================================================
// Mock PlotRepository
// ============================================================================

var _ secondary.PlotRepository = (*mockPlotRepository)(nil)

type mockPlotRepository struct {
	plots map[int]*secondary.PlotRecord
}

func newMockPlotRepository(records ...*secondary.PlotRecord) *mockPlotRepository {
	m := &mockPlotRepository{plots: make(map[int]*secondary.PlotRecord)}
	for _, r := range records {
		m.plots[r.ID] = r
	}
	return m
}

func (m *mockPlotRepository) GetPlotByID(ctx context.Context, id int) (*secondary.PlotRecord, error) {
	p, ok := m.plots[id]
	if !ok {
		return nil, secondary.ErrNotFound
	}
	return p, nil
}

func (m *mockPlotRepository) List(ctx context.Context, filters secondary.PlotFilters) ([]*secondary.PlotRecord, error) {
	var out []*secondary.PlotRecord
	for _, p := range m.plots {
		out = append(out, p)
	}
	return out, nil
}

// ============================================================================
// Mock LayoutGateway
// ============================================================================

var _ secondary.LayoutGateway = (*mockLayoutGateway)(nil)

type mockLayoutGateway struct {
	mu         sync.Mutex
	layouts    map[string][]byte
	fetchErrs  []error // returned in order before the stored layout
	editErr    error
	createErr  error
	createRef  *secondary.MessageRef
	fetchCalls int
	edits      []secondary.EditLayoutRequest
	creates    []secondary.CreateThreadRequest
}

func newMockLayoutGateway() *mockLayoutGateway {
	return &mockLayoutGateway{
		layouts:   make(map[string][]byte),
		createRef: &secondary.MessageRef{ChannelID: "2002", MessageID: "2002"},
	}
}

func (m *mockLayoutGateway) CreateThread(ctx context.Context, req secondary.CreateThreadRequest) (*secondary.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, req)
	if m.createErr != nil {
		return nil, m.createErr
	}
	ref := *m.createRef
	return &ref, nil
}

func (m *mockLayoutGateway) FetchLayout(ctx context.Context, threadID, messageID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if len(m.fetchErrs) > 0 {
		err := m.fetchErrs[0]
		m.fetchErrs = m.fetchErrs[1:]
		return nil, err
	}
	raw, ok := m.layouts[threadID]
	if !ok {
		return nil, notFound("fetch layout")
	}
	return raw, nil
}

func (m *mockLayoutGateway) EditLayout(ctx context.Context, req secondary.EditLayoutRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, req)
	return m.editErr
}

func (m *mockLayoutGateway) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls + len(m.edits) + len(m.creates)
}

// ============================================================================
// Mock ForumGateway
// ============================================================================

var _ secondary.ForumGateway = (*mockForumGateway)(nil)

type mockForumGateway struct {
	mu             sync.Mutex
	tags           []secondary.ForumTag
	threads        map[string]*secondary.Thread
	statusMessages map[string]*secondary.StatusMessage

	fetchTagsErr  error
	editThreadErr error
	editStatusErr error
	sendErrs      []error

	fetchTagsCalls int
	otherCalls     int
	threadEdits    []secondary.ThreadEdit
	statusEdits    []secondary.StatusMessage
	sent           []secondary.StatusMessage
}

func newMockForumGateway() *mockForumGateway {
	return &mockForumGateway{
		tags:           testForumTags(),
		threads:        make(map[string]*secondary.Thread),
		statusMessages: make(map[string]*secondary.StatusMessage),
	}
}

func (m *mockForumGateway) FetchTags(ctx context.Context, forumID string) ([]secondary.ForumTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchTagsCalls++
	if m.fetchTagsErr != nil {
		return nil, m.fetchTagsErr
	}
	return append([]secondary.ForumTag(nil), m.tags...), nil
}

func (m *mockForumGateway) GetThread(ctx context.Context, threadID string) (*secondary.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otherCalls++
	t, ok := m.threads[threadID]
	if !ok {
		return nil, notFound("get thread")
	}
	copied := *t
	return &copied, nil
}

func (m *mockForumGateway) EditThread(ctx context.Context, threadID string, edit secondary.ThreadEdit) (*secondary.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otherCalls++
	m.threadEdits = append(m.threadEdits, edit)
	if m.editThreadErr != nil {
		return nil, m.editThreadErr
	}
	return &secondary.Thread{ID: threadID, AppliedTags: edit.AppliedTags}, nil
}

func (m *mockForumGateway) SendStatusMessage(ctx context.Context, channelID string, msg secondary.StatusMessage) (*secondary.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otherCalls++
	if len(m.sendErrs) > 0 {
		err := m.sendErrs[0]
		m.sendErrs = m.sendErrs[1:]
		return nil, err
	}
	m.sent = append(m.sent, msg)
	return &secondary.MessageRef{ChannelID: channelID, MessageID: "1001"}, nil
}

func (m *mockForumGateway) FetchStatusMessage(ctx context.Context, channelID, messageID string) (*secondary.StatusMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otherCalls++
	msg, ok := m.statusMessages[messageID]
	if !ok {
		return nil, notFound("fetch status message")
	}
	copied := *msg
	copied.Buttons = append([]secondary.Button(nil), msg.Buttons...)
	return &copied, nil
}

func (m *mockForumGateway) EditStatusMessage(ctx context.Context, channelID, messageID string, msg secondary.StatusMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otherCalls++
	m.statusEdits = append(m.statusEdits, msg)
	return m.editStatusErr
}

func (m *mockForumGateway) remoteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.otherCalls
}

// ============================================================================
// Mock Notifier and EventLogWriter
// ============================================================================

var _ secondary.Notifier = (*mockNotifier)(nil)

type mockNotifier struct {
	mu            sync.Mutex
	notifications []secondary.Notification
}

func (m *mockNotifier) Notify(ctx context.Context, n secondary.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
}

func (m *mockNotifier) bySeverity(s secondary.Severity) []secondary.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []secondary.Notification
	for _, n := range m.notifications {
		if n.Severity == s {
			out = append(out, n)
		}
	}
	return out
}

var _ secondary.EventLogWriter = (*mockEventLog)(nil)

type loggedEvent struct {
	plotID                         int
	event, status, outcome, detail string
}

type mockEventLog struct {
	mu     sync.Mutex
	events []loggedEvent
}

func (m *mockEventLog) LogEvent(ctx context.Context, plotID int, event, status, outcome, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, loggedEvent{plotID, event, status, outcome, detail})
	return nil
}

// ============================================================================
// Fixtures
// ============================================================================

func notFound(op string) error {
	return &secondary.RemoteError{Op: op, StatusCode: http.StatusNotFound, Code: 10008, Message: "Unknown Message"}
}

func noSleepRetry() RetryPolicy {
	return RetryPolicy{Delay: time.Millisecond, sleep: func(context.Context, time.Duration) error { return nil }}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testForumTags() []secondary.ForumTag {
	return []secondary.ForumTag{
		{ID: "900", Name: "On Going"},
		{ID: "903", Name: "Finished"},
		{ID: "902", Name: "Rejected"},
		{ID: "901", Name: "Approved"},
		{ID: "904", Name: "Archived"},
		{ID: "905", Name: "Abandoned"},
	}
}

func testStatuses() map[string]config.StatusConfig {
	return map[string]config.StatusConfig{
		"on_going":  {Tag: "On Going", Color: "#3498DB"},
		"finished":  {Tag: "Finished", Color: "#F1C40F"},
		"rejected":  {Tag: "Rejected", Color: "#E74C3C"},
		"approved":  {Tag: "901", Color: "#2ECC71", Message: "Approved, well done"},
		"archived":  {Tag: "Archived", Color: "#95A5A6"},
		"abandoned": {Tag: "Abandoned", Color: "#7F8C8D"},
	}
}

func newBoundRegistry(t *testing.T, forum secondary.ForumGateway) *TagRegistry {
	t.Helper()
	r := NewTagRegistry(forum, TagRegistryOptions{
		ForumID:  "500",
		Statuses: testStatuses(),
		Retry:    noSleepRetry(),
		Logger:   discardLogger(),
	})
	if err := r.Bind(context.Background()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	return r
}

// layoutFixture renders the layout of plot 42 as the remote would return it.
func layoutFixture(t *testing.T, plotID int, threadID string) []byte {
	t.Helper()
	accent := 0xF1C40F
	model, err := layout.NewBuilder(plotID).
		Info(layout.InfoSpec{Details: "## Plot #42", Accent: &accent, History: []string{"Plot claimed by <@111>"}}).
		Status(layout.StatusSpec{
			Message: "📨 Submitted, waiting for review",
			Accent:  &accent,
			Owner:   layout.Owner{ID: "111"},
			Rows:    []layout.Row{{Key: "<@111>", Text: "claimed"}},
		}).
		Build()
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	payload, err := model.Serialize()
	if err != nil {
		t.Fatalf("serialize fixture: %v", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	doc["id"] = threadID
	doc["channel_id"] = threadID
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func statusMessageFixture(t *testing.T, plotID int) *secondary.StatusMessage {
	t.Helper()
	buttons, err := plot.DefaultButtons(plotID)
	if err != nil {
		t.Fatal(err)
	}
	msg := &secondary.StatusMessage{
		ChannelID: "2002",
		MessageID: "1001",
		Embed: secondary.Embed{
			Title:       "Plot #42",
			Description: "📨 Submitted, waiting for review",
			Color:       0xF1C40F,
			Fields: []secondary.EmbedField{
				{Name: plot.FieldStatus, Value: "finished", Inline: true},
				{Name: plot.FieldOwner, Value: "<@111>", Inline: true},
				{Name: "Reviewer notes", Value: "keep me"},
			},
		},
		Buttons: toButtons(buttons),
	}
	msg.Buttons = append(msg.Buttons, secondary.Button{CustomID: "rules", Label: "Rules", Style: 2})
	return msg
}

// updateHarness wires a PlotUpdateService over in-memory collaborators with
// plot 42 tracked by status message 1001 in thread 2002.
type updateHarness struct {
	tracking *mockTrackingRepository
	plots    *mockPlotRepository
	layouts  *mockLayoutGateway
	forum    *mockForumGateway
	notifier *mockNotifier
	eventLog *mockEventLog
	tags     *TagRegistry
	svc      *PlotUpdateService
}

func newUpdateHarness(t *testing.T, status plot.Status) *updateHarness {
	t.Helper()
	h := &updateHarness{
		tracking: newMockTrackingRepository(&secondary.TrackingRecord{
			MessageID:      "1001",
			ThreadID:       "2002",
			PlotID:         42,
			Status:         string(status),
			OwnerUUID:      "uuid-111",
			OwnerDiscordID: "111",
		}),
		plots: newMockPlotRepository(&secondary.PlotRecord{
			ID: 42, OwnerUUID: "uuid-111", OwnerName: "alex", OwnerDiscordID: "111",
			City: "Lyon", Country: "France", X: 120, Z: -340, McCoordinates: "120 64 -340", Status: "unfinished",
		}),
		layouts:  newMockLayoutGateway(),
		forum:    newMockForumGateway(),
		notifier: &mockNotifier{},
		eventLog: &mockEventLog{},
	}
	h.layouts.layouts["2002"] = layoutFixture(t, 42, "2002")
	h.forum.threads["2002"] = &secondary.Thread{ID: "2002", ParentID: "500", Name: "Plot #42 · Lyon, France"}
	h.forum.statusMessages["1001"] = statusMessageFixture(t, 42)
	h.tags = newBoundRegistry(t, h.forum)

	retry := noSleepRetry()
	h.svc = NewPlotUpdateService(PlotUpdateDeps{
		Tracking: h.tracking,
		Layouts:  h.layouts,
		Forum:    h.forum,
		Tags:     h.tags,
		Executor: NewEffectExecutor(h.layouts, h.forum, retry),
		Notifier: h.notifier,
		EventLog: h.eventLog,
		Retry:    retry,
		Options:  UpdateOptions{HistoryMax: 3000, ArchivePrefix: "[Archived] ", AutoArchiveMinutes: 60},
	})
	h.svc.newCorrelationID = func() string { return "corr-1" }
	h.svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return h
}

func customIDOf(t *testing.T, sub address.SubLevel, plotID int) string {
	t.Helper()
	addr, err := address.Pack(address.TopButton, sub, plotID)
	if err != nil {
		t.Fatal(err)
	}
	return addr.CustomID()
}
