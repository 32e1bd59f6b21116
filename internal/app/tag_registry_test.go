package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/plotsync/internal/config"
	"github.com/example/plotsync/internal/core/plot"
)

func newTestRegistry(forum *mockForumGateway, statuses map[string]config.StatusConfig) *TagRegistry {
	return NewTagRegistry(forum, TagRegistryOptions{
		ForumID:  "500",
		Statuses: statuses,
		Retry:    noSleepRetry(),
		Logger:   discardLogger(),
	})
}

func TestTagRegistry_BindBySnowflakeAndName(t *testing.T) {
	forum := newMockForumGateway()
	r := newBoundRegistry(t, forum)

	approved, err := r.Lookup("approved")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if approved.TagID != "901" || approved.TagName != "Approved" {
		t.Errorf("expected snowflake binding to 901/Approved, got %s/%s", approved.TagID, approved.TagName)
	}
	if approved.Message != "Approved, well done" || approved.Color != 0x2ECC71 {
		t.Errorf("unexpected display %q %06X", approved.Message, approved.Color)
	}

	onGoing, err := r.Lookup("on_going")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if onGoing.TagID != "900" {
		t.Errorf("expected name binding to 900, got %s", onGoing.TagID)
	}
	if onGoing.Message != plot.DefaultStatusMessage(plot.StatusOnGoing) {
		t.Errorf("expected default message, got %q", onGoing.Message)
	}

	if refs := r.References(); len(refs) != len(plot.AllStatuses()) {
		t.Errorf("expected every status bound, got %d", len(refs))
	}
}

func TestTagRegistry_NameMatchIsCaseInsensitive(t *testing.T) {
	statuses := testStatuses()
	statuses["finished"] = config.StatusConfig{Tag: "FINISHED"}

	r := newTestRegistry(newMockForumGateway(), statuses)
	if err := r.Bind(context.Background()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	ref, _ := r.Lookup("finished")
	if ref.TagID != "903" {
		t.Errorf("expected 903, got %s", ref.TagID)
	}
}

func TestTagRegistry_BindErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]config.StatusConfig)
		status string
		reason string
	}{
		{
			name:   "missing tag",
			mutate: func(s map[string]config.StatusConfig) { delete(s, "rejected") },
			status: "rejected",
			reason: "no forum tag configured",
		},
		{
			name:   "unknown tag",
			mutate: func(s map[string]config.StatusConfig) { s["archived"] = config.StatusConfig{Tag: "Closed"} },
			status: "archived",
			reason: `no tag matching "Closed"`,
		},
		{
			name:   "unknown snowflake",
			mutate: func(s map[string]config.StatusConfig) { s["approved"] = config.StatusConfig{Tag: "999"} },
			status: "approved",
			reason: `no tag matching "999"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statuses := testStatuses()
			tt.mutate(statuses)
			err := newTestRegistry(newMockForumGateway(), statuses).Bind(context.Background())

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, cfgErr.Status)
			}
			if !strings.Contains(cfgErr.Reason, tt.reason) {
				t.Errorf("expected reason containing %q, got %q", tt.reason, cfgErr.Reason)
			}
		})
	}
}

func TestTagRegistry_InvalidColorFallsBack(t *testing.T) {
	statuses := testStatuses()
	statuses["rejected"] = config.StatusConfig{Tag: "Rejected", Color: "not-a-color"}

	r := newTestRegistry(newMockForumGateway(), statuses)
	if err := r.Bind(context.Background()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	ref, _ := r.Lookup("rejected")
	if ref.Color != plot.DefaultStatusColor(plot.StatusRejected) {
		t.Errorf("expected default color, got %06X", ref.Color)
	}
}

func TestTagRegistry_LookupBeforeBind(t *testing.T) {
	r := newTestRegistry(newMockForumGateway(), testStatuses())

	_, err := r.Lookup("approved")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Status != "approved" {
		t.Fatalf("expected ConfigError for approved, got %v", err)
	}
	if _, err := r.Lookup("done"); err == nil {
		t.Error("expected unknown status error")
	}
}

func TestTagRegistry_CatalogCachedForTTL(t *testing.T) {
	forum := newMockForumGateway()
	r := newTestRegistry(forum, testStatuses())
	clock := time.Unix(1700000000, 0)
	r.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if err := r.Bind(context.Background()); err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
	}
	if forum.fetchTagsCalls != 1 {
		t.Errorf("expected one catalog fetch within the TTL, got %d", forum.fetchTagsCalls)
	}

	clock = clock.Add(DefaultTagCacheTTL)
	if err := r.Bind(context.Background()); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if forum.fetchTagsCalls != 2 {
		t.Errorf("expected a refetch after the TTL, got %d", forum.fetchTagsCalls)
	}
}

func TestTagRegistry_FailedRebindKeepsPreviousBinding(t *testing.T) {
	forum := newMockForumGateway()
	r := newBoundRegistry(t, forum)

	statuses := testStatuses()
	statuses["approved"] = config.StatusConfig{Tag: "Gone"}
	r.Reconfigure(statuses)
	if err := r.Bind(context.Background()); err == nil {
		t.Fatal("expected rebind to fail")
	}

	ref, err := r.Lookup("approved")
	if err != nil || ref.TagID != "901" {
		t.Errorf("expected previous binding kept, got %v / %v", ref, err)
	}
}

func TestTagRegistry_FetchFailure(t *testing.T) {
	forum := newMockForumGateway()
	forum.fetchTagsErr = notFound("fetch forum tags")

	err := newTestRegistry(forum, testStatuses()).Bind(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to load forum tags") {
		t.Fatalf("expected load error, got %v", err)
	}
	if forum.fetchTagsCalls != 2 {
		t.Errorf("expected one retry on 404, got %d fetches", forum.fetchTagsCalls)
	}
}
