package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/plotsync/internal/config"
	"github.com/example/plotsync/internal/core/plot"
	"github.com/example/plotsync/internal/ports/primary"
	"github.com/example/plotsync/internal/ports/secondary"
)

// DefaultTagCacheTTL bounds how long a fetched tag catalog is reused.
const DefaultTagCacheTTL = 10 * time.Second

// TagRegistry binds every status to a forum tag and serves lookups from memory.
type TagRegistry struct {
	forum   secondary.ForumGateway
	forumID string
	retry   RetryPolicy
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	statuses map[string]config.StatusConfig
	catalog  *tagCatalog
	bound    map[plot.Status]*primary.TagReference
}

var _ primary.TagService = (*TagRegistry)(nil)

// tagCatalog is the forum tag list indexed both ways.
type tagCatalog struct {
	fetched time.Time
	byID    map[string]string // id -> name
	byName  map[string]string // lowercased name -> id
}

// TagRegistryOptions configures a TagRegistry.
type TagRegistryOptions struct {
	ForumID  string
	Statuses map[string]config.StatusConfig
	TTL      time.Duration
	Retry    RetryPolicy
	Logger   *slog.Logger
}

// NewTagRegistry creates a registry. Nothing is bound until Bind succeeds.
func NewTagRegistry(forum secondary.ForumGateway, opts TagRegistryOptions) *TagRegistry {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTagCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &TagRegistry{
		forum:    forum,
		forumID:  opts.ForumID,
		retry:    opts.Retry,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		now:      time.Now,
		statuses: opts.Statuses,
		bound:    make(map[plot.Status]*primary.TagReference),
	}
}

// Reconfigure replaces the status settings. The next Bind uses them.
func (r *TagRegistry) Reconfigure(statuses map[string]config.StatusConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = statuses
}

// Bind resolves every status against the forum tag catalog. On failure the
// previous binding stays in place.
func (r *TagRegistry) Bind(ctx context.Context) error {
	r.mu.RLock()
	statuses := r.statuses
	r.mu.RUnlock()

	type resolved struct {
		status  plot.Status
		tag     string
		color   int
		message string
	}
	var pending []resolved
	for _, status := range plot.AllStatuses() {
		sc := statuses[string(status)]
		tag := strings.TrimSpace(sc.Tag)
		if tag == "" {
			return &ConfigError{Status: string(status), Reason: "no forum tag configured"}
		}
		pending = append(pending, resolved{
			status:  status,
			tag:     tag,
			color:   r.color(status, sc.Color),
			message: messageOr(sc.Message, plot.DefaultStatusMessage(status)),
		})
	}

	catalog, err := r.fetchCatalog(ctx)
	if err != nil {
		return err
	}

	bound := make(map[plot.Status]*primary.TagReference, len(pending))
	for _, p := range pending {
		id, name, ok := catalog.resolve(p.tag)
		if !ok {
			return &ConfigError{Status: string(p.status), Reason: fmt.Sprintf("forum has no tag matching %q", p.tag)}
		}
		bound[p.status] = &primary.TagReference{
			Status:  string(p.status),
			TagID:   id,
			TagName: name,
			Color:   p.color,
			Message: p.message,
		}
	}

	r.mu.Lock()
	r.bound = bound
	r.mu.Unlock()
	return nil
}

func (r *TagRegistry) color(status plot.Status, value string) int {
	fallback := plot.DefaultStatusColor(status)
	if strings.TrimSpace(value) == "" {
		r.logger.Warn("status has no color, using default", "status", status, "color", fmt.Sprintf("#%06X", fallback))
		return fallback
	}
	c, err := config.ParseColor(value)
	if err != nil {
		r.logger.Warn("status color invalid, using default", "status", status, "error", err)
		return fallback
	}
	return c
}

func messageOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// fetchCatalog returns the cached catalog while it is younger than the TTL.
func (r *TagRegistry) fetchCatalog(ctx context.Context) (*tagCatalog, error) {
	r.mu.RLock()
	cached := r.catalog
	r.mu.RUnlock()
	if cached != nil && r.now().Sub(cached.fetched) < r.ttl {
		return cached, nil
	}

	catalog, err := runCall(ctx, r.retry, remoteCall[[]secondary.ForumTag, *tagCatalog]{
		Name: "fetch forum tags",
		Request: func(ctx context.Context) ([]secondary.ForumTag, error) {
			return r.forum.FetchTags(ctx, r.forumID)
		},
		Decode: func(tags []secondary.ForumTag) (*tagCatalog, error) {
			c := &tagCatalog{
				fetched: r.now(),
				byID:    make(map[string]string, len(tags)),
				byName:  make(map[string]string, len(tags)),
			}
			for _, t := range tags {
				c.byID[t.ID] = t.Name
				c.byName[strings.ToLower(t.Name)] = t.ID
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load forum tags: %w", err)
	}

	r.mu.Lock()
	r.catalog = catalog
	r.mu.Unlock()
	return catalog, nil
}

// resolve matches a configured tag by snowflake id first, then by name.
func (c *tagCatalog) resolve(tag string) (id, name string, ok bool) {
	if isSnowflake(tag) {
		if name, ok := c.byID[tag]; ok {
			return tag, name, true
		}
	}
	if id, ok := c.byName[strings.ToLower(tag)]; ok {
		return id, c.byID[id], true
	}
	return "", "", false
}

func isSnowflake(s string) bool {
	if s == "" || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Lookup returns the tag bound to a status.
func (r *TagRegistry) Lookup(status string) (*primary.TagReference, error) {
	s, err := plot.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return r.tagFor(s)
}

func (r *TagRegistry) tagFor(status plot.Status) (*primary.TagReference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.bound[status]
	if !ok {
		return nil, &ConfigError{Status: string(status), Reason: "no tag bound"}
	}
	copied := *ref
	return &copied, nil
}

// References returns every bound tag in status order.
func (r *TagRegistry) References() []*primary.TagReference {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var refs []*primary.TagReference
	for _, status := range plot.AllStatuses() {
		if ref, ok := r.bound[status]; ok {
			copied := *ref
			refs = append(refs, &copied)
		}
	}
	return refs
}
