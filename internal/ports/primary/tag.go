package primary

import "context"

// TagService defines the primary port for binding statuses to forum tags.
type TagService interface {
	// Bind resolves the configured statuses against the forum tag catalog.
	// Calling it again rebinds every status.
	Bind(ctx context.Context) error

	// Lookup returns the tag bound to a status.
	Lookup(status string) (*TagReference, error)

	// References returns every bound tag in status order.
	References() []*TagReference
}

// TagReference is a status bound to a remote forum tag.
type TagReference struct {
	Status  string
	TagID   string
	TagName string
	Color   int
	Message string
}
