package primary

import "context"

// InteractionService defines the primary port for button interactions.
type InteractionService interface {
	// Handle routes an interaction by decoding its custom id.
	Handle(ctx context.Context, customID string, member Member) (*InteractionReply, error)
}

// InteractionReply is what the user who pressed a button sees.
type InteractionReply struct {
	Content   string
	URL       string
	Ephemeral bool
	Handled   bool // false when no handler matched
}
