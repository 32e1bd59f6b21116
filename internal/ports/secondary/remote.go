package secondary

import "context"

// LayoutGateway defines the secondary port for the webhook that owns thread
// layout messages. Bodies are serialized component payloads.
type LayoutGateway interface {
	// CreateThread starts a forum thread whose first message is the layout.
	CreateThread(ctx context.Context, req CreateThreadRequest) (*MessageRef, error)

	// FetchLayout returns the raw message object anchoring a thread.
	FetchLayout(ctx context.Context, threadID, messageID string) ([]byte, error)

	// EditLayout replaces the components of a layout message.
	EditLayout(ctx context.Context, req EditLayoutRequest) error
}

// ForumGateway defines the secondary port for the bot account: tag catalog,
// thread metadata and the status-tracker message.
type ForumGateway interface {
	// FetchTags returns the tag catalog of a forum channel.
	FetchTags(ctx context.Context, forumID string) ([]ForumTag, error)

	// GetThread retrieves thread metadata.
	GetThread(ctx context.Context, threadID string) (*Thread, error)

	// EditThread changes only the supplied thread fields.
	EditThread(ctx context.Context, threadID string, edit ThreadEdit) (*Thread, error)

	// SendStatusMessage posts a new status-tracker message.
	SendStatusMessage(ctx context.Context, channelID string, msg StatusMessage) (*MessageRef, error)

	// FetchStatusMessage retrieves a status-tracker message.
	FetchStatusMessage(ctx context.Context, channelID, messageID string) (*StatusMessage, error)

	// EditStatusMessage replaces the embed and, when Buttons is non-nil, the button row.
	EditStatusMessage(ctx context.Context, channelID, messageID string, msg StatusMessage) error
}

// MessageRef identifies a remote message.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// File is a multipart upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateThreadRequest contains parameters for starting a forum thread.
type CreateThreadRequest struct {
	Name        string
	AppliedTags []string
	Body        []byte // layout payload JSON
	Files       []File
}

// EditLayoutRequest contains parameters for rewriting a layout message.
type EditLayoutRequest struct {
	ThreadID  string
	MessageID string
	Body      []byte // layout payload JSON
	Files     []File
}

// ForumTag is one entry of a forum's tag catalog.
type ForumTag struct {
	ID   string
	Name string
}

// Thread is forum thread metadata.
type Thread struct {
	ID                 string
	ParentID           string
	Name               string
	AppliedTags        []string
	AutoArchiveMinutes int
	Archived           bool
	Locked             bool
}

// ThreadEdit lists the thread fields to change. Nil or zero fields are left untouched.
type ThreadEdit struct {
	Name               *string
	AppliedTags        []string
	AutoArchiveMinutes int
	Locked             *bool
	Archived           *bool
}

// StatusMessage is the status-tracker message: one embed plus an optional button row.
type StatusMessage struct {
	ChannelID string
	MessageID string
	Embed     Embed
	Buttons   []Button
}

// Embed is the rich card of a status message.
type Embed struct {
	Title        string
	Description  string
	Color        int
	ThumbnailURL string
	Fields       []EmbedField
}

// EmbedField is one name/value pair of an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Button is one interactive element of a status message row.
type Button struct {
	CustomID string
	Label    string
	Style    int
	URL      string
	Disabled bool
}
