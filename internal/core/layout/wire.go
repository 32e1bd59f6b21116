package layout

import "encoding/json"

// Component types of the remote rich-message format.
const (
	TypeActionRow    = 1
	TypeButton       = 2
	TypeSection      = 9
	TypeTextDisplay  = 10
	TypeThumbnail    = 11
	TypeMediaGallery = 12
	TypeSeparator    = 14
	TypeContainer    = 17
)

// FlagIsComponentsV2 forces the rich component response mode on create and edit.
const FlagIsComponentsV2 = 1 << 15

// attachmentScheme prefixes media urls that reference message attachments.
const attachmentScheme = "attachment://"

type header struct {
	Type int    `json:"type"`
	ID   uint32 `json:"id,omitempty"`
}

type wireContainer struct {
	Type        int               `json:"type"`
	ID          uint32            `json:"id,omitempty"`
	AccentColor *int              `json:"accent_color,omitempty"`
	Spoiler     bool              `json:"spoiler,omitempty"`
	Components  []json.RawMessage `json:"components"`
}

type wireText struct {
	Type    int    `json:"type"`
	ID      uint32 `json:"id,omitempty"`
	Content string `json:"content"`
}

type wireMedia struct {
	URL string `json:"url"`
}

type wireThumbnail struct {
	Type        int       `json:"type"`
	ID          uint32    `json:"id,omitempty"`
	Media       wireMedia `json:"media"`
	Description string    `json:"description,omitempty"`
}

type wireSection struct {
	Type       int             `json:"type"`
	ID         uint32          `json:"id,omitempty"`
	Components []wireText      `json:"components"`
	Accessory  json.RawMessage `json:"accessory,omitempty"`
}

type wireGalleryItem struct {
	Media       wireMedia `json:"media"`
	Description string    `json:"description,omitempty"`
}

type wireGallery struct {
	Type  int               `json:"type"`
	ID    uint32            `json:"id,omitempty"`
	Items []wireGalleryItem `json:"items"`
}

type wireAttachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
}

type wireMessage struct {
	ID          string            `json:"id"`
	ChannelID   string            `json:"channel_id"`
	Flags       int               `json:"flags"`
	Components  []json.RawMessage `json:"components"`
	Attachments []wireAttachment  `json:"attachments"`
}

// Payload is the JSON body sent when creating or editing a layout message.
type Payload struct {
	Components  []json.RawMessage   `json:"components"`
	Flags       int                 `json:"flags"`
	Attachments []PayloadAttachment `json:"attachments"`
}

// PayloadAttachment lists an attachment the edited message keeps or gains.
// Existing attachments carry their remote id; new uploads carry their upload index.
type PayloadAttachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
}
