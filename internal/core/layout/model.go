// Package layout is the typed representation of a thread's initial rich
// message. A model is obtained either by parsing a fetched message (Parse) or by
// building a fresh one (NewBuilder); both produce the same *Model type.
//
// Containers the engine owns are decoded into Info, Status and Showcase nodes.
// Everything else is kept as an Opaque node holding the original JSON, so a
// parse -> serialize round trip preserves components written by other tools.
// Mutations only touch the in-memory model; there is no I/O in this package.
package layout

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/example/plotsync/internal/core/address"
)

// Kind is the variant of a layout node.
type Kind int

const (
	KindOpaque Kind = iota
	KindInfo
	KindStatus
	KindShowcase
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindStatus:
		return "status"
	case KindShowcase:
		return "showcase"
	default:
		return "opaque"
	}
}

// Node is one top-level component of a layout. The set of implementations is
// closed: *Info, *Status, *Showcase and *Opaque.
type Node interface {
	Kind() Kind
	Address() address.Address
	Dirty() bool
	clone() Node
}

// slot keeps the document order of a container's children. Children the
// engine does not own keep their raw JSON.
type slot struct {
	sub address.SubLevel
	raw json.RawMessage
}

type container struct {
	addr    address.Address
	accent  *int
	spoiler bool
	slots   []slot
	raw     json.RawMessage // original bytes, re-emitted while the node is clean
	dirty   bool
}

// Address returns the packed address stored as the container id.
func (c *container) Address() address.Address { return c.addr }

// Dirty reports whether the node changed since it was parsed.
func (c *container) Dirty() bool { return c.dirty || c.raw == nil }

// Accent returns the accent color, if set.
func (c *container) Accent() (int, bool) {
	if c.accent == nil {
		return 0, false
	}
	return *c.accent, true
}

func (c *container) setAccent(color int) bool {
	if c.accent != nil && *c.accent == color {
		return false
	}
	c.accent = &color
	c.dirty = true
	return true
}

func (c *container) hasSlot(sub address.SubLevel) bool {
	for _, s := range c.slots {
		if s.raw == nil && s.sub == sub {
			return true
		}
	}
	return false
}

func (c *container) ensureSlot(sub address.SubLevel) {
	if !c.hasSlot(sub) {
		c.slots = append(c.slots, slot{sub: sub})
	}
}

func (c container) copyContainer() container {
	out := c
	if c.accent != nil {
		accent := *c.accent
		out.accent = &accent
	}
	out.slots = append([]slot(nil), c.slots...)
	out.raw = append(json.RawMessage(nil), c.raw...)
	return out
}

// Info holds plot details, the event history and the uploaded media gallery.
type Info struct {
	container
	details   string
	thumbnail string
	history   []string
	gallery   []string // media urls in display order
}

// Kind implements Node.
func (*Info) Kind() Kind { return KindInfo }

// Details returns the plot details text.
func (i *Info) Details() string { return i.details }

// History returns a copy of the history lines, oldest first.
func (i *Info) History() []string { return append([]string(nil), i.history...) }

// Attachments returns the names of gallery images stored as message attachments.
func (i *Info) Attachments() []string {
	var names []string
	for _, url := range i.gallery {
		if name, ok := strings.CutPrefix(url, attachmentScheme); ok {
			names = append(names, name)
		}
	}
	return names
}

// SetAccent sets the accent color. It reports whether the color changed.
func (i *Info) SetAccent(color int) bool { return i.setAccent(color) }

// AppendHistory appends one line and drops the oldest lines while the history
// is longer than maxLen characters. The newest line is always kept.
// It returns how many lines were dropped.
func (i *Info) AppendHistory(line string, maxLen int) int {
	i.history = append(i.history, line)
	dropped := 0
	for maxLen > 0 && len(i.history) > 1 && textLen(i.history) > maxLen {
		i.history = i.history[1:]
		dropped++
	}
	i.ensureSlot(address.SubInfoHistory)
	i.dirty = true
	return dropped
}

// AddAttachment registers an uploaded file in the gallery. It returns false,
// and changes nothing, when the name is already registered.
func (i *Info) AddAttachment(name string) bool {
	url := attachmentScheme + name
	for _, existing := range i.gallery {
		if existing == url {
			return false
		}
	}
	i.gallery = append(i.gallery, url)
	i.ensureSlot(address.SubInfoGallery)
	i.dirty = true
	return true
}

func (i *Info) clone() Node {
	out := *i
	out.container = i.copyContainer()
	out.history = append([]string(nil), i.history...)
	out.gallery = append([]string(nil), i.gallery...)
	return &out
}

// Owner is the member who currently claims the plot.
type Owner struct {
	ID        string // thumbnail identity
	AvatarURL string // thumbnail display url
}

// Row is one status line keyed by the member it describes.
type Row struct {
	Key  string
	Text string
}

// Status holds the status display message, the claim owner and per-member rows.
type Status struct {
	container
	message string
	owner   Owner
	rows    []Row
}

// Kind implements Node.
func (*Status) Kind() Kind { return KindStatus }

// Message returns the status display message.
func (s *Status) Message() string { return s.message }

// Owner returns the current claim owner.
func (s *Status) Owner() Owner { return s.owner }

// Rows returns a copy of the member rows.
func (s *Status) Rows() []Row { return append([]Row(nil), s.rows...) }

// SetAccent sets the accent color. It reports whether the color changed.
func (s *Status) SetAccent(color int) bool { return s.setAccent(color) }

// SetMessage replaces the status display message. It reports whether it changed.
func (s *Status) SetMessage(text string) bool {
	if s.message == text {
		return false
	}
	s.message = text
	s.ensureSlot(address.SubStatusSummary)
	s.dirty = true
	return true
}

// ClaimOwner replaces the claim owner when owner is a different member and
// reports whether it did. The same member only refreshes the display url.
func (s *Status) ClaimOwner(owner Owner) bool {
	if owner.ID == "" {
		return false
	}
	if s.owner.ID == owner.ID {
		if owner.AvatarURL != "" && owner.AvatarURL != s.owner.AvatarURL {
			s.owner.AvatarURL = owner.AvatarURL
			s.dirty = true
		}
		return false
	}
	s.owner = owner
	s.ensureSlot(address.SubStatusSummary)
	s.dirty = true
	return true
}

// UpsertRow updates the row of key in place, or appends one. It reports
// whether a row was appended.
func (s *Status) UpsertRow(key, text string) bool {
	s.ensureSlot(address.SubStatusOwnerRows)
	s.dirty = true
	for i := range s.rows {
		if s.rows[i].Key == key {
			s.rows[i].Text = text
			return false
		}
	}
	s.rows = append(s.rows, Row{Key: key, Text: text})
	return true
}

func (s *Status) clone() Node {
	out := *s
	out.container = s.copyContainer()
	out.rows = append([]Row(nil), s.rows...)
	return &out
}

// Showcase is posted when a plot is showcased. It is never patched.
type Showcase struct {
	container
	title  string
	images []string
}

// Kind implements Node.
func (*Showcase) Kind() Kind { return KindShowcase }

// Title returns the showcase text.
func (s *Showcase) Title() string { return s.title }

// Images returns the gallery media urls.
func (s *Showcase) Images() []string { return append([]string(nil), s.images...) }

func (s *Showcase) clone() Node {
	out := *s
	out.container = s.copyContainer()
	out.images = append([]string(nil), s.images...)
	return &out
}

// Opaque is a top-level component the engine does not own.
type Opaque struct {
	raw  json.RawMessage
	typ  int
	addr address.Address
}

// Kind implements Node.
func (*Opaque) Kind() Kind { return KindOpaque }

// Address returns the raw id of the component, which may not be a packed address.
func (o *Opaque) Address() address.Address { return o.addr }

// Dirty always reports false; opaque nodes are never modified.
func (o *Opaque) Dirty() bool { return false }

// Type returns the remote component type.
func (o *Opaque) Type() int { return o.typ }

// Raw returns a copy of the original JSON.
func (o *Opaque) Raw() json.RawMessage { return append(json.RawMessage(nil), o.raw...) }

func (o *Opaque) clone() Node {
	out := *o
	out.raw = append(json.RawMessage(nil), o.raw...)
	return &out
}

// Attachment is a file already attached to the remote message.
type Attachment struct {
	ID       string
	Filename string
}

// Model is the ordered component tree of one layout message.
type Model struct {
	MessageID   string
	ChannelID   string
	nodes       []Node
	attachments []Attachment
}

// Nodes returns the nodes in rendering order.
func (m *Model) Nodes() []Node { return append([]Node(nil), m.nodes...) }

// Attachments returns the attachments present on the remote message.
func (m *Model) Attachments() []Attachment { return append([]Attachment(nil), m.attachments...) }

// Info returns the first info node, or nil.
func (m *Model) Info() *Info {
	for _, n := range m.nodes {
		if info, ok := n.(*Info); ok {
			return info
		}
	}
	return nil
}

// Status returns the first status node, or nil.
func (m *Model) Status() *Status {
	for _, n := range m.nodes {
		if status, ok := n.(*Status); ok {
			return status
		}
	}
	return nil
}

// Dirty reports whether any node changed.
func (m *Model) Dirty() bool {
	for _, n := range m.nodes {
		if n.Dirty() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, so a fetched model can be patched without
// aliasing the original.
func (m *Model) Clone() *Model {
	out := &Model{
		MessageID:   m.MessageID,
		ChannelID:   m.ChannelID,
		nodes:       make([]Node, len(m.nodes)),
		attachments: append([]Attachment(nil), m.attachments...),
	}
	for i, n := range m.nodes {
		out.nodes[i] = n.clone()
	}
	return out
}

func textLen(lines []string) int {
	total := 0
	for _, l := range lines {
		total += utf8.RuneCountInString(l)
	}
	if len(lines) > 1 {
		total += len(lines) - 1
	}
	return total
}
