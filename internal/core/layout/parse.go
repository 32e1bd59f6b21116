package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/plotsync/internal/core/address"
)

// ErrMalformed is returned when a message body is not a component message.
var ErrMalformed = errors.New("malformed layout message")

// Parse decodes a fetched message object into a Model.
func Parse(data []byte) (*Model, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	nodes, err := ParseComponents(msg.Components)
	if err != nil {
		return nil, err
	}

	m := &Model{
		MessageID: msg.ID,
		ChannelID: msg.ChannelID,
		nodes:     nodes,
	}
	for _, a := range msg.Attachments {
		m.attachments = append(m.attachments, Attachment{ID: a.ID, Filename: a.Filename})
	}
	return m, nil
}

// ParseComponents decodes a top-level component array in document order.
func ParseComponents(components []json.RawMessage) ([]Node, error) {
	nodes := make([]Node, 0, len(components))
	for i, raw := range components {
		var h header
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, fmt.Errorf("%w: component %d: %v", ErrMalformed, i, err)
		}
		nodes = append(nodes, parseNode(raw, h))
	}
	return nodes, nil
}

// parseNode never fails: a container that cannot be decoded is kept opaque.
func parseNode(raw json.RawMessage, h header) Node {
	opaque := &Opaque{raw: append(json.RawMessage(nil), raw...), typ: h.Type, addr: address.Address(h.ID)}

	addr := address.Address(h.ID)
	if h.Type != TypeContainer || h.ID == 0 || !addr.Recognized() || addr.SubLevel() != address.SubNone {
		return opaque
	}

	var wc wireContainer
	if err := json.Unmarshal(raw, &wc); err != nil {
		return opaque
	}
	base := container{
		addr:    addr,
		accent:  wc.AccentColor,
		spoiler: wc.Spoiler,
		raw:     opaque.raw,
	}

	switch addr.TopLevel() {
	case address.TopInfo:
		info := &Info{container: base}
		info.slots = decodeChildren(addr, wc.Components, info.decode)
		return info
	case address.TopStatus:
		status := &Status{container: base}
		status.slots = decodeChildren(addr, wc.Components, status.decode)
		return status
	case address.TopShowcase:
		showcase := &Showcase{container: base}
		showcase.slots = decodeChildren(addr, wc.Components, showcase.decode)
		return showcase
	default:
		return opaque
	}
}

// decodeChildren assigns each child to a typed slot when decode accepts it,
// otherwise keeps it raw. Each sub-component is claimed at most once.
func decodeChildren(parent address.Address, children []json.RawMessage, decode func(address.SubLevel, header, json.RawMessage) bool) []slot {
	slots := make([]slot, 0, len(children))
	claimed := make(map[address.SubLevel]bool)
	for _, raw := range children {
		var h header
		keep := slot{raw: append(json.RawMessage(nil), raw...)}
		if err := json.Unmarshal(raw, &h); err != nil {
			slots = append(slots, keep)
			continue
		}
		child := address.Address(h.ID)
		sub := child.SubLevel()
		owned := h.ID != 0 &&
			child.TopLevel() == parent.TopLevel() &&
			child.Position() == parent.Position() &&
			sub != address.SubNone &&
			child.Recognized() &&
			!claimed[sub]
		if owned && decode(sub, h, raw) {
			claimed[sub] = true
			slots = append(slots, slot{sub: sub})
			continue
		}
		slots = append(slots, keep)
	}
	return slots
}

func (i *Info) decode(sub address.SubLevel, h header, raw json.RawMessage) bool {
	switch sub {
	case address.SubInfoDetails:
		text, thumb, ok := decodeTextOrSection(h, raw)
		if !ok {
			return false
		}
		i.details, i.thumbnail = text, thumb.Media.URL
		return true
	case address.SubInfoHistory:
		if h.Type != TypeTextDisplay {
			return false
		}
		var t wireText
		if json.Unmarshal(raw, &t) != nil {
			return false
		}
		i.history = splitLines(t.Content)
		return true
	case address.SubInfoGallery:
		urls, ok := decodeGallery(h, raw)
		if !ok {
			return false
		}
		i.gallery = urls
		return true
	}
	return false
}

func (s *Status) decode(sub address.SubLevel, h header, raw json.RawMessage) bool {
	switch sub {
	case address.SubStatusSummary:
		text, thumb, ok := decodeTextOrSection(h, raw)
		if !ok {
			return false
		}
		s.message = text
		s.owner = Owner{ID: thumb.Description, AvatarURL: thumb.Media.URL}
		return true
	case address.SubStatusOwnerRows:
		if h.Type != TypeTextDisplay {
			return false
		}
		var t wireText
		if json.Unmarshal(raw, &t) != nil {
			return false
		}
		for _, line := range splitLines(t.Content) {
			key, text, _ := strings.Cut(line, " ")
			s.rows = append(s.rows, Row{Key: key, Text: text})
		}
		return true
	}
	return false
}

func (s *Showcase) decode(sub address.SubLevel, h header, raw json.RawMessage) bool {
	switch sub {
	case address.SubShowcaseDetails:
		text, _, ok := decodeTextOrSection(h, raw)
		if !ok {
			return false
		}
		s.title = text
		return true
	case address.SubShowcaseGallery:
		urls, ok := decodeGallery(h, raw)
		if !ok {
			return false
		}
		s.images = urls
		return true
	}
	return false
}

// decodeTextOrSection reads either a plain text display or a section whose
// accessory is a thumbnail. Sections with other accessories are not decoded.
func decodeTextOrSection(h header, raw json.RawMessage) (string, wireThumbnail, bool) {
	switch h.Type {
	case TypeTextDisplay:
		var t wireText
		if json.Unmarshal(raw, &t) != nil {
			return "", wireThumbnail{}, false
		}
		return t.Content, wireThumbnail{}, true
	case TypeSection:
		var sec wireSection
		if json.Unmarshal(raw, &sec) != nil || len(sec.Accessory) == 0 {
			return "", wireThumbnail{}, false
		}
		var thumb wireThumbnail
		if json.Unmarshal(sec.Accessory, &thumb) != nil || thumb.Type != TypeThumbnail {
			return "", wireThumbnail{}, false
		}
		parts := make([]string, 0, len(sec.Components))
		for _, c := range sec.Components {
			parts = append(parts, c.Content)
		}
		return strings.Join(parts, "\n"), thumb, true
	}
	return "", wireThumbnail{}, false
}

func decodeGallery(h header, raw json.RawMessage) ([]string, bool) {
	if h.Type != TypeMediaGallery {
		return nil, false
	}
	var g wireGallery
	if json.Unmarshal(raw, &g) != nil {
		return nil, false
	}
	urls := make([]string, 0, len(g.Items))
	for _, item := range g.Items {
		urls = append(urls, item.Media.URL)
	}
	return urls, true
}

func splitLines(content string) []string {
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
