package layout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/plotsync/internal/core/address"
)

// Components serializes every node in order. Clean parsed nodes are
// re-emitted byte for byte; changed or built nodes are rendered.
func (m *Model) Components() ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(m.nodes))
	for i, n := range m.nodes {
		raw, err := renderNode(n)
		if err != nil {
			return nil, fmt.Errorf("render node %d (%s): %w", i, n.Kind(), err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// Serialize builds the full create/edit body. Existing attachments are always
// re-listed because the remote service drops unlisted attachments on edit;
// uploads are appended with their upload index as id.
func (m *Model) Serialize(uploads ...string) (Payload, error) {
	components, err := m.Components()
	if err != nil {
		return Payload{}, err
	}
	attachments := make([]PayloadAttachment, 0, len(m.attachments)+len(uploads))
	for _, a := range m.attachments {
		attachments = append(attachments, PayloadAttachment{ID: a.ID, Filename: a.Filename})
	}
	for i, name := range uploads {
		attachments = append(attachments, PayloadAttachment{ID: strconv.Itoa(i), Filename: name})
	}
	return Payload{
		Components:  components,
		Flags:       FlagIsComponentsV2,
		Attachments: attachments,
	}, nil
}

func renderNode(n Node) (json.RawMessage, error) {
	switch typed := n.(type) {
	case *Opaque:
		return typed.Raw(), nil
	case *Info:
		if !typed.Dirty() {
			return typed.raw, nil
		}
		return typed.render(typed.renderChild)
	case *Status:
		if !typed.Dirty() {
			return typed.raw, nil
		}
		return typed.render(typed.renderChild)
	case *Showcase:
		if !typed.Dirty() {
			return typed.raw, nil
		}
		return typed.render(typed.renderChild)
	default:
		return nil, fmt.Errorf("unknown layout node %T", n)
	}
}

// render emits the container with its children in slot order. A child
// renderer returning nil omits that child (e.g. an empty gallery).
func (c *container) render(child func(address.SubLevel) (any, error)) (json.RawMessage, error) {
	wc := wireContainer{
		Type:        TypeContainer,
		ID:          uint32(c.addr),
		AccentColor: c.accent,
		Spoiler:     c.spoiler,
		Components:  make([]json.RawMessage, 0, len(c.slots)),
	}
	for _, s := range c.slots {
		if s.raw != nil {
			wc.Components = append(wc.Components, s.raw)
			continue
		}
		v, err := child(s.sub)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		wc.Components = append(wc.Components, raw)
	}
	return json.Marshal(wc)
}

func (c *container) childID(sub address.SubLevel) (uint32, error) {
	addr, err := c.addr.WithSub(sub)
	if err != nil {
		return 0, err
	}
	return uint32(addr), nil
}

func (i *Info) renderChild(sub address.SubLevel) (any, error) {
	id, err := i.childID(sub)
	if err != nil {
		return nil, err
	}
	switch sub {
	case address.SubInfoDetails:
		if i.details == "" {
			return nil, nil
		}
		return textOrSection(id, i.details, i.thumbnail, ""), nil
	case address.SubInfoHistory:
		if len(i.history) == 0 {
			return nil, nil
		}
		return wireText{Type: TypeTextDisplay, ID: id, Content: strings.Join(i.history, "\n")}, nil
	case address.SubInfoGallery:
		return gallery(id, i.gallery), nil
	}
	return nil, fmt.Errorf("info has no sub-component %s", sub)
}

func (s *Status) renderChild(sub address.SubLevel) (any, error) {
	id, err := s.childID(sub)
	if err != nil {
		return nil, err
	}
	switch sub {
	case address.SubStatusSummary:
		if s.message == "" {
			return nil, nil
		}
		return textOrSection(id, s.message, s.owner.AvatarURL, s.owner.ID), nil
	case address.SubStatusOwnerRows:
		if len(s.rows) == 0 {
			return nil, nil
		}
		lines := make([]string, 0, len(s.rows))
		for _, r := range s.rows {
			lines = append(lines, strings.TrimSpace(r.Key+" "+r.Text))
		}
		return wireText{Type: TypeTextDisplay, ID: id, Content: strings.Join(lines, "\n")}, nil
	}
	return nil, fmt.Errorf("status has no sub-component %s", sub)
}

func (s *Showcase) renderChild(sub address.SubLevel) (any, error) {
	id, err := s.childID(sub)
	if err != nil {
		return nil, err
	}
	switch sub {
	case address.SubShowcaseDetails:
		if s.title == "" {
			return nil, nil
		}
		return wireText{Type: TypeTextDisplay, ID: id, Content: s.title}, nil
	case address.SubShowcaseGallery:
		return gallery(id, s.images), nil
	}
	return nil, fmt.Errorf("showcase has no sub-component %s", sub)
}

func textOrSection(id uint32, text, thumbnailURL, thumbnailDescription string) any {
	if thumbnailURL == "" {
		return wireText{Type: TypeTextDisplay, ID: id, Content: text}
	}
	accessory, _ := json.Marshal(wireThumbnail{
		Type:        TypeThumbnail,
		Media:       wireMedia{URL: thumbnailURL},
		Description: thumbnailDescription,
	})
	return wireSection{
		Type:       TypeSection,
		ID:         id,
		Components: []wireText{{Type: TypeTextDisplay, Content: text}},
		Accessory:  accessory,
	}
}

func gallery(id uint32, urls []string) any {
	if len(urls) == 0 {
		return nil
	}
	g := wireGallery{Type: TypeMediaGallery, ID: id, Items: make([]wireGalleryItem, 0, len(urls))}
	for _, url := range urls {
		g.Items = append(g.Items, wireGalleryItem{Media: wireMedia{URL: url}})
	}
	return g
}
