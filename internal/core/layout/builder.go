package layout

import (
	"fmt"

	"github.com/example/plotsync/internal/core/address"
)

// InfoSpec describes the info container of a new layout.
type InfoSpec struct {
	Details      string
	ThumbnailURL string
	Accent       *int
	History      []string
	Attachments  []string // upload names shown in the gallery
}

// StatusSpec describes the status container of a new layout.
type StatusSpec struct {
	Message string
	Accent  *int
	Owner   Owner
	Rows    []Row
}

// ShowcaseSpec describes a showcase container.
type ShowcaseSpec struct {
	Title  string
	Accent *int
	Images []string
}

// Builder assembles a fresh layout for one plot. Containers appear in the
// order they are added.
type Builder struct {
	position int
	nodes    []Node
	err      error
}

// NewBuilder starts a layout whose addresses carry plotID as position.
func NewBuilder(plotID int) *Builder {
	b := &Builder{position: plotID}
	if plotID < 0 || plotID > address.MaxPosition {
		b.err = fmt.Errorf("plot %d: %w", plotID, address.ErrPositionRange)
	}
	return b
}

func (b *Builder) base(top address.TopLevel, accent *int) (container, bool) {
	if b.err != nil {
		return container{}, false
	}
	addr, err := address.Pack(top, address.SubNone, b.position)
	if err != nil {
		b.err = err
		return container{}, false
	}
	c := container{addr: addr}
	if accent != nil {
		color := *accent
		c.accent = &color
	}
	return c, true
}

// Info adds the info container.
func (b *Builder) Info(spec InfoSpec) *Builder {
	c, ok := b.base(address.TopInfo, spec.Accent)
	if !ok {
		return b
	}
	info := &Info{
		container: c,
		details:   spec.Details,
		thumbnail: spec.ThumbnailURL,
		history:   append([]string(nil), spec.History...),
	}
	info.slots = []slot{{sub: address.SubInfoDetails}, {sub: address.SubInfoHistory}}
	for _, name := range spec.Attachments {
		info.AddAttachment(name)
	}
	b.nodes = append(b.nodes, info)
	return b
}

// Status adds the status container.
func (b *Builder) Status(spec StatusSpec) *Builder {
	c, ok := b.base(address.TopStatus, spec.Accent)
	if !ok {
		return b
	}
	status := &Status{
		container: c,
		message:   spec.Message,
		owner:     spec.Owner,
		rows:      append([]Row(nil), spec.Rows...),
	}
	status.slots = []slot{{sub: address.SubStatusSummary}, {sub: address.SubStatusOwnerRows}}
	b.nodes = append(b.nodes, status)
	return b
}

// Showcase adds a showcase container.
func (b *Builder) Showcase(spec ShowcaseSpec) *Builder {
	c, ok := b.base(address.TopShowcase, spec.Accent)
	if !ok {
		return b
	}
	showcase := &Showcase{
		container: c,
		title:     spec.Title,
		images:    append([]string(nil), spec.Images...),
	}
	showcase.slots = []slot{{sub: address.SubShowcaseDetails}, {sub: address.SubShowcaseGallery}}
	b.nodes = append(b.nodes, showcase)
	return b
}

// Build returns the model, or the first error met while adding containers.
func (b *Builder) Build() (*Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("layout for plot %d has no containers", b.position)
	}
	return &Model{nodes: append([]Node(nil), b.nodes...)}, nil
}
