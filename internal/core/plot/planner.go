package plot

import (
	"strings"

	"github.com/example/plotsync/internal/core/address"
)

const maxThreadNameRunes = 100

// ThreadEditContext provides the inputs for planning a thread metadata edit.
type ThreadEditContext struct {
	Event              EventKind
	TagID              string // remote tag of the target status
	CurrentName        string // current thread name, used for the archive rename
	ArchivePrefix      string
	AutoArchiveMinutes int
}

// ThreadEditPlan is the set of thread fields to change. Nil/zero fields are left untouched.
type ThreadEditPlan struct {
	Name               *string
	AppliedTags        []string
	AutoArchiveMinutes int
}

// PlanThreadEdit decides how a thread's metadata changes for an event.
// Rules:
// - The applied tags become exactly the target status tag
// - An archive event also prefixes the name (once) and sets the auto-archive timer
func PlanThreadEdit(ctx ThreadEditContext) ThreadEditPlan {
	plan := ThreadEditPlan{}
	if ctx.TagID != "" {
		plan.AppliedTags = []string{ctx.TagID}
	}
	if ctx.Event != EventArchive {
		return plan
	}

	prefix := ctx.ArchivePrefix
	if prefix == "" {
		prefix = "[Archived] "
	}
	if ctx.CurrentName != "" && !strings.HasPrefix(ctx.CurrentName, prefix) {
		name := prefix + ctx.CurrentName
		if runes := []rune(name); len(runes) > maxThreadNameRunes {
			name = string(runes[:maxThreadNameRunes])
		}
		plan.Name = &name
	}
	plan.AutoArchiveMinutes = ctx.AutoArchiveMinutes
	if plan.AutoArchiveMinutes <= 0 {
		plan.AutoArchiveMinutes = 60
	}
	return plan
}

// ButtonStyle mirrors the remote service's button styles.
type ButtonStyle int

const (
	ButtonPrimary   ButtonStyle = 1
	ButtonSecondary ButtonStyle = 2
	ButtonSuccess   ButtonStyle = 3
	ButtonDanger    ButtonStyle = 4
	ButtonLink      ButtonStyle = 5
)

// Button is one interactive element of the status message row.
// Address is zero for buttons the engine did not create.
type Button struct {
	Address  address.Address
	CustomID string
	Label    string
	Style    ButtonStyle
	URL      string
	Disabled bool
}

// Sub returns the decoded sub-component of an engine-owned button.
func (b Button) Sub() address.SubLevel {
	if b.Address == 0 || b.Address.TopLevel() != address.TopButton {
		return address.SubNone
	}
	return b.Address.SubLevel()
}

var buttonLabels = map[address.SubLevel]struct {
	label string
	style ButtonStyle
}{
	address.SubButtonHelp:     {"Help", ButtonSecondary},
	address.SubButtonFeedback: {"Feedback", ButtonPrimary},
	address.SubButtonPlotLink: {"Location", ButtonSecondary},
}

// NewButton builds an engine-owned button for a plot.
func NewButton(sub address.SubLevel, plotID int) (Button, error) {
	addr, err := address.Pack(address.TopButton, sub, plotID)
	if err != nil {
		return Button{}, err
	}
	spec := buttonLabels[sub]
	return Button{
		Address:  addr,
		CustomID: addr.CustomID(),
		Label:    spec.label,
		Style:    spec.style,
	}, nil
}

// DefaultButtons returns the row posted with a new status message.
func DefaultButtons(plotID int) ([]Button, error) {
	var buttons []Button
	for _, sub := range []address.SubLevel{address.SubButtonHelp, address.SubButtonPlotLink} {
		b, err := NewButton(sub, plotID)
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, b)
	}
	return buttons, nil
}

// RowPlan describes how the button row changes for an event.
type RowPlan struct {
	DisableAll bool
	Remove     []address.SubLevel
	Ensure     []address.SubLevel
}

// Empty reports whether the plan changes nothing.
func (p RowPlan) Empty() bool {
	return !p.DisableAll && len(p.Remove) == 0 && len(p.Ensure) == 0
}

// PlanButtonRow decides which interactive elements change for an event.
// Rules:
// - Closing events (abandon, archive) disable every button
// - Undoing a review removes only the feedback button
// - Review and feedback events make sure the feedback button exists
func PlanButtonRow(event EventKind) RowPlan {
	switch {
	case event.Closes():
		return RowPlan{DisableAll: true}
	case event == EventUndoReview:
		return RowPlan{Remove: []address.SubLevel{address.SubButtonFeedback}}
	case event == EventApprove, event == EventReject, event == EventFeedback:
		return RowPlan{Ensure: []address.SubLevel{address.SubButtonFeedback}}
	default:
		return RowPlan{}
	}
}

// ApplyRowPlan returns the new button row. Buttons the engine does not own are kept
// unless every button is disabled.
func ApplyRowPlan(buttons []Button, plan RowPlan, plotID int) ([]Button, error) {
	removed := make(map[address.SubLevel]bool, len(plan.Remove))
	for _, sub := range plan.Remove {
		removed[sub] = true
	}

	present := make(map[address.SubLevel]bool)
	next := make([]Button, 0, len(buttons)+len(plan.Ensure))
	for _, b := range buttons {
		sub := b.Sub()
		if sub != address.SubNone && removed[sub] {
			continue
		}
		if plan.DisableAll {
			b.Disabled = true
		}
		present[sub] = true
		next = append(next, b)
	}

	if plan.DisableAll {
		return next, nil
	}
	for _, sub := range plan.Ensure {
		if present[sub] {
			continue
		}
		b, err := NewButton(sub, plotID)
		if err != nil {
			return nil, err
		}
		next = append(next, b)
	}
	return next, nil
}
