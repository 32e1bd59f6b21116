// Package address packs the location of a message sub-component into a single
// 32-bit identifier. The identifier is used as the numeric id of layout
// containers and as the custom id of buttons, so an incoming interaction can
// be routed by decoding its id alone.
// This is part of the Functional Core - no I/O, only pure functions.
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Layout of a packed address:
//
//	bits  0-15  position  (0..65535, usually the plot id)
//	bits 16-23  top level (component ordinal)
//	bits 24-31  sub level (sub-component ordinal + 1, 0 = none)
const (
	MaxPosition = 0xFFFF

	topShift = 16
	subShift = 24
)

var (
	// ErrPositionRange is returned when a position does not fit in 16 bits.
	ErrPositionRange = errors.New("position out of range")

	// ErrSubLevelFamily is returned when a sub-component does not belong to the given top level.
	ErrSubLevelFamily = errors.New("sub-component does not belong to top-level component")
)

// TopLevel identifies a top-level component the engine owns.
type TopLevel uint8

const (
	TopInfo     TopLevel = iota // layout container with plot details and history
	TopStatus                   // layout container with status and claim owner
	TopShowcase                 // layout container posted when a plot is showcased
	TopButton                   // interactive element on the status message

	// TopUnknown is returned when a decoded ordinal is outside the known set.
	TopUnknown TopLevel = 0xFF
)

var topLevelNames = map[TopLevel]string{
	TopInfo:     "info",
	TopStatus:   "status",
	TopShowcase: "showcase",
	TopButton:   "button",
}

// Known reports whether t is one of the declared top levels.
func (t TopLevel) Known() bool {
	_, ok := topLevelNames[t]
	return ok
}

func (t TopLevel) String() string {
	if name, ok := topLevelNames[t]; ok {
		return name
	}
	return "unknown"
}

// SubLevel identifies a sub-component. The zero value means "no sub-component";
// declared sub-components start at 1 so the stored value is ordinal+1.
type SubLevel uint8

const (
	SubNone SubLevel = iota

	SubInfoDetails
	SubInfoHistory
	SubInfoGallery

	SubStatusSummary
	SubStatusOwnerRows

	SubShowcaseDetails
	SubShowcaseGallery

	SubButtonHelp
	SubButtonFeedback
	SubButtonPlotLink
)

type subLevelInfo struct {
	name  string
	owner TopLevel
}

var subLevels = map[SubLevel]subLevelInfo{
	SubInfoDetails:     {"info.details", TopInfo},
	SubInfoHistory:     {"info.history", TopInfo},
	SubInfoGallery:     {"info.gallery", TopInfo},
	SubStatusSummary:   {"status.summary", TopStatus},
	SubStatusOwnerRows: {"status.owner_rows", TopStatus},
	SubShowcaseDetails: {"showcase.details", TopShowcase},
	SubShowcaseGallery: {"showcase.gallery", TopShowcase},
	SubButtonHelp:      {"button.help", TopButton},
	SubButtonFeedback:  {"button.feedback", TopButton},
	SubButtonPlotLink:  {"button.plot_link", TopButton},
}

// Owner returns the top level a sub-component belongs to, and false for
// SubNone or undeclared values.
func (s SubLevel) Owner() (TopLevel, bool) {
	info, ok := subLevels[s]
	if !ok {
		return TopUnknown, false
	}
	return info.owner, true
}

func (s SubLevel) String() string {
	if s == SubNone {
		return "none"
	}
	if info, ok := subLevels[s]; ok {
		return info.name
	}
	return fmt.Sprintf("sub(%d)", uint8(s))
}

// Address is a packed (top level, sub level, position) triple.
type Address uint32

// Encode packs raw ordinals without checking sub-component ownership.
// Only the position range is validated.
func Encode(top, sub uint8, position int) (Address, error) {
	if position < 0 || position > MaxPosition {
		return 0, fmt.Errorf("%w: %d (max %d)", ErrPositionRange, position, MaxPosition)
	}
	return Address(uint32(position) | uint32(top)<<topShift | uint32(sub)<<subShift), nil
}

// Pack packs a typed triple. sub must be SubNone or a sub-component owned by top.
func Pack(top TopLevel, sub SubLevel, position int) (Address, error) {
	if sub != SubNone {
		owner, ok := sub.Owner()
		if !ok || owner != top {
			return 0, fmt.Errorf("%w: %s is not part of %s", ErrSubLevelFamily, sub, top)
		}
	}
	return Encode(uint8(top), uint8(sub), position)
}

// MustPack is Pack for compile-time constant inputs. It panics on error.
func MustPack(top TopLevel, sub SubLevel, position int) Address {
	addr, err := Pack(top, sub, position)
	if err != nil {
		panic(err)
	}
	return addr
}

// Position returns the 16-bit position.
func (a Address) Position() int {
	return int(uint32(a) & MaxPosition)
}

// RawTopLevel returns the stored top-level ordinal without interpretation.
func (a Address) RawTopLevel() uint8 {
	return uint8(uint32(a) >> topShift)
}

// TopLevel returns the decoded top level, or TopUnknown if the ordinal is not declared.
func (a Address) TopLevel() TopLevel {
	top := TopLevel(a.RawTopLevel())
	if !top.Known() {
		return TopUnknown
	}
	return top
}

// SubLevel returns the stored sub level. Callers decide whether it is recognized.
func (a Address) SubLevel() SubLevel {
	return SubLevel(uint8(uint32(a) >> subShift))
}

// Recognized reports whether the decoded triple names a declared top level
// and, when present, a sub-component owned by it.
func (a Address) Recognized() bool {
	top := a.TopLevel()
	if top == TopUnknown {
		return false
	}
	sub := a.SubLevel()
	if sub == SubNone {
		return true
	}
	owner, ok := sub.Owner()
	return ok && owner == top
}

// WithSub returns the address of a sibling sub-component at the same position.
func (a Address) WithSub(sub SubLevel) (Address, error) {
	top := a.TopLevel()
	if top == TopUnknown {
		return 0, fmt.Errorf("%w: cannot derive sub-component of unknown top level %d", ErrSubLevelFamily, a.RawTopLevel())
	}
	return Pack(top, sub, a.Position())
}

// CustomID returns the string form used as a remote component custom id.
func (a Address) CustomID() string {
	return strconv.FormatUint(uint64(a), 10)
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%s@%d", TopLevel(a.RawTopLevel()), a.SubLevel(), a.Position())
}

// ParseCustomID decodes a custom id produced by CustomID.
func ParseCustomID(customID string) (Address, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(customID), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid component custom id %q: %w", customID, err)
	}
	return Address(value), nil
}
