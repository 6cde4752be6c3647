package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-2048/internal/core"
)

// KeyMapper translates Bubble Tea key messages to game actions.
// This centralizes key bindings and makes them testable.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to an action.
// Returns the action (may be ActionNone) and whether it's a quit request.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return core.ActionQuit, true
	case "w", "up", "k":
		return core.ActionUp, false
	case "s", "down", "j":
		return core.ActionDown, false
	case "a", "left", "h":
		return core.ActionLeft, false
	case "d", "right", "l":
		return core.ActionRight, false
	case "enter":
		return core.ActionConfirm, false
	case "b", "esc":
		return core.ActionBack, false
	case "p", " ":
		return core.ActionPause, false
	case "r", "n":
		return core.ActionRestart, false
	}

	return core.ActionNone, false
}

// MapKeyToFrame updates an input frame based on a key message.
// Returns true if the key was a quit request.
func (km *KeyMapper) MapKeyToFrame(msg tea.KeyMsg, frame *core.InputFrame) bool {
	action, isQuit := km.MapKey(msg)
	if action != core.ActionNone {
		frame.Set(action)
	}
	return isQuit
}

// MouseMapper turns left-button drags into swipe actions.
// Terminal cells are converted to gesture units so one threshold works for
// both axes even though cells are taller than they are wide.
type MouseMapper struct {
	gesture        *core.Gesture
	unitsPerColumn int
	unitsPerRow    int
}

// NewMouseMapper creates a mouse mapper. Non-positive scales default to 1.
func NewMouseMapper(threshold, unitsPerColumn, unitsPerRow int) *MouseMapper {
	return &MouseMapper{
		gesture:        core.NewGesture(threshold),
		unitsPerColumn: max(unitsPerColumn, 1),
		unitsPerRow:    max(unitsPerRow, 1),
	}
}

func (mm *MouseMapper) point(msg tea.MouseMsg) core.Point {
	return core.Point{X: msg.X * mm.unitsPerColumn, Y: msg.Y * mm.unitsPerRow}
}

// MapMouse feeds a mouse event to the gesture tracker and returns the swipe
// completed by it, if any.
func (mm *MouseMapper) MapMouse(msg tea.MouseMsg) (core.Action, bool) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			mm.gesture.Press(mm.point(msg))
		}
	case tea.MouseActionRelease:
		return mm.gesture.Release(mm.point(msg))
	}
	return core.ActionNone, false
}

// Cancel drops a drag in progress, so a release after a layout change or
// after leaving the board does not turn into a swipe.
func (mm *MouseMapper) Cancel() {
	mm.gesture.Cancel()
}
