// ABOUTME: Bubble Tea message types used in the render progress loop.
// ABOUTME: Each type wraps an engine event or the final render outcome for the tea.Msg interface.
package tui

import (
	"github.com/2389-research/imagine/imagine"
	"github.com/2389-research/imagine/render"
)

// EngineEventMsg wraps an imagine.Event for the Bubble Tea message loop.
type EngineEventMsg struct {
	Event imagine.Event
}

// RenderResultMsg signals that the document has finished rendering.
type RenderResultMsg struct {
	Result *render.Result
	Err    error
}
