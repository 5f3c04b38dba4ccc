// ABOUTME: Bridge connecting the imagine engine to the Bubble Tea message loop.
// ABOUTME: Provides EventBridge for event injection and the tea.Cmd that runs a render.
package tui

import (
	"context"

	"github.com/2389-research/imagine/imagine"
	"github.com/2389-research/imagine/render"
	tea "github.com/charmbracelet/bubbletea"
)

// EventBridge wraps a tea.Program's Send method for injecting engine events
// into the Bubble Tea message loop.
type EventBridge struct {
	send func(msg tea.Msg)
}

// NewEventBridge creates an EventBridge that sends messages via the given function.
// Typically called with program.Send as the argument.
func NewEventBridge(send func(msg tea.Msg)) *EventBridge {
	return &EventBridge{send: send}
}

// HandleEvent matches the imagine.EngineConfig.EventHandler signature.
func (b *EventBridge) HandleEvent(evt imagine.Event) {
	b.send(EngineEventMsg{Event: evt})
}

// RunRenderCmd returns a tea.Cmd that renders src and reports a RenderResultMsg.
// The context allows cancellation when the user quits the TUI.
func RunRenderCmd(ctx context.Context, renderer *render.Renderer, src []byte, opts render.Options) tea.Cmd {
	return func() tea.Msg {
		res, err := renderer.Render(ctx, src, opts)
		return RenderResultMsg{Result: res, Err: err}
	}
}
