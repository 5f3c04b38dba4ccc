// ABOUTME: Engine lifecycle events emitted once per processed block.
// ABOUTME: Consumers (TUI, verbose CLI) subscribe through EngineConfig.EventHandler.
package imagine

import "time"

// EventType identifies an engine event.
type EventType string

const (
	EventBlockStarted   EventType = "block.started"
	EventBlockReplaced  EventType = "block.replaced"
	EventBlockUnchanged EventType = "block.unchanged"
	EventBlockFailed    EventType = "block.failed"
)

// Event describes one step in processing a block.
type Event struct {
	Type      EventType
	Seq       int    // 1-based position of the block in this engine's lifetime
	Codec     string // matched codec, "" when dispatched to the default handler
	Handler   string
	Data      map[string]any
	Timestamp time.Time
}

func (e *Engine) emitEvent(evt Event) {
	if e.config.EventHandler == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	e.config.EventHandler(evt)
}
