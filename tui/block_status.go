// ABOUTME: Defines BlockStatus, the display state of one code block in the progress view.
// ABOUTME: Each status has a label and an icon; StatusForEvent maps engine events onto them.
package tui

import "github.com/2389-research/imagine/imagine"

// BlockStatus represents where a block is in processing.
type BlockStatus int

const (
	BlockPending BlockStatus = iota
	BlockRunning
	BlockReplaced
	BlockUnchanged
	BlockFailed
)

func (s BlockStatus) String() string {
	switch s {
	case BlockPending:
		return "pending"
	case BlockRunning:
		return "running"
	case BlockReplaced:
		return "replaced"
	case BlockUnchanged:
		return "unchanged"
	case BlockFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Icon returns the single-character marker drawn before a block row.
func (s BlockStatus) Icon() string {
	switch s {
	case BlockRunning:
		return "◐"
	case BlockReplaced:
		return "✓"
	case BlockUnchanged:
		return "·"
	case BlockFailed:
		return "✗"
	default:
		return "○"
	}
}

// Done reports whether the block has reached a final state.
func (s BlockStatus) Done() bool {
	return s == BlockReplaced || s == BlockUnchanged || s == BlockFailed
}

// StatusForEvent maps an engine event type to a block status.
func StatusForEvent(t imagine.EventType) BlockStatus {
	switch t {
	case imagine.EventBlockStarted:
		return BlockRunning
	case imagine.EventBlockReplaced:
		return BlockReplaced
	case imagine.EventBlockUnchanged:
		return BlockUnchanged
	case imagine.EventBlockFailed:
		return BlockFailed
	default:
		return BlockPending
	}
}
