// ABOUTME: StreamModel is an inline Bubble Tea model that streams code block progress to the terminal.
// ABOUTME: Shows one row per block with handler, status, output path and timing, plus a summary line.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/imagine/imagine"
	"github.com/2389-research/imagine/render"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// blockRow is the display state of one processed block.
type blockRow struct {
	seq     int
	label   string
	status  BlockStatus
	detail  string
	started time.Time
	elapsed time.Duration
}

// StreamModel renders document progress inline, without the alt screen.
type StreamModel struct {
	renderer *render.Renderer
	src      []byte
	opts     render.Options
	name     string
	ctx      context.Context
	cancel   context.CancelFunc

	rows  []blockRow
	index map[int]int // event Seq -> position in rows

	spinner  spinner.Model
	start    time.Time
	done     bool
	err      error
	result   *render.Result
	resultCh chan RenderResultMsg

	width int
}

// NewStreamModel creates a StreamModel that renders src when started. name
// labels the header, typically the input file name.
func NewStreamModel(ctx context.Context, renderer *render.Renderer, src []byte, opts render.Options, name string) *StreamModel {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = RunningStyle

	return &StreamModel{
		renderer: renderer,
		src:      src,
		opts:     opts,
		name:     name,
		ctx:      ctx,
		cancel:   cancel,
		index:    make(map[int]int),
		spinner:  s,
		start:    time.Now(),
		resultCh: make(chan RenderResultMsg, 1),
	}
}

// ResultCh receives the render result once the program exits. Read it after
// tea.Program.Run returns.
func (m *StreamModel) ResultCh() <-chan RenderResultMsg {
	return m.resultCh
}

// Init implements tea.Model.
func (m *StreamModel) Init() tea.Cmd {
	return tea.Batch(
		RunRenderCmd(m.ctx, m.renderer, m.src, m.opts),
		m.spinner.Tick,
	)
}

// Update implements tea.Model.
func (m *StreamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case EngineEventMsg:
		m.handleEngineEvent(msg.Event)
		return m, nil

	case RenderResultMsg:
		m.done = true
		m.err = msg.Err
		m.result = msg.Result
		m.cancel()
		select {
		case m.resultCh <- msg:
		default:
		}
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *StreamModel) handleEngineEvent(evt imagine.Event) {
	pos, ok := m.index[evt.Seq]
	if !ok {
		label := evt.Handler
		if evt.Codec != "" {
			label = fmt.Sprintf("%s (%s)", evt.Handler, evt.Codec)
		}
		m.rows = append(m.rows, blockRow{seq: evt.Seq, label: label, started: evt.Timestamp})
		pos = len(m.rows) - 1
		m.index[evt.Seq] = pos
	}

	row := &m.rows[pos]
	row.status = StatusForEvent(evt.Type)
	if row.status.Done() && !row.started.IsZero() {
		row.elapsed = evt.Timestamp.Sub(row.started)
	}
	switch evt.Type {
	case imagine.EventBlockReplaced:
		if src, ok := evt.Data["src"].(string); ok {
			row.detail = src
		} else if kind, ok := evt.Data["kind"].(string); ok {
			row.detail = kind + " output"
		}
	case imagine.EventBlockFailed:
		if msg, ok := evt.Data["error"].(string); ok {
			row.detail = msg
		}
	}
}

// View implements tea.Model.
func (m *StreamModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("imagine"))
	if m.name != "" {
		b.WriteString(" " + m.name)
	}
	b.WriteString("\n\n")

	for _, row := range m.rows {
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
	}
	if len(m.rows) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(m.renderProgressLine())
	b.WriteString("\n")
	return b.String()
}

func (m *StreamModel) renderRow(row blockRow) string {
	style := StyleForStatus(row.status)
	icon := row.status.Icon()
	if row.status == BlockRunning {
		icon = m.spinner.View()
	}
	line := style.Render(fmt.Sprintf("  %s #%d %s", icon, row.seq, row.label))

	var extra []string
	if row.detail != "" {
		extra = append(extra, row.detail)
	}
	if row.status.Done() {
		extra = append(extra, formatDuration(row.elapsed))
	}
	if len(extra) > 0 {
		line += DetailStyle.Render("  " + strings.Join(extra, " · "))
	}
	return line
}

func (m *StreamModel) renderProgressLine() string {
	finished, failed := 0, 0
	for _, row := range m.rows {
		if row.status.Done() {
			finished++
		}
		if row.status == BlockFailed {
			failed++
		}
	}
	elapsed := formatDuration(time.Since(m.start))

	if !m.done {
		return PendingStyle.Render(fmt.Sprintf("  %d/%d blocks · %s elapsed", finished, len(m.rows), elapsed))
	}
	if m.err != nil {
		return FailedStyle.Render(fmt.Sprintf("  ✗ %d/%d blocks · %s · FAILED: %v", finished, len(m.rows), elapsed, m.err))
	}
	if m.result == nil || failed > 0 {
		return ReplacedStyle.Render(fmt.Sprintf("  ✓ %d/%d blocks · %s", finished, len(m.rows), elapsed))
	}
	return ReplacedStyle.Render(fmt.Sprintf("  ✓ %d blocks · %d replaced · %d unchanged · %s",
		m.result.Blocks, m.result.Replaced, m.result.Unchanged, elapsed))
}

// formatDuration renders d compactly: "850ms", "3.2s", "1m05s".
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", m, s)
	}
}
