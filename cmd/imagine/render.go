// ABOUTME: The render subcommand: filters a Markdown or pandoc JSON file outside of pandoc.
// ABOUTME: Supports HTML output, an output file and an inline progress display on stderr.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/2389-research/imagine/render"
	"github.com/2389-research/imagine/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type renderFlags struct {
	format   string
	mode     string
	html     bool
	output   string
	progress bool
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [FILE]",
		Short: "Render the code blocks of a Markdown or pandoc JSON document",
		Long: `render rewrites every code block of FILE (stdin when FILE is "-" or
missing). Markdown documents keep their text byte for byte outside the
replaced blocks; pandoc JSON documents are filtered like the root command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := render.ParseMode(f.mode)
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			src, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			opts := render.Options{Mode: mode, Format: f.format, HTML: f.html}

			return withApp(cmd, g, func(a *app) error {
				var res *render.Result
				if f.progress {
					res, err = renderWithProgress(cmd, a, src, opts, path)
				} else {
					res, err = a.renderer.Render(cmd.Context(), src, opts)
				}
				if err != nil {
					return err
				}
				a.log.Named("Render").Verbosef("%d blocks, %d replaced, %d unchanged", res.Blocks, res.Replaced, res.Unchanged)
				return writeOutput(cmd, f.output, res.Output)
			})
		},
	}
	cmd.Flags().StringVarP(&f.format, "to", "t", "", "target format (html, latex, docx, ...)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "document kind: markdown or pandoc (default: detected)")
	cmd.Flags().BoolVar(&f.html, "html", false, "convert Markdown output to an HTML fragment")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "show per-block progress on stderr")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return src, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// renderWithProgress runs the render inside an inline Bubble Tea program
// drawing on stderr, with engine events bridged into the model.
func renderWithProgress(cmd *cobra.Command, a *app, src []byte, opts render.Options, name string) (*render.Result, error) {
	model := tui.NewStreamModel(cmd.Context(), a.renderer, src, opts, name)
	p := tea.NewProgram(model, tea.WithOutput(cmd.ErrOrStderr()), tea.WithInput(nil), tea.WithContext(cmd.Context()))

	bridge := tui.NewEventBridge(p.Send)
	a.engine.SetEventHandler(bridge.HandleEvent)
	defer a.engine.SetEventHandler(nil)

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("progress display: %w", err)
	}

	select {
	case msg := <-model.ResultCh():
		return msg.Result, msg.Err
	default:
		return nil, fmt.Errorf("render interrupted")
	}
}
