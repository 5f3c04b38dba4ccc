// ABOUTME: Root cobra command: the pandoc JSON filter, reading the AST on stdin and writing it to stdout.
// ABOUTME: Registers the render, serve, mcp, handlers, ledger and version subcommands.
package main

import (
	"fmt"
	"io"

	"github.com/2389-research/imagine/render"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the imagine command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "imagine [FORMAT]",
		Short: "imagine - pandoc filter that renders code blocks with external tools",
		Long: `imagine reads a pandoc JSON AST on stdin, replaces the code blocks whose
class names a known tool (dot, plantuml, mermaid, figlet, ...) with the tool's
output and writes the AST to stdout. pandoc passes the target format as the
first argument:

  pandoc --filter imagine -o doc.html doc.md`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := ""
			if len(args) == 1 {
				format = args[0]
			}
			return withApp(cmd, g, func(a *app) error {
				return runFilter(cmd, a, format)
			})
		},
	}
	g.register(root.PersistentFlags())

	root.AddCommand(newRenderCmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newMCPCmd(g))
	root.AddCommand(newHandlersCmd(g))
	root.AddCommand(newLedgerCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

// withApp resolves the configuration, wires an app and runs fn with it.
func withApp(cmd *cobra.Command, g *globalFlags, fn func(*app) error) error {
	cfg, err := loadConfig(g, cmd.Flags())
	if err != nil {
		return err
	}
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func runFilter(cmd *cobra.Command, a *app, format string) error {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	res, err := a.renderer.Render(cmd.Context(), src, render.Options{Mode: render.ModePandoc, Format: format})
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(res.Output)
	return err
}
