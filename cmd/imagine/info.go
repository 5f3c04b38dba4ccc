// ABOUTME: Informational subcommands: handlers, ledger recent/stats and version.
// ABOUTME: Output is plain text aligned with tabwriter, suitable for terminals and pipes.
package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/2389-research/imagine/imagine"
	"github.com/2389-research/imagine/ledger"
	"github.com/spf13/cobra"
)

func newHandlersCmd(g *globalFlags) *cobra.Command {
	var usage bool
	cmd := &cobra.Command{
		Use:   "handlers",
		Short: "List the registered handlers, their codecs and programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g, cmd.Flags())
			if err != nil {
				return err
			}
			reg := imagine.DefaultRegistry()
			if len(cfg.programs) > 0 {
				if reg, err = reg.WithPrograms(cfg.programs); err != nil {
					return err
				}
			}
			if usage {
				fmt.Fprint(cmd.OutOrStdout(), imagine.HelpText(reg))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HANDLER\tCODEC\tPROGRAM")
			for _, d := range reg.Descriptors() {
				codecs := make([]string, 0, len(d.Codecs))
				for codec := range d.Codecs {
					codecs = append(codecs, codec)
				}
				sort.Strings(codecs)
				for _, codec := range codecs {
					prog, _ := reg.Program(codec)
					fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, codec, prog)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&usage, "usage", false, "print the usage text of the imagine codec instead")
	return cmd
}

func newLedgerCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the record of external tool invocations",
	}

	var limit int
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, g, func(l *ledger.Ledger) error {
				entries, err := l.Recent(limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STARTED\tPROGRAM\tRESULT\tDURATION\tOUTPUT")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						e.StartedAt.Local().Format(time.DateTime),
						strings.TrimSpace(e.Program+" "+strings.Join(e.Args, " ")),
						entryResult(e),
						e.Duration.Round(time.Millisecond),
						e.Output,
					)
				}
				return tw.Flush()
			})
		},
	}
	recent.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize invocations per program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, g, func(l *ledger.Ledger) error {
				s, err := l.Stats()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PROGRAM\tRUNS\tCACHED\tFAILED")
				for _, p := range s.Programs {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", p.Program, p.Runs, p.CacheHits, p.Failures)
				}
				fmt.Fprintf(tw, "total\t%d\t%d\t%d\n", s.Total, s.CacheHits, s.Failures)
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(recent, stats)
	return cmd
}

func withLedger(cmd *cobra.Command, g *globalFlags, fn func(*ledger.Ledger) error) error {
	cfg, err := loadConfig(g, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.ledger == "" {
		return fmt.Errorf("the ledger is disabled")
	}
	l, err := ledger.Open(cfg.ledger)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(l)
}

func entryResult(e ledger.Entry) string {
	switch {
	case e.CacheHit:
		return "cached"
	case e.Succeeded:
		return "ok"
	default:
		return fmt.Sprintf("failed (%d)", e.ExitCode)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "imagine %s\n", version)
		},
	}
}
