package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shimwrapper-dashboard/catalog"
	"shimwrapper-dashboard/rc"
	"shimwrapper-dashboard/runlog"
	"shimwrapper-dashboard/store"
)

var rcCmd = &cobra.Command{
	Use:   "rc",
	Short: "Work with the derived .shimwrappercheckrc file",
}

var rcWrite bool

var rcEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the RC file derived from the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.NewManager(cfg.Root, logger.Named("store"))
		snap := st.Read()
		if snap.Err != nil {
			logger.Warn("settings read with errors", zap.Error(snap.Err))
		}
		if rcWrite {
			// Write keeps the JSON snapshot and the RC file in step.
			if _, err := st.Write(snap.Settings); err != nil {
				return err
			}
			logger.Info("rc file written", zap.String("path", st.RCPath()))
			return nil
		}
		_, err := fmt.Fprint(cmd.OutOrStdout(), rc.Encode(snap.Settings))
		return err
	},
}

var rcDecodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode an RC file into settings JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := store.NewManager(cfg.Root, nil).RCPath()
		if len(args) == 1 {
			path = args[0]
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return printJSON(cmd, rc.Decode(string(text)))
	},
}

var segmentCmd = &cobra.Command{
	Use:   "segment [file]",
	Short: "Split runner output into per-check sections",
	Long: `Reads a runner log (or, without an argument, the last recorded run) and
prints a JSON object mapping check ids to their output sections.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markers := runlog.DefaultMarkers()
		if len(args) == 1 {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, runlog.Segment(string(text), markers))
		}
		lg, err := runlog.Load(cfg.Root, markers)
		if err != nil {
			return err
		}
		return printJSON(cmd, lg.Segments)
	},
}

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List the check catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tFLAG\tROLE\tBUNDLE\tDEFAULT")
		for _, c := range catalog.All() {
			bundle := c.Bundle
			if bundle == "" {
				bundle = "-"
			}
			state := "off"
			if c.Enabled {
				state = "on"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Flag, c.Role, bundle, state)
		}
		return tw.Flush()
	},
}

func init() {
	rcEncodeCmd.Flags().BoolVar(&rcWrite, "write", false, "write the RC file instead of printing it")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
