package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/execgraph/internal/config"
	"github.com/gyaneshwarpardhi/execgraph/internal/engine"
	"github.com/gyaneshwarpardhi/execgraph/internal/graph"
	"github.com/gyaneshwarpardhi/execgraph/internal/pipeline"
	"github.com/gyaneshwarpardhi/execgraph/internal/status"
)

type options struct {
	configPath string
	indent     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "execgraph",
		Short:        "Turn orchestration graphs into execution pipeline trees",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config with icon overrides")
	root.PersistentFlags().BoolVar(&opts.indent, "indent", false, "Pretty-print JSON output")

	root.AddCommand(newTransformCmd(opts), newCountCmd(opts))
	return root
}

func newTransformCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "transform [file|-]",
		Short: "Print the execution pipeline for a graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, g, err := prepare(cmd, opts, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tr.Transform(g), opts.indent)
		},
	}
}

type countOutput struct {
	Pipeline string         `json:"pipeline"`
	Stages   status.Counter `json:"stages"`
	Steps    status.Counter `json:"steps"`
}

func newCountCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count [file|-]",
		Short: "Print stage and step status counters for a graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, g, err := prepare(cmd, opts, args)
			if err != nil {
				return err
			}
			p := tr.Transform(g)
			return writeJSON(cmd.OutOrStdout(), countOutput{
				Pipeline: p.Identifier,
				Stages:   pipeline.CountByStatus(p.Items),
				Steps:    pipeline.CountSteps(p),
			}, opts.indent)
		},
	}
}

func prepare(cmd *cobra.Command, opts *options, args []string) (*pipeline.Transformer, *graph.OrchestrationGraph, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		l, err := config.NewLoader(opts.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = l.Config()
	}
	icons := pipeline.NewIconTable(cfg.Icons.Overrides, cfg.Icons.Fallback, cfg.Icons.Dependency)
	tr := engine.NewTransformer(icons, cfg.DependenciesGroup)

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("open graph: %w", err)
		}
		defer f.Close()
		in = f
	}
	g, err := graph.DecodeReader(in)
	if err != nil {
		return nil, nil, err
	}
	return tr, g, nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
