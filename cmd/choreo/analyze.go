package main

import (
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/choreo/internal/api"
)

func newAnalyzeCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [poses.json]",
		Short: "Run every analysis stage and print a JSON report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, pipeline, err := opts.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			report, err := pipeline.Run(doc.Frames)
			if err != nil {
				return err
			}
			data, err := sonic.Marshal(api.NewAnalyzeResponse(report))
			if err != nil {
				return err
			}
			return opts.writeOutput(data)
		},
	}
	addInputFlags(cmd, opts)
	return cmd
}
