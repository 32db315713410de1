package main

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/choreo/internal/analysis"
	"github.com/tensorplex-labs/choreo/internal/api"
)

func newSimilarityCmd(opts *Options) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "similarity [poses.json]",
		Short: "Compute the frame-by-frame pose similarity matrix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, pipeline, err := opts.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			if !quiet {
				bar := progressbar.NewOptions(len(doc.Frames),
					progressbar.OptionSetDescription("Comparing frames"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)
				analysis.WithProgress(bar)(pipeline)
			}

			matrix := pipeline.SimilarityMatrix(doc.Frames)
			data, err := sonic.Marshal(api.SimilarityResponse{Matrix: api.MatrixFromDense(matrix)})
			if err != nil {
				return err
			}
			return opts.writeOutput(data)
		},
	}
	addInputFlags(cmd, opts)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}
