package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sparkmark/sparkmark/internal/batch"
)

var addCmd = &cobra.Command{
	Use:   "add [files or directories...]",
	Short: "Composite the spark watermark onto images",
	Long: `Add composites the watermark into the bottom-right corner exactly the
way the original service does, picking the 48x48 or 96x96 variant from
the image dimensions. Useful for producing test material and for
verifying that removal reconstructs the input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(batch.ModeAdd, "add", args, false, 0)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	registerProcessFlags(addCmd, "add")
}
