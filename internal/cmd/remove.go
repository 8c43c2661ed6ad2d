package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sparkmark/sparkmark/internal/batch"
)

var removeCmd = &cobra.Command{
	Use:   "remove [files or directories...]",
	Short: "Remove the spark watermark from images",
	Long: `Remove reverses the watermark blend, reconstructing the original pixel
values in the bottom-right corner. By default a statistical detector runs
first and files without a detectable watermark are skipped untouched;
use --force to unblend unconditionally.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useDetection := !viper.GetBool("remove.force")
		return runProcess(batch.ModeRemove, "remove", args, useDetection, viper.GetFloat64("remove.threshold"))
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().BoolP("force", "f", false, "Remove without running the detector first")
	removeCmd.Flags().Float64P("threshold", "t", 0.25, "Minimum detector confidence required to process a file")
	for _, name := range []string{"force", "threshold"} {
		if err := viper.BindPFlag("remove."+name, removeCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}

	registerProcessFlags(removeCmd, "remove")
}
