package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sparkmark",
	Short: "Remove, add and detect generative-AI spark watermarks",
	Long: `sparkmark reverses the alpha-blended spark watermark that image
generation services stamp into the bottom-right corner of their output.

The watermark is composited at a known opacity map, size and position, which
makes the blend exactly invertible: removal reconstructs the original pixels
instead of inpainting over them. A statistical detector decides per image
whether the watermark is actually present before touching anything.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().String("bg-small", "", "Override the embedded 48x48 reference capture with a PNG file")
	rootCmd.PersistentFlags().String("bg-large", "", "Override the embedded 96x96 reference capture with a PNG file")
	rootCmd.PersistentFlags().Float64("logo-value", 255, "Foreground intensity of the watermark logo (0-255)")

	bindFlags := []string{"verbose", "quiet", "bg-small", "bg-large", "logo-value"}
	for _, name := range bindFlags {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SPARKMARK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
