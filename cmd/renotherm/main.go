package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:          "renotherm",
		Short:        "Thermal transmittance calculator for insulation works",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFile(opts.envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(serveCmd(&opts))
	rootCmd.AddCommand(calcCmd(&opts))
	rootCmd.AddCommand(reportCmd(&opts))
	rootCmd.AddCommand(exportCmd(&opts))
	rootCmd.AddCommand(presetsCmd(&opts))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	envFile    string
}

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the configured project behind the HTTP, MQTT and Modbus controllers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts.configPath)
		},
	}
}

func calcCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "calc [project-file]",
		Short: "Compute R, U and the improvement for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd.OutOrStdout(), opts.configPath, args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func reportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report [project-file]",
		Short: "Write the PDF summary of a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDocument(opts.configPath, args, out, "pdf")
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default renotherm-<id>.pdf)")
	return cmd
}

func exportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [project-file]",
		Short: "Write the xlsx workbook of a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDocument(opts.configPath, args, out, "xlsx")
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default renotherm-<id>.xlsx)")
	return cmd
}

func presetsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the floor-type presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPresets(cmd.OutOrStdout(), opts.configPath)
		},
	}
}
