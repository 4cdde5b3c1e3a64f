package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/alightgoesout/presage/cli/config"
	"github.com/alightgoesout/presage/cli/styles"
	"github.com/alightgoesout/presage/cli/ui"
	"github.com/alightgoesout/presage/codec/msgpack"
)

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var (
		name           string
		codec          string
		metrics        bool
		tracing        bool
		nonInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a presage.yaml configuration file",
		Long: `Create a presage.yaml configuration file with commented defaults.

Examples:
  presage init                       # Initialize in current directory
  presage init services/tasks        # Initialize in another directory
  presage init --codec=msgpack --non-interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			if config.Exists(absDir) {
				fmt.Fprintln(out, styles.FormatWarning(config.ConfigFileName+" already exists in this directory"))
				return nil
			}

			cfg := config.DefaultConfig()
			cfg.Service.Name = filepath.Base(absDir)
			if name != "" {
				cfg.Service.Name = name
			}
			if codec != "" {
				cfg.Dispatch.Codec = codec
			}
			cfg.Metrics.Enabled = metrics
			cfg.Tracing.Enabled = tracing

			if !nonInteractive {
				fmt.Fprintln(out, ui.SimpleBanner())
				fmt.Fprintln(out)

				form := huh.NewForm(
					huh.NewGroup(
						huh.NewInput().
							Title("Service name").
							Description("Used in metric labels and span attributes").
							Value(&cfg.Service.Name),
						huh.NewSelect[string]().
							Title("Event codec").
							Options(
								huh.NewOption("JSON", "json"),
								huh.NewOption("MessagePack (compact)", msgpack.Name),
							).
							Value(&cfg.Dispatch.Codec),
					),
					huh.NewGroup(
						huh.NewConfirm().
							Title("Expose Prometheus metrics?").
							Value(&cfg.Metrics.Enabled),
						huh.NewConfirm().
							Title("Export OpenTelemetry spans to stdout?").
							Value(&cfg.Tracing.Enabled),
					),
				).WithTheme(huh.ThemeDracula())

				if err := form.Run(); err != nil {
					return err
				}
			}

			if problems := cfg.Validate(); len(problems) > 0 {
				return fmt.Errorf("invalid configuration: %s", problems[0])
			}

			if err := os.MkdirAll(absDir, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

			path := filepath.Join(absDir, config.ConfigFileName)
			if err := os.WriteFile(path, []byte(config.GenerateYAML(cfg)), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", config.ConfigFileName, err)
			}

			fmt.Fprintln(out, styles.FormatSuccess("Created "+path))
			fmt.Fprintln(out)
			fmt.Fprintln(out, styles.FormatKeyValue("Service", cfg.Service.Name))
			fmt.Fprintln(out, styles.FormatKeyValue("Codec", cfg.Dispatch.Codec))
			fmt.Fprintln(out, styles.FormatKeyValue("Metrics", fmt.Sprint(cfg.Metrics.Enabled)))
			fmt.Fprintln(out, styles.FormatKeyValue("Tracing", fmt.Sprint(cfg.Tracing.Enabled)))

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Service name (default: directory name)")
	cmd.Flags().StringVar(&codec, "codec", "", "Event codec (json, msgpack)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Enable Prometheus metrics")
	cmd.Flags().BoolVar(&tracing, "tracing", false, "Enable OpenTelemetry tracing")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Skip the interactive form")

	return cmd
}
