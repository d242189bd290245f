package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pipedag-dev/pipedag/pkg/config"
	"github.com/pipedag-dev/pipedag/pkg/schemavalidate"
)

const (
	configCmdUse   = "config"
	configCmdShort = "Inspect and validate pipedag configuration"

	configFileFlag  = "config"
	configFileShort = "c"
	configFileUsage = "path to a .pipedag.yaml config file (default: discovered)"
)

// NewConfigCommand creates the config subcommand and its "show" child.
func NewConfigCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   configCmdUse,
		Short: configCmdShort,
	}

	cmd.PersistentFlags().StringVarP(&configPath, configFileFlag, configFileShort, "", configFileUsage)
	cmd.AddCommand(newConfigShowCommand(&configPath))

	return cmd
}

func newConfigShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Load, validate, and print the resolved configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigShow(*configPath, os.Stdout)
		},
	}
}

func runConfigShow(configPath string, w io.Writer) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	err = schemavalidate.ValidateConfig(cfg)
	if err != nil {
		return fmt.Errorf("schema-validate config: %w", err)
	}

	encoded, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	color.New(color.FgGreen).Fprintln(w, "configuration is valid")

	_, err = w.Write(encoded)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
