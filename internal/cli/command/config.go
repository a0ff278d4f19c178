// Package command defines the lsmdb process surface using urfave/cli/v2.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/niebayes/LSM-Tree/internal/cli/config"
	"github.com/niebayes/LSM-Tree/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration inspection",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
		},
	}
}

// configShow prints the merged configuration as YAML, or JSON with -o json.
func configShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	format := output.FormatYAML
	if output.ParseFormat(c.String("output")) == output.FormatJSON {
		format = output.FormatJSON
	}
	return output.NewFormatter(format).Format(c.App.Writer, cfg)
}

// configValidate checks the file named by the argument or --config.
func configValidate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = c.String("config")
	}
	if path == "" {
		return fmt.Errorf("configuration file path required")
	}

	if _, err := config.Load(path, nil); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "configuration is valid: %s\n", path)
	return nil
}
