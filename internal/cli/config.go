package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/tabfit/internal/config"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or create tabfit configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		// --config names the file to create, so it is not read first
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(config.Default())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.WithHint(errors.Newf("config file %s already exists", path), "pass --force to overwrite it")
			}
			written, err := config.Save(config.Default(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %s\n", written)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := yaml.Marshal(a.cfg)
			if err != nil {
				return errors.Wrap(err, "marshal yaml")
			}
			_, err = a.out.Write(b)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
