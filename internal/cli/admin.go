package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-cli/internal/credential"
)

func (a *App) storeAPICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "storeapi",
		Short: "Store the OpenWeatherMap API key",
		Long:  "Store the API key for OpenWeatherMap. You are prompted for the key; it is not echoed.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := credential.ExpandHome(a.flags.apiKeyFile)
			if err != nil {
				return err
			}
			a.logger.Info("setting API key file", zap.String("path", path))

			prompt := color.New(color.FgCyan, color.Bold, color.Italic).Sprint("Please enter your API key ")
			key, err := credential.Prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
			if err != nil {
				return err
			}
			if err := credential.Store(path, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key saved to %s\n", path)
			return nil
		},
	}
}

func (a *App) logCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Print the log of the last run",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(a.cfg.LastRunLogPath())
			if err != nil {
				return fmt.Errorf("read last-run log: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), color.New(color.FgCyan).Sprint(string(data)))
			return nil
		},
	}
}

func (a *App) cityCommand() *cobra.Command {
	city := &cobra.Command{
		Use:   "city",
		Short: "Manage the table of city names and OpenWeatherMap ids",
		Long: `Manage the table that maps city names to OpenWeatherMap ids. A LOCATION
matching a stored name (ignoring case) is queried by id. Ids are listed in
http://bulk.openweathermap.org/sample/city.list.json.gz`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}

	city.AddCommand(
		&cobra.Command{
			Use:   "add NAME ID",
			Short: "Add or replace a city",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := validLocation(args[0])
				if err != nil {
					return err
				}
				table, err := a.cityTable()
				if err != nil {
					return err
				}
				if err := table.Add(name, args[1]); err != nil {
					return err
				}
				if err := table.Save(a.cfg.CitiesPath()); err != nil {
					return err
				}
				a.logger.Info("city stored", zap.String("name", name), zap.String("id", args[1]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the stored cities",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				table, err := a.cityTable()
				if err != nil {
					return err
				}
				for _, name := range table.Names() {
					id, _ := table.Lookup(name)
					fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s\n", name, id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove NAME",
			Short: "Remove a city",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				table, err := a.cityTable()
				if err != nil {
					return err
				}
				if !table.Remove(args[0]) {
					return usageErrorf("city %q is not in the table", args[0])
				}
				if err := table.Save(a.cfg.CitiesPath()); err != nil {
					return err
				}
				a.logger.Info("city removed", zap.String("name", args[0]))
				return nil
			},
		},
	)
	return city
}
