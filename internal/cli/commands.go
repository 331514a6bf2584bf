package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-cli/internal/client"
	"github.com/kjstillabower/weather-cli/internal/models"
	"github.com/kjstillabower/weather-cli/internal/report"
	"github.com/kjstillabower/weather-cli/internal/validation"
)

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		return nil
	}
}

// fetch returns the document for endpoint and location.
func (a *App) fetch(cmd *cobra.Command, endpoint client.Endpoint, location string) (json.RawMessage, error) {
	return a.weatherService().Fetch(cmd.Context(), endpoint, location)
}

func (a *App) fetchCurrent(cmd *cobra.Command, location string) (models.CurrentWeather, error) {
	var w models.CurrentWeather
	raw, err := a.fetch(cmd, client.EndpointCurrent, location)
	if err != nil {
		return w, err
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return w, fmt.Errorf("%w: decode current weather: %v", client.ErrMalformedResponse, err)
	}
	return w, nil
}

func (a *App) fetchForecast(cmd *cobra.Command, location string) (models.Forecast, error) {
	var f models.Forecast
	raw, err := a.fetch(cmd, client.EndpointForecast, location)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("%w: decode forecast: %v", client.ErrMalformedResponse, err)
	}
	return f, nil
}

// currentReport builds a command that renders the current conditions document.
func (a *App) currentReport(use, short, logMsg string, render func(location string, w models.CurrentWeather) string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " LOCATION",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := validLocation(args[0])
			if err != nil {
				return err
			}
			a.logger.Info(logMsg, zap.String("location", location))
			w, err := a.fetchCurrent(cmd, location)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(location, w))
			return nil
		},
	}
}

func (a *App) currentCommand() *cobra.Command {
	return a.currentReport("current", "Show the current weather for a location", "getting current weather", report.Current)
}

func (a *App) humidityCommand() *cobra.Command {
	return a.currentReport("humidity", "Show the current humidity for a location", "getting humidity", report.Humidity)
}

func (a *App) daylightCommand() *cobra.Command {
	return a.currentReport("daylight", "Show today's sunrise and sunset in the location's timezone", "getting sunrise and sunset", report.Daylight)
}

func (a *App) tempCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "temp LOCATION UNIT",
		Short: "Show the current temperature and today's range",
		Long: `Show the current temperature and today's range. UNIT F shows Fahrenheit;
any other unit shows Celsius. With --strict only F and C are accepted.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := validLocation(args[0])
			if err != nil {
				return err
			}
			unit, err := validation.ValidateUnit(args[1], strict)
			if err != nil {
				return fmt.Errorf("unit %q: %w", args[1], err)
			}
			a.logger.Info("getting temperature", zap.String("location", location), zap.String("unit", unit))
			w, err := a.fetchCurrent(cmd, location)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Temperature(w, unit))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject units other than F and C")
	return cmd
}

func (a *App) dumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump LOCATION",
		Short: "Show the JSON document for the current weather",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := validLocation(args[0])
			if err != nil {
				return err
			}
			a.logger.Info("getting JSON dump", zap.String("location", location))
			raw, err := a.fetch(cmd, client.EndpointCurrent, location)
			if err != nil {
				return err
			}
			out, err := report.Dump(raw)
			if err != nil {
				return fmt.Errorf("%w: %v", client.ErrMalformedResponse, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

// forecastReport builds a command that renders the forecast document.
func (a *App) forecastReport(use, short, logMsg string, render func(models.Forecast) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " LOCATION",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := validLocation(args[0])
			if err != nil {
				return err
			}
			a.logger.Info(logMsg, zap.String("location", location))
			f, err := a.fetchForecast(cmd, location)
			if err != nil {
				return err
			}
			out, err := render(f)
			if err != nil {
				return fmt.Errorf("%w: %v", client.ErrMalformedResponse, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func (a *App) forecastCommand() *cobra.Command {
	return a.forecastReport("forecast", "List the lows and highs for the next few days", "getting 5-day forecast", report.Forecast)
}

func (a *App) rainCommand() *cobra.Command {
	return a.forecastReport("howmuchrain", "Total the rain expected over the next five days", "getting 5-day rain totals", report.Rain)
}
