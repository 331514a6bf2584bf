// Package cli wires the weather command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/kjstillabower/weather-cli/internal/cache"
	"github.com/kjstillabower/weather-cli/internal/cities"
	"github.com/kjstillabower/weather-cli/internal/client"
	"github.com/kjstillabower/weather-cli/internal/config"
	"github.com/kjstillabower/weather-cli/internal/credential"
	"github.com/kjstillabower/weather-cli/internal/observability"
	"github.com/kjstillabower/weather-cli/internal/query"
	"github.com/kjstillabower/weather-cli/internal/service"
	"github.com/kjstillabower/weather-cli/internal/validation"
)

type globalFlags struct {
	apiKey     string
	apiKeyFile string
	dataDir    string
	quiet      int
	verbose    int
	noColor    bool
}

// App holds everything one invocation needs. It is populated by the root
// command's pre-run hook and torn down by Run.
type App struct {
	version string
	in      io.Reader
	out     io.Writer
	errOut  io.Writer

	flags globalFlags

	cfg       *config.Config
	logger    *zap.Logger
	closeLogs func() error
	runID     string
	cities    *cities.Table
}

// New returns an App reading from in and writing to out and errOut.
func New(version string, in io.Reader, out, errOut io.Writer) *App {
	return &App{
		version: version,
		in:      in,
		out:     out,
		errOut:  errOut,
		logger:  zap.NewNop(),
	}
}

// Run executes the command line args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(ctx)
	code := exitCodeFor(err)
	if err != nil {
		a.report(err)
	}
	a.shutdown(ctx)
	return code
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "weather",
		Short: "Current conditions and forecasts from OpenWeatherMap",
		Long: `Show the weather for any LOCATION. Give a city name, optionally with a
two-letter country code, or a numeric OpenWeatherMap city id:

  weather current London,UK
  weather temp Mumbai C

You need an API key from https://openweathermap.org/appid. Store it once
with "weather storeapi" or pass it with --api-key.`,
		Version:           a.version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		Args:              a.noSubcommandArgs,
		RunE:              func(cmd *cobra.Command, args []string) error { return cmd.Help() },
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.apiKey, "api-key", "a", "", "OpenWeatherMap API key (32 hex characters)")
	pf.StringVarP(&a.flags.apiKeyFile, "api-key-file", "c", credential.DefaultFile, "file holding the API key")
	pf.CountVarP(&a.flags.quiet, "quiet", "q", "show less on screen (repeatable)")
	pf.CountVarP(&a.flags.verbose, "verbose", "v", "show more on screen (repeatable)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "directory for cache, logs and city table (default: $WEATHER_DATA_DIR or the user config dir)")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.currentCommand(),
		a.humidityCommand(),
		a.tempCommand(),
		a.forecastCommand(),
		a.rainCommand(),
		a.daylightCommand(),
		a.dumpCommand(),
		a.storeAPICommand(),
		a.logCommand(),
		a.cityCommand(),
	)
	return root
}

// noSubcommandArgs rejects stray words after the bare command name.
func (a *App) noSubcommandArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	msg := fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath())
	if s := cmd.SuggestionsFor(args[0]); len(s) > 0 {
		msg += fmt.Sprintf("; did you mean %q?", s[0])
	}
	return usageErrorf("%s", msg)
}

// setup loads configuration and opens the logs before any subcommand runs.
func (a *App) setup(cmd *cobra.Command, args []string) error {
	if a.flags.noColor || !isTerminal(a.out) {
		color.NoColor = true
	}

	if a.flags.apiKey != "" {
		if err := credential.Validate(a.flags.apiKey); err != nil {
			return err
		}
	}

	dataDir := a.flags.dataDir
	if dataDir == "" {
		d, err := config.DefaultDataDir()
		if err != nil {
			return err
		}
		dataDir = d
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return err
		}
		return &ExitError{Code: ExitUsage, Err: err}
	}
	a.cfg = cfg

	a.runID = uuid.NewString()
	lastRun := cfg.LastRunLogPath()
	if cmd.Name() == "log" {
		lastRun = ""
	}
	logger, closeLogs, err := observability.NewLogger(observability.LoggerOptions{
		Screen:      a.errOut,
		Verbosity:   a.flags.verbose - a.flags.quiet,
		Level:       cfg.LogLevel,
		HistoryPath: cfg.HistoryLogPath(),
		LastRunPath: lastRun,
		RunID:       a.runID,
		Command:     cmd.Name(),
	})
	if err != nil {
		return err
	}
	a.logger, a.closeLogs = logger, closeLogs

	observability.RecordWeatherQuery(cmd.Name())
	a.logger.Debug("configuration loaded",
		zap.String("data_dir", cfg.DataDir),
		zap.String("api_url", cfg.WeatherAPIURL),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Strings("args", args),
	)
	return nil
}

// weatherService builds the cache-aside fetch path for this invocation.
func (a *App) weatherService() *service.WeatherService {
	return service.NewWeatherService(
		client.NewOpenWeatherClient(a.cfg.WeatherAPIURL, a.cfg.WeatherAPITimeout, a.logger),
		cache.NewFileCache(a.cfg.CacheDir(), a.cfg.CacheTTL),
		a.cityResolver,
		a.resolveKey,
		a.logger,
	)
}

func (a *App) cityResolver() (query.CityResolver, error) {
	table, err := a.cityTable()
	if err != nil {
		return nil, err
	}
	return table, nil
}

func (a *App) resolveKey() (string, error) {
	key, src, err := credential.Resolve(a.flags.apiKey, a.flags.apiKeyFile)
	if err != nil {
		return "", err
	}
	a.logger.Debug("API key resolved", zap.String("source", string(src)))
	return key, nil
}

func (a *App) cityTable() (*cities.Table, error) {
	if a.cities != nil {
		return a.cities, nil
	}
	table, err := cities.Load(a.cfg.CitiesPath())
	if err != nil {
		return nil, err
	}
	a.logger.Debug("city table loaded", zap.Int("cities", table.Len()))
	a.cities = table
	return table, nil
}

// validLocation trims and checks a LOCATION argument.
func validLocation(arg string) (string, error) {
	loc, err := validation.ValidateLocation(arg, validation.DefaultLocationMinLength, validation.DefaultLocationMaxLength)
	if err != nil {
		return "", fmt.Errorf("location %q: %w", arg, err)
	}
	return loc, nil
}

// report prints err for the user and records it in the logs.
func (a *App) report(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintln(a.errOut, color.New(color.FgCyan, color.Bold).Sprint(apiErr.Error()))
		a.logger.Error("weather API error",
			zap.String("cod", apiErr.Code),
			zap.String("message", apiErr.Message),
			zap.String("error_category", string(client.CategorizeError(err))),
		)
		return
	}
	fmt.Fprintf(a.errOut, "Error: %v\n", err)
	a.logger.Error("command failed",
		zap.Error(err),
		zap.String("error_category", string(client.CategorizeError(err))),
		zap.Int("exit_code", exitCodeFor(err)),
	)
}

// shutdown writes metrics and closes the logs. Failures here never change the exit code.
func (a *App) shutdown(ctx context.Context) {
	if a.cfg == nil {
		return
	}
	metricsPath := ""
	if a.cfg.MetricsEnabled {
		metricsPath = a.cfg.MetricsPath()
	}
	_ = observability.FlushTelemetry(context.WithoutCancel(ctx), a.logger, metricsPath)
	if a.closeLogs != nil {
		if err := a.closeLogs(); err != nil {
			fmt.Fprintf(a.errOut, "warning: closing logs: %v\n", err)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
