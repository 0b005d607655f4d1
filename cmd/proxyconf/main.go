// Package main provides the proxyconf entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rennerdo30/proxyconf/internal/api"
	"github.com/rennerdo30/proxyconf/internal/cli"
	"github.com/rennerdo30/proxyconf/internal/cli/ctl"
	"github.com/rennerdo30/proxyconf/internal/config"
	"github.com/rennerdo30/proxyconf/internal/envsync"
	"github.com/rennerdo30/proxyconf/internal/logging"
	"github.com/rennerdo30/proxyconf/internal/util"
	"github.com/rennerdo30/proxyconf/internal/version"
)

// globals holds the persistent flags shared by all commands.
type globals struct {
	configFile   string
	settingsPath string
	ephemeral    bool
}

// loadConfig reads the configuration file (a missing one means defaults),
// applies flag overrides and sets up logging.
func (g *globals) loadConfig() (config.Config, error) {
	cfg := config.DefaultConfig()
	if err := config.LoadOptional(g.configFile, &cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if g.settingsPath != "" {
		cfg.Settings.Path = g.settingsPath
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		return cfg, fmt.Errorf("setup logging: %w", err)
	}
	return cfg, nil
}

// open loads the configuration and builds the application.
func (g *globals) open() (*app, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	var filesystem afero.Fs = afero.NewOsFs()
	if g.ephemeral {
		filesystem = afero.NewMemMapFs()
	}
	return openApp(cfg, filesystem)
}

// withApp runs fn against a freshly opened app and closes it afterwards,
// flushing any settings fn changed.
func (g *globals) withApp(fn func(a *app) error) error {
	defer logging.Close()

	a, err := g.open()
	if err != nil {
		return err
	}
	err = fn(a)
	if cerr := a.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("save settings %s: %w", a.store.Path(), cerr)
	}
	return err
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "proxyconf",
		Short: "Proxy configuration manager",
		Long: `proxyconf stores the proxy configuration of the machine and advertises
it as http_proxy, https_proxy and sock_proxy.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "proxyconf.yaml", "config file path")
	root.PersistentFlags().StringVar(&g.settingsPath, "settings", "", "settings file path (overrides config)")
	root.PersistentFlags().BoolVar(&g.ephemeral, "ephemeral", false, "keep settings in memory only")

	root.AddCommand(
		newShowCommand(g),
		newSetCommand(g),
		newDisableCommand(g, true),
		newDisableCommand(g, false),
		newEnvCommand(g),
		newResolveCommand(g),
		newExecCommand(g),
		newServeCommand(g),
		newValidateCommand(g),
		newConfigCommand(),
		ctl.NewCommands(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			},
		},
	)

	return root
}

func newShowCommand(g *globals) *cobra.Command {
	var (
		asJSON       bool
		showPassword bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the proxy configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				status := api.StatusOf(a.manager)
				if showPassword {
					status = api.RevealedStatusOf(a.manager)
				}
				if asJSON {
					return cli.PrintJSON(cmd.OutOrStdout(), status)
				}
				return cli.PrintStatus(cmd.OutOrStdout(), status)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&showPassword, "show-password", false, "print the stored password")
	return cmd
}

func newSetCommand(g *globals) *cobra.Command {
	var flags cli.ProxyFlags

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the proxy configuration",
		Long: `Change the stored proxy configuration. Flags that are not given keep
their current value.

Example:
  proxyconf set --type http --ip 10.0.0.1 --port 3128
  proxyconf set --type socks5-pw --ip 10.0.0.1 --port 1080 -u user --password pass`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				cfg, _, err := flags.Merge(cmd, a.manager.Configuration())
				if err != nil {
					return err
				}
				a.manager.SetConfiguration(cfg)
				return cli.PrintStatus(cmd.OutOrStdout(), api.StatusOf(a.manager))
			})
		},
	}
	flags.Register(cmd)
	return cmd
}

func newDisableCommand(g *globals, disable bool) *cobra.Command {
	use, short := "disable", "Stop advertising the proxy"
	if !disable {
		use, short = "enable", "Advertise the configured proxy again"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				a.manager.SetDisabled(disable)
				return cli.PrintStatus(cmd.OutOrStdout(), api.StatusOf(a.manager))
			})
		},
	}
}

func newEnvCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print shell exports for the active proxy",
		Long: `Print the proxy variables as shell export statements.

Example:
  eval "$(proxyconf env)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				for _, line := range envsync.ExportLines(a.manager.Env()) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
}

func newResolveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve URL...",
		Short: "Show the proxy an HTTP client would use for each URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				env := a.manager.Env()
				for _, target := range args {
					proxy, err := envsync.ProxyFor(env, target)
					if err != nil {
						return err
					}
					via := "direct"
					if proxy != nil {
						via = proxy.Redacted()
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", target, via)
				}
				return nil
			})
		},
	}
}

func newExecCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "exec -- command [args...]",
		Short: "Run a command with the proxy variables set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				child := exec.CommandContext(cmd.Context(), args[0], args[1:]...) //nolint:gosec // G204: user-supplied command by design
				child.Env = os.Environ()
				for _, v := range a.manager.Env().Vars() {
					child.Env = append(child.Env, v.Name+"="+v.Value)
				}
				child.Stdin = cmd.InOrStdin()
				child.Stdout = cmd.OutOrStdout()
				child.Stderr = cmd.ErrOrStderr()
				return child.Run()
			})
		},
	}
}

func newServeCommand(g *globals) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API until interrupted",
		Long: `Serve the REST API (and metrics, when enabled). SIGHUP republishes the
proxy environment; SIGINT and SIGTERM shut down and flush settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(func(a *app) error {
				if listen != "" {
					a.cfg.API.Enabled = true
					a.cfg.API.Listen = listen
				}
				if !a.cfg.API.Enabled {
					return errors.New("api is disabled: set api.enabled in the config or pass --listen")
				}
				return serve(cmd.Context(), a)
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "API listen address (enables the API)")
	return cmd
}

func serve(parent context.Context, a *app) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg := api.Config{
		Manager:   a.manager,
		Token:     a.cfg.API.Token,
		TokenHash: a.cfg.API.TokenHash,
		RateLimit: a.cfg.API.RateLimit,
	}
	if a.cfg.Metrics.Enabled {
		cfg.Metrics = a.metrics.Handler()
		cfg.MetricsPath = a.cfg.Metrics.Path
	}

	if cfg.Token == "" && cfg.TokenHash == "" && !util.IsLoopbackAddress(a.cfg.API.Listen) {
		logging.Warn("API listens beyond loopback without a token", "address", a.cfg.API.Listen)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return api.New(cfg).Serve(ctx, a.cfg.API.Listen)
	})

	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case sig := <-sigChan:
				if sig == syscall.SIGHUP {
					logging.Info("Received SIGHUP, republishing proxy environment")
					if err := a.manager.ApplyEnvironment(); err != nil {
						logging.Error("Republishing proxy environment failed", "error", err)
					}
					continue
				}
				logging.Info("Received shutdown signal", "signal", sig.String())
				cancel()
				return nil
			}
		}
	})

	return group.Wait()
}

func newValidateCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if err := config.LoadAndValidate(g.configFile, &cfg); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}
}

func newConfigCommand() *cobra.Command {
	var (
		output string
		force  bool
	)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("file %s already exists (use --force to overwrite)", output)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check output file: %w", err)
				}
			}

			content := fmt.Sprintf(config.DefaultConfigTemplate, config.DefaultSettingsPath())
			if err := os.WriteFile(output, []byte(content), 0600); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "proxyconf.yaml", "output file path")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing file")

	hashCmd := &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print a bcrypt hash for api.token_hash",
		Long: `Print a bcrypt hash of an API token for use as api.token_hash. The token
is read from standard input when not given as an argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimRight(line, "\r\n")
			}
			if token == "" {
				return errors.New("token must not be empty")
			}

			hash, err := api.HashToken(token)
			if err != nil {
				return fmt.Errorf("hash token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	configCmd.AddCommand(initCmd, hashCmd)
	return configCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
