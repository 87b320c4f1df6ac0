package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xen0bit/dashchart/pkg/dashboard"
)

type rootFlags struct {
	// Debug
	Debug bool

	// Logs
	LogsFormat string

	// Dashboard config file
	ConfigPath string

	// Data endpoint instance URL
	BaseURL string

	// Env file
	EnvFile string

	v *viper.Viper
}

func (f *rootFlags) register(cmd *cobra.Command) {
	f.v = viper.New()
	f.v.SetEnvPrefix(name)

	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&f.LogsFormat, "log-format", "f", "text", "logs format (json, text)")
	cmd.PersistentFlags().StringVar(&f.EnvFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	f.v.BindEnv("config")
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "", "dashboard config file (yaml or json). environment variable: DASHCHART_CONFIG")

	f.v.BindEnv("base_url")
	cmd.PersistentFlags().StringVar(&f.BaseURL, "base-url", "", "data endpoint instance URL. environment variable: DASHCHART_BASE_URL")

	f.v.BindEnv("port")
}

// load fills unset flags from the environment, after the dotenv file.
func (f *rootFlags) load(cmd *cobra.Command) error {
	if err := godotenv.Load(f.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", f.EnvFile, err)
	}

	if !cmd.Flags().Changed("config") && f.ConfigPath == "" {
		f.ConfigPath = f.v.GetString("config")
	}
	if !cmd.Flags().Changed("base-url") && f.BaseURL == "" {
		f.BaseURL = f.v.GetString("base_url")
	}
	if f.BaseURL != "" && !strings.HasSuffix(f.BaseURL, "/") {
		f.BaseURL += "/"
	}
	return nil
}

func (f *rootFlags) port() string {
	if p := f.v.GetString("port"); p != "" {
		return p
	}
	return "8080"
}

func (c *cli) loadConfig() (*dashboard.Config, error) {
	if c.flags.ConfigPath == "" {
		return nil, errors.New("no dashboard config: use --config or DASHCHART_CONFIG")
	}
	return dashboard.Load(c.flags.ConfigPath)
}

func (c *cli) loadDashboard(slug string) (*dashboard.Dashboard, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	d, ok := cfg.Dashboard(slug)
	if !ok {
		return nil, fmt.Errorf("dashboard not found: %s", slug)
	}
	return d, nil
}

func (c *cli) requireBaseURL() error {
	if c.flags.BaseURL == "" {
		return errors.New("no data endpoint: use --base-url or DASHCHART_BASE_URL")
	}
	return nil
}
