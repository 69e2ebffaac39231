package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/cargarage/execution-service/internal/config"
	"gopkg.in/yaml.v3"
)

var defaultConfigPaths = []string{"config/config.yaml", "../config/config.yaml"}

type CLI struct {
	Config string `help:"Path to the YAML configuration file." short:"c" type:"path"`

	Serve     ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API, event consumers and schedulers."`
	Migrate   MigrateCmd `cmd:"" help:"Apply database migrations and exit."`
	ConfigCmd ConfigCmd  `cmd:"" name:"config" help:"Inspect the effective configuration."`
	Keygen    KeygenCmd  `cmd:"" help:"Generate a random admin API key."`
}

type ConfigCmd struct {
	Print PrintConfigCmd `cmd:"" help:"Print the effective configuration as YAML. Secrets are omitted."`
}

type PrintConfigCmd struct{}

func (c *PrintConfigCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

// loadConfig uses the --config path when given, otherwise the first default
// location that exists, otherwise defaults and environment only.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.Config
	if path == "" {
		for _, candidate := range defaultConfigPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("execution-service"),
		kong.Description("Execution task service for the repair-order saga."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
