package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	configEnvVar   = "BATCHNFT_CONFIG"
	passwordEnvVar = "BATCHNFT_WALLET_PASSWORD"
)

var (
	// Version is set on build.
	Version = "dev"

	appConfig config
	logger    = zap.NewNop()
)

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "batchnft"
	app.Usage = "BatchTransfer contract command line interface"
	app.Commands = append(
		app.Commands,
		&deployCommand,
		&transferCommand,
		&missingCommand,
		&planCommand,
		&infoCommand,
	)
	app.Flags = []cli.Flag{
		configFlag,
		verboseFlag,
		rpcEndpointFlag,
		walletFlag,
		accountFlag,
		contractFlag,
	}
	app.Before = func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx.String(configFlag.Name))
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		appConfig = applyFlags(ctx, cfg)

		logger, err = newLogger(ctx.Bool(verboseFlag.Name))
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	}
	app.After = func(*cli.Context) error {
		_ = logger.Sync()
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error: %w", err))
		os.Exit(1)
	}
}

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to YAML configuration file",
		EnvVars: []string{configEnvVar},
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable debug logs",
	}
	rpcEndpointFlag = &cli.StringFlag{
		Name:    "rpc-endpoint",
		Aliases: []string{"r"},
		Usage:   "network address of the Neo RPC server",
	}
	walletFlag = &cli.StringFlag{
		Name:    "wallet",
		Aliases: []string{"w"},
		Usage:   "path to NEP-6 wallet file",
	}
	accountFlag = &cli.StringFlag{
		Name:    "account",
		Aliases: []string{"a"},
		Usage:   "wallet account address, default account is used if not set",
	}
	contractFlag = &cli.StringFlag{
		Name:  "contract",
		Usage: "address or script hash of the BatchTransfer contract",
	}
	passwordFlag = &cli.StringFlag{
		Name:    "password",
		Usage:   "wallet account password",
		EnvVars: []string{passwordEnvVar},
	}
)

// applyFlags overrides configuration values with explicitly set flags.
func applyFlags(ctx *cli.Context, cfg config) config {
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{rpcEndpointFlag.Name, &cfg.RPCEndpoint},
		{walletFlag.Name, &cfg.Wallet},
		{accountFlag.Name, &cfg.Account},
		{contractFlag.Name, &cfg.Contract},
	} {
		if ctx.IsSet(f.name) {
			*f.dst = ctx.String(f.name)
		}
	}
	return cfg
}

func newLogger(verbose bool) (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	c.Encoding = "console"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return c.Build()
}
