package main

import (
	"context"
	"os"

	"github.com/Abraxas-365/cae/pkg/config"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		logx.Sync()
		os.Exit(exitCode(err))
	}
	logx.Sync()
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cae",
		Short:         "Contractor compliance (CAE/PRL) back office",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newWorkerCommand(),
		newExpireCommand(),
		newTaxIDCommand(),
	)
	return root
}

// loadConfig reads the configuration and applies its logging section
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logx.Configure(logx.Format(cfg.Log.Format), nil)
	logx.SetLevel(logx.ParseLevel(cfg.Log.Level))
	return cfg, nil
}

// exitStatus lets a command pick its process exit code without printing an error
type exitStatus int

func (e exitStatus) Error() string { return "exit status" }

func exitCode(err error) int {
	if s, ok := err.(exitStatus); ok {
		return int(s)
	}
	logx.Error(err)
	return 1
}
