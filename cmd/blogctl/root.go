package main

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
)

// errFindings signals that validate reported problems. The findings have
// already been printed.
var errFindings = errors.New("content has lint findings")

var moduleBuilder = func(cfg blog.Config, opts ...blog.Option) (*blog.Module, error) {
	return blog.New(cfg, opts...)
}

type app struct {
	configPath string
	out        io.Writer
	errOut     io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "Serve, build and inspect the blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(
		a.serveCmd(),
		a.buildCmd(),
		a.validateCmd(),
		a.syncIndexCmd(),
		a.listCmd(),
		a.previewCmd(),
		a.resourcesCmd(),
	)
	return rootCmd
}

func (a *app) config() (blog.Config, error) {
	if strings.TrimSpace(a.configPath) == "" {
		cfg := blog.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return blog.LoadConfig(a.configPath)
}

// module builds the blog from the config file after mutate adjusts it, and
// loads its content.
func (a *app) module(ctx context.Context, mutate func(*blog.Config)) (*blog.Module, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	module, err := moduleBuilder(cfg)
	if err != nil {
		return nil, err
	}
	if err := module.Load(ctx); err != nil {
		_ = module.Close()
		return nil, err
	}
	return module, nil
}

func exitCode(err error) int {
	if errors.Is(err, errFindings) {
		return 2
	}
	return 1
}
