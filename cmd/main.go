// Copyright (c) 2024, 0x0BSoD. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0x0BSoD/feedMaker/internal/config"
	"github.com/0x0BSoD/feedMaker/internal/fetcher"
	"github.com/0x0BSoD/feedMaker/internal/pipeline"
	"github.com/0x0BSoD/feedMaker/internal/reporter"
	"github.com/0x0BSoD/feedMaker/internal/source"
)

type globalFlags struct {
	configFile string
	outputDir  string
	strategy   string
	keywords   []string
	timeout    time.Duration
	userAgent  string
	logLevel   string
}

type app struct {
	flags globalFlags
	cfg   config.Config
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "feedmaker <url> [name]",
		Short: "feedmaker builds RSS feeds from bulletin index pages",
		Long: "Fetches a web page listing bulletins (BSV) and writes an RSS 2.0 feed with one item per bulletin.\n" +
			"Called with a URL it behaves like the index command.",
		Args:              cobra.MaximumNArgs(2),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.runSingle(cmd, pipeline.ModeIndex, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "additional HCL config file")
	pf.StringVarP(&a.flags.outputDir, "output-dir", "o", "", "directory the feeds are written to")
	pf.StringVar(&a.flags.strategy, "strategy", "", "bulletin extraction strategy: tree or pattern")
	pf.StringSliceVar(&a.flags.keywords, "keywords", nil, "keywords a bulletin link must mention")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "fetch timeout per page")
	pf.StringVar(&a.flags.userAgent, "user-agent", "", "User-Agent header sent with requests")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		a.indexCmd(),
		a.pageCmd(),
		a.batchCmd(),
		a.verifyCmd(),
	)

	return root
}

// setup loads the configuration, applies flag overrides and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if a.flags.configFile != "" {
		files = append(files, a.flags.configFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = a.flags.outputDir
	}
	if flags.Changed("strategy") {
		cfg.Strategy = a.flags.strategy
	}
	if flags.Changed("keywords") {
		cfg.Keywords = a.flags.keywords
	}
	if flags.Changed("timeout") {
		cfg.FetchTimeout = a.flags.timeout
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = a.flags.userAgent
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	a.cfg = cfg

	return nil
}

func (a *app) newPipeline() (*pipeline.Pipeline, error) {
	scraper, err := source.New(a.cfg.Strategy, source.Options{Keywords: a.cfg.Keywords})
	if err != nil {
		return nil, err
	}

	var rep pipeline.Reporter
	r, err := reporter.Dial(a.cfg.TelegramBotToken, a.cfg.TelegramAdminChatID)
	switch {
	case err != nil:
		slog.Warn("failure reporting disabled", "err", err)
	case r != nil:
		rep = r
	}

	return pipeline.New(
		fetcher.New(a.cfg.UserAgent, a.cfg.FetchTimeout, a.cfg.Insecure),
		scraper,
		rep,
		pipeline.Options{
			OutputDir:     a.cfg.OutputDir,
			DefaultScheme: a.cfg.DefaultScheme,
			Verify:        a.cfg.VerifyOutput,
		},
	), nil
}

var errRowsFailed = errors.New("some rows failed")
