package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"doppel/internal/gateway"
	"doppel/internal/onboarding"
	"doppel/internal/telegram"
	"doppel/internal/webui"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "doppel",
		Short: "A digital twin that answers career questions on your behalf",
		Long: "doppel answers questions about your career, background and experience,\n" +
			"grounded in your persona documents, with every reply validated by a\n" +
			"secondary model before delivery.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return gateway.New(configPath).Run(signalContext())
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.doppel/config.json)")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive terminal session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return gateway.New(configPath).Run(signalContext())
		},
	}

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return gateway.New(configPath).Execute(signalContext(), strings.Join(args, " "))
		},
	}

	var port int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web chat UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return webui.NewServer(gateway.New(configPath), port).Start(signalContext())
		},
	}
	serveCmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	telegramCmd := &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram bot surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := telegram.NewBot(configPath)
			if err != nil {
				return err
			}
			return bot.Start(signalContext())
		},
	}

	var plain bool
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Run the configuration wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = onboarding.DefaultPath
			}
			if plain {
				cfg, err := onboarding.NewWizard().Run()
				if err != nil {
					return err
				}
				return cfg.SaveToFile(path)
			}
			return onboarding.RunTUI(path)
		},
	}
	setupCmd.Flags().BoolVar(&plain, "plain", false, "use the plain-terminal wizard instead of the TUI")

	root.AddCommand(chatCmd, askCmd, serveCmd, telegramCmd, setupCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx
}
