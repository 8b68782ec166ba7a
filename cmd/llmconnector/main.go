// Package main is the entry point for the connector: an HTTP host and a
// small CLI over the same operations.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"llmconnector/config"
	"llmconnector/internal/app"
	"llmconnector/internal/version"
)

const usage = `usage: llmconnector [-config path] [command]

commands:
  serve          start the HTTP server (default)
  prompt <text>  send a single prompt and print the reply
  ping           test the connection to the configured provider
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(version.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "Path to the YAML configuration file")
	versionFlag := fs.Bool("version", false, "Print version information")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprintln(stdout, version.Info())
		return 0
	}

	command := "serve"
	rest := fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	application, err := app.New(app.Options{Config: cfg})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize application: %v\n", err)
		return 1
	}

	switch command {
	case "serve":
		return serve(application, cfg.Server.Port)
	case "prompt":
		if len(rest) == 0 {
			fmt.Fprintln(stderr, "prompt requires text")
			return 2
		}
		return prompt(application, strings.Join(rest, " "), stdout, stderr)
	case "ping":
		status := application.Operations().TestConnection(context.Background(), application.Connector())
		fmt.Fprintln(stdout, status)
		if !strings.HasPrefix(status, "Successfully") {
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		fs.Usage()
		return 2
	}
}

func prompt(application *app.App, text string, stdout, stderr io.Writer) int {
	content, err := application.Operations().SimplePrompt(context.Background(), application.Connector(), text)
	if err != nil {
		fmt.Fprintf(stderr, "prompt failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, content)
	return 0
}

func serve(application *app.App, port string) int {
	slog.Info("starting "+version.Name,
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			slog.Error("application shutdown error", "error", err)
		}
	}()

	if err := application.Start(":" + port); err != nil {
		slog.Error("server failed", "error", err)
		return 1
	}
	return 0
}
