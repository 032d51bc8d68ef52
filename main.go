package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uggedal/gitoff/internal"
	"github.com/uggedal/gitoff/internal/web"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic occurred: %v", r)
			os.Exit(1)
		}
	}()

	if err := run(os.Args, os.Environ(), os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run executes gitoff with the given arguments and environment. Without a
// subcommand it answers a single CGI request for PATH_INFO in env and
// writes the response to stdout.
func run(args, env []string, stdout io.Writer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:           "gitoff",
		Short:         "Read-only web front end for bare git repositories",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCGI(cmd, env, stdout)
		},
	}
	internal.InitFlags(root.PersistentFlags())

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve repositories over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, env)
		},
	}
	serve.Flags().String("listen", internal.DefaultListen, "address to listen on")
	root.AddCommand(serve)

	root.SetArgs(args[1:])
	root.SetOut(stdout)
	root.SetErr(os.Stderr)

	return root.ExecuteContext(ctx)
}

// lookupEnv returns the last value of key in env.
func lookupEnv(env []string, key string) string {
	var value string
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			value = v
		}
	}
	return value
}

func runCGI(cmd *cobra.Command, env []string, stdout io.Writer) error {
	config, err := internal.LoadConfig(cmd.Flags(), env)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	w := internal.NewCGIWriter()

	tracer, shutdown, err := internal.SetupTracing(config.TraceFile)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	cleanupMgr := internal.NewCleanupManager(w)
	cleanupMgr.Add("tracing", shutdown)
	defer cleanupMgr.Execute()

	handler, err := web.NewHandler(config, w, tracer)
	if err != nil {
		return err
	}

	page, err := handler.Respond(cmd.Context(), lookupEnv(env, "PATH_INFO"))
	if err != nil {
		return err
	}

	return page.WriteCGI(stdout)
}

func runServe(cmd *cobra.Command, env []string) error {
	config, err := internal.LoadConfig(cmd.Flags(), env)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	w := internal.NewStandardWriter()

	tracer, shutdown, err := internal.SetupTracing(config.TraceFile)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	cleanupMgr := internal.NewCleanupManager(w)
	cleanupMgr.Add("tracing", shutdown)
	defer cleanupMgr.Execute()

	handler, err := web.NewHandler(config, w, tracer)
	if err != nil {
		return err
	}

	server, err := web.NewServer(config.Listen, handler, w)
	if err != nil {
		return err
	}
	cleanupMgr.Add("http-server", server.Close)

	w.Printf("Serving %s on port %d\n", config.ScanDir, server.Port())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	return nil
}
