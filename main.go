package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chatsync/internal/app"
	"chatsync/internal/commands"
	"chatsync/internal/config"
)

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("chatsync", flag.ContinueOnError)
	flags.SetOutput(stderr)
	getUser := flags.String("get-user", "", "Print a user, fetching and caching it on a miss")
	getFile := flags.String("get-file", "", "Print file metadata, fetching and caching it on a miss")
	fileOut := flags.String("out", "", "With -get-file, write the payload to this path")
	getMessage := flags.String("get-message", "", "Print a message, fetching and caching it on a miss")
	dialogs := flags.Int("dialogs", 0, "Fetch and print the given page of dialogs")
	syncEvents := flags.Bool("sync", false, "Follow the event stream and keep the cache up to date")
	clearCache := flags.Bool("clear-cache", false, "Remove everything from the local cache")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close cache", "error", err)
		}
	}()

	switch {
	case *clearCache:
		return commands.ClearCache(ctx, a, stdout)
	case *getUser != "":
		return commands.GetUser(ctx, a, *getUser, stdout)
	case *getFile != "":
		if *fileOut == "" {
			return commands.GetFile(ctx, a, *getFile, stdout, nil)
		}
		return getFileTo(ctx, a, *getFile, *fileOut, stdout)
	case *getMessage != "":
		return commands.GetMessage(ctx, a, *getMessage, stdout)
	case *dialogs > 0:
		return commands.Dialogs(ctx, a, *dialogs, stdout)
	case *syncEvents:
		logger.Info("following event stream", "user_id", cfg.CurrentUserID)
		return a.Run(ctx)
	default:
		flags.Usage()
		return fmt.Errorf("no command given")
	}
}

func getFileTo(ctx context.Context, a *app.App, id, path string, stdout io.Writer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return commands.GetFile(ctx, a, id, stdout, f)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}
