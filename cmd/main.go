// Command mashup-maker builds an artist mashup from the command line.
//
// Usage:
//
//	mashup-maker <artist> <videoCount> <clipSeconds> <outputFile>
//
// It searches for the artist's top videos, downloads their audio, trims
// each track to the requested clip length and merges the clips into a
// single output file.
//
// Exit codes: 0 on success, 1 on usage or validation errors, 2 when the
// run fails.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/jrauso/mashup-maker/config"
	"github.com/jrauso/mashup-maker/internal/audio"
	"github.com/jrauso/mashup-maker/internal/downloader"
	"github.com/jrauso/mashup-maker/internal/mashup"
	"github.com/jrauso/mashup-maker/internal/search"
	"github.com/jrauso/mashup-maker/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	args := os.Args[1:]
	if len(args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <artist> <videoCount> <clipSeconds> <outputFile>\n", filepath.Base(os.Args[0]))
		return 1
	}

	artist, outputFile := args[0], args[3]
	videoCount, countErr := strconv.Atoi(args[1])
	clipSeconds, secondsErr := strconv.Atoi(args[2])
	if countErr != nil || secondsErr != nil {
		fmt.Fprintln(os.Stderr, "Error: video count and clip seconds must be integers")
		return 1
	}

	cfg, err := config.Load("./config/config.yaml")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		cfg = config.Default()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	req := mashup.Request{
		Artist:      artist,
		VideoCount:  videoCount,
		ClipSeconds: clipSeconds,
		OutputPath:  outputFile,
	}
	if err := mashup.ValidateRequest(req); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	orch := mashup.New(cfg, search.NewResolver(), downloader.NewFetcher(cfg), audio.NewFFMPEGEngine(), store)

	result, err := orch.Run(ctx, req)
	if err != nil {
		slog.Error("Mashup failed", "error", err)
		return 2
	}

	fmt.Printf("Wrote %s: %d clips of %ds from %d downloads in %s\n",
		result.OutputPath, result.ProcessedCount, result.ClipSeconds,
		result.DownloadedCount, result.Elapsed.Round(time.Second))
	return 0
}
