package server

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrauso/mashup-maker/internal/job"
)

const (
	// Default TTL for abandoned run workspaces
	DefaultFileTTL = 24 * time.Hour

	// Cleanup interval for old workspaces
	CleanupInterval = 2 * time.Hour
)

// StartCleanupWorker starts a background worker that removes workspaces
// left behind by crashed runs
func (s *Server) StartCleanupWorker() {
	ticker := time.NewTicker(CleanupInterval)
	go func() {
		defer ticker.Stop()
		for range ticker.C {
			s.cleanupOldWorkspaces()
		}
	}()
	slog.Info("Workspace cleanup worker started", "interval", CleanupInterval)
}

// cleanupOldWorkspaces removes run workspaces older than TTL
func (s *Server) cleanupOldWorkspaces() {
	workspaceRoot := filepath.Join(os.TempDir(), "mashup-maker")
	if _, err := os.Stat(workspaceRoot); os.IsNotExist(err) {
		return
	}

	cutoffTime := time.Now().Add(-DefaultFileTTL)
	slog.Debug("Starting cleanup of old workspaces", "cutoff", cutoffTime)

	entries, err := os.ReadDir(workspaceRoot)
	if err != nil {
		slog.Error("Failed to read workspace root", "error", err)
		return
	}

	cleaned := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		runDir := filepath.Join(workspaceRoot, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			if err := os.RemoveAll(runDir); err != nil {
				slog.Error("Failed to remove old workspace", "dir", runDir, "error", err)
			} else {
				slog.Debug("Cleaned up old workspace", "dir", runDir, "age", time.Since(info.ModTime()))
				cleaned++
			}
		}
	}

	if cleaned > 0 {
		slog.Info("Cleanup completed", "directories_cleaned", cleaned)
	}
}

// SanitizeFilename sanitizes a filename by removing invalid characters
func SanitizeFilename(name string) string {
	// Replace invalid characters with underscores
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\n", "\r", "\t"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading and trailing spaces and dots
	result = strings.Trim(result, " .")

	// Ensure the filename is not empty
	if result == "" {
		result = "untitled"
	}

	return result
}

// outputNameFor picks the file name the finished mashup is stored under.
// Relative names land inside the configured output location.
func (s *Server) outputNameFor(req job.Request) string {
	name := req.OutputName
	if name == "" {
		name = fmt.Sprintf("%s Mashup", req.Artist)
	}

	name = SanitizeFilename(name)
	if filepath.Ext(name) == "" {
		name += "." + s.cfg.OutputFormat
	}
	return name
}

// contentTypeFor maps an audio file name to its MIME type
func contentTypeFor(fileName string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
