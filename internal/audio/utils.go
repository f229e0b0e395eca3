package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// parseProbeDuration converts ffprobe's duration output to seconds.
func parseProbeDuration(output string) (float64, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" || trimmed == "N/A" {
		return 0, fmt.Errorf("no duration in probe output")
	}

	duration, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid probe duration %q: %w", trimmed, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative probe duration: %f", duration)
	}

	return duration, nil
}

// escapeConcatPath quotes a path for an ffmpeg concat list file.
func escapeConcatPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// extensionOf returns the lowercased extension of path without the dot.
func extensionOf(path string) string {
	ext := filepath.Ext(path)
	if ext != "" {
		ext = ext[1:]
	}
	return strings.ToLower(ext)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy file: %w", err)
	}

	return out.Close()
}
