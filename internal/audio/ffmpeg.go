// Package audio provides functionality for processing audio files using FFmpeg.
// It includes features for probing durations, trimming clips to a fixed length,
// concatenating clips and exporting the merged result.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Supported audio file extensions and their corresponding FFmpeg codecs and formats
var (
	supportedExtensions = map[string]struct {
		codec  string
		format string
	}{
		"mp3":  {"libmp3lame", "mp3"},
		"m4a":  {"aac", "mp4"},
		"wav":  {"pcm_s16le", "wav"},
		"flac": {"flac", "flac"},
	}

	// Default audio settings
	defaultAudioBitrate = "192k"
	defaultID3Version   = "3"
)

var (
	ErrFileNotFound     = fmt.Errorf("file not found")
	ErrFileEmpty        = fmt.Errorf("file is empty")
	ErrInvalidPath      = fmt.Errorf("invalid path")
	ErrInvalidExtension = fmt.Errorf("invalid file extension")
	ErrClipReleased     = fmt.Errorf("clip already released")
	ErrNoClipsToConcat  = fmt.Errorf("no clips to concatenate")
)

// ffmpegError wraps FFmpeg command errors with additional context
type ffmpegError struct {
	cmd     string
	output  string
	wrapped error
}

func (e *ffmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %s\nCommand: %s\nOutput: %s", e.wrapped, e.cmd, e.output)
}

func (e *ffmpegError) Unwrap() error {
	return e.wrapped
}

// newFFmpegError creates a new ffmpegError with truncated command output
func newFFmpegError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}
	return &ffmpegError{
		cmd:     cmdStr,
		output:  string(output),
		wrapped: err,
	}
}

type ffmpeg struct{}

func NewFFMPEGEngine() *ffmpeg {
	return &ffmpeg{}
}

func (f *ffmpeg) validateFile(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("unable to access file: %s: %w", path, err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrFileEmpty, path)
	}

	return nil
}

func (f *ffmpeg) validateClip(clip *Clip) error {
	if clip == nil {
		return fmt.Errorf("%w: nil clip", ErrInvalidPath)
	}
	if clip.released {
		return fmt.Errorf("%w: %s", ErrClipReleased, clip.path)
	}
	return f.validateFile(clip.path)
}

// sanitizePath ensures the path is safe and returns an absolute path
func (f *ffmpeg) sanitizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Allow temporary files (system temp directory)
	tempDir := os.TempDir()
	if tempDir != "" {
		absTempDir, err := filepath.Abs(tempDir)
		if err == nil && strings.HasPrefix(absPath, absTempDir) {
			return absPath, nil
		}
	}

	// Allow paths within the working directory
	baseDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	if strings.HasPrefix(absPath, baseDir) {
		return absPath, nil
	}

	// Check for path traversal attempts
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: path contains '..' which is not allowed", ErrInvalidPath)
	}

	// For output paths, allow if they're absolute paths without traversal
	if filepath.IsAbs(path) && !strings.Contains(path, "..") {
		return absPath, nil
	}

	return "", fmt.Errorf("%w: path must be within the working directory or a safe absolute path", ErrInvalidPath)
}

// createTempFile creates a temporary file in the system's temp directory
func (f *ffmpeg) createTempFile(extension string) (string, error) {
	const prefix = "mashup_clip"

	tempFile, err := os.CreateTemp("", prefix+"_*."+extension)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	tempFile.Close()
	return tempPath, nil
}

// probeDuration asks ffprobe for the duration of the file in seconds.
func (f *ffmpeg) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, newFFmpegError(cmd, output, err)
	}

	return parseProbeDuration(string(output))
}

// Load validates the file and probes its duration. The returned clip borrows
// the source file and does not delete it on release.
func (f *ffmpeg) Load(ctx context.Context, path string) (*Clip, error) {
	if err := f.validateFile(path); err != nil {
		return nil, fmt.Errorf("audio load failed: %w", err)
	}

	duration, err := f.probeDuration(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("audio probe failed: %w", err)
	}

	slog.Debug("Loaded audio file", "path", path, "duration", fmt.Sprintf("%.3f", duration))
	return &Clip{path: path, duration: duration}, nil
}

// Trim writes the first seconds of the clip into a new owned clip.
func (f *ffmpeg) Trim(ctx context.Context, clip *Clip, seconds float64) (*Clip, error) {
	if err := f.validateClip(clip); err != nil {
		return nil, fmt.Errorf("trim failed: %w", err)
	}
	if seconds <= 0 {
		return nil, fmt.Errorf("trim failed: non-positive duration %.3f", seconds)
	}

	ext := extensionOf(clip.path)
	codecInfo, ok := supportedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}

	tempAudio, err := f.createTempFile(ext)
	if err != nil {
		return nil, err
	}

	slog.Debug("Trimming clip",
		"input", clip.path,
		"output", tempAudio,
		"seconds", fmt.Sprintf("%.3f", seconds),
	)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", clip.path,
		"-ss", "0.000",
		"-t", fmt.Sprintf("%.3f", seconds),
		"-map", "0:a",
		"-c:a", codecInfo.codec,
		"-f", codecInfo.format,
		"-b:a", defaultAudioBitrate,
		"-af", "aresample=async=1",
		tempAudio,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tempAudio)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newFFmpegError(cmd, output, err)
	}

	return &Clip{path: tempAudio, duration: math.Min(seconds, clip.duration), owned: true}, nil
}

// Concat joins the clips in order into a single owned clip encoded for the
// given extension.
func (f *ffmpeg) Concat(ctx context.Context, clips []*Clip, extension string) (*Clip, error) {
	if len(clips) == 0 {
		return nil, ErrNoClipsToConcat
	}

	codecInfo, ok := supportedExtensions[extension]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, extension)
	}

	var total float64
	var list strings.Builder
	for _, clip := range clips {
		if err := f.validateClip(clip); err != nil {
			return nil, fmt.Errorf("concat failed: %w", err)
		}
		fmt.Fprintf(&list, "file %s\n", escapeConcatPath(clip.path))
		total += clip.duration
	}

	listFile, err := f.createTempFile("txt")
	if err != nil {
		return nil, err
	}
	defer os.Remove(listFile)

	if err := os.WriteFile(listFile, []byte(list.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write concat list: %w", err)
	}

	tempAudio, err := f.createTempFile(extension)
	if err != nil {
		return nil, err
	}

	slog.Debug("Concatenating clips", "count", len(clips), "output", tempAudio)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:a", codecInfo.codec,
		"-f", codecInfo.format,
		"-b:a", defaultAudioBitrate,
		tempAudio,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tempAudio)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newFFmpegError(cmd, output, err)
	}

	return &Clip{path: tempAudio, duration: total, owned: true}, nil
}

// Export writes the clip to outputPath. Matching extensions are copied as-is,
// anything else is re-encoded.
func (f *ffmpeg) Export(ctx context.Context, clip *Clip, outputPath string) error {
	if err := f.validateClip(clip); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	sanitizedOutputPath, err := f.sanitizePath(outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	outputDir := filepath.Dir(sanitizedOutputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := extensionOf(sanitizedOutputPath)
	if ext == extensionOf(clip.path) {
		return copyFile(clip.path, sanitizedOutputPath)
	}

	codecInfo, ok := supportedExtensions[ext]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}

	slog.Debug("Exporting clip", "input", clip.path, "output", sanitizedOutputPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", clip.path,
		"-map", "0:a",
		"-c:a", codecInfo.codec,
		"-f", codecInfo.format,
		"-b:a", defaultAudioBitrate,
		"-movflags", "+faststart",
		"-id3v2_version", defaultID3Version,
		sanitizedOutputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newFFmpegError(cmd, output, err)
	}

	return nil
}

// Release frees the clip, deleting the backing file of owned clips. It is
// safe to call more than once.
func (f *ffmpeg) Release(clip *Clip) error {
	if clip == nil || clip.released {
		return nil
	}
	clip.released = true

	if !clip.owned {
		return nil
	}
	if err := os.Remove(clip.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove clip file: %w", err)
	}
	return nil
}
