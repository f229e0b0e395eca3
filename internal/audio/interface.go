package audio

import (
	"context"
)

// Codec loads, trims, concatenates and exports audio files.
//
// Every *Clip returned by Load, Trim or Concat must eventually be passed to
// Release, which removes any temporary file backing it.
type Codec interface {
	// Load validates the file and probes its duration.
	Load(ctx context.Context, path string) (*Clip, error)

	// Trim produces a new clip covering the first seconds of the input.
	// The input clip is left untouched.
	Trim(ctx context.Context, clip *Clip, seconds float64) (*Clip, error)

	// Concat joins the clips in order into a single clip encoded for the
	// given extension.
	Concat(ctx context.Context, clips []*Clip, extension string) (*Clip, error)

	// Export writes the clip to outputPath, re-encoding when the target
	// extension differs from the clip's.
	Export(ctx context.Context, clip *Clip, outputPath string) error

	// Release frees the clip. Releasing an already released clip is a no-op.
	Release(clip *Clip) error
}

// Clip is a handle to an audio file plus its probed duration. Clips created
// from intermediate processing own their backing file; loaded clips only
// borrow the source file.
type Clip struct {
	path     string
	duration float64
	owned    bool
	released bool
}

// NewClip builds a clip handle for an existing file. Owned clips delete their
// backing file on release.
func NewClip(path string, duration float64, owned bool) *Clip {
	return &Clip{path: path, duration: duration, owned: owned}
}

// Path returns the file backing the clip.
func (c *Clip) Path() string { return c.path }

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 { return c.duration }

// Released reports whether the clip has been released.
func (c *Clip) Released() bool { return c.released }
