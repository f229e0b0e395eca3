package audio

import (
	"fmt"
	"log/slog"

	"github.com/bogem/id3v2"
)

// TagMashup writes ID3 metadata onto a finished mp3 mashup: the artist, a
// generated title and a comment recording how many clips went into it.
func TagMashup(path, artist string, clipCount int) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open file for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetArtist(artist)
	tag.SetTitle(fmt.Sprintf("%s Mashup", artist))
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    id3v2.EncodingUTF8,
		Language:    "eng",
		Description: "",
		Text:        fmt.Sprintf("%d clips", clipCount),
	})

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	slog.Debug("Tagged mashup", "path", path, "artist", artist, "clips", clipCount)
	return nil
}
