package domain

// Source represents a single resolved video on the platform.
type Source struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Uploader string  `json:"uploader,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// DisplayTitle returns the title, falling back to the platform ID when the
// resolver could not extract one.
func (s Source) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}
