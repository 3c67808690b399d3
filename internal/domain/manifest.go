package domain

// Manifest is the single published update target clients poll against.
type Manifest struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}
