// Package dto holds request and response bodies shared by the HTTP
// adapter and the remote CLI client.
package dto

// SetManifestRequest is the body of POST /service/update-manifest.
type SetManifestRequest struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}
