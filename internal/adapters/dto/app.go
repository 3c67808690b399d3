package dto

// AppInfo is returned by GET /app/info.
type AppInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
