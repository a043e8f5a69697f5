// Package history defines the download cache domain types and interfaces.
package history

// Entry is one recorded download: the source URL and the relative path
// it was stored under. Paths always use forward slashes.
type Entry struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}
