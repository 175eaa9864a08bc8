package handlers

import (
	"net/http"
	"os"
	"strings"
	"sync"
)

// Version is set at build time or read from version.txt
var (
	version     string
	versionOnce sync.Once
)

// VersionHandler reports the running server version.
type VersionHandler struct{}

type VersionResponse struct {
	Version string `json:"version"`
}

// NewVersionHandler creates a new VersionHandler.
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// ServerVersion reads the version from version.txt (cached after first read).
func ServerVersion() string {
	versionOnce.Do(func() {
		paths := []string{
			"version.txt",
			"/app/version.txt", // Docker container path
		}

		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err == nil {
				version = strings.TrimSpace(string(data))
				return
			}
		}

		version = "unknown"
	})
	return version
}

// GetVersion returns the server version.
func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: ServerVersion()})
}
