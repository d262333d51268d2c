// Package config provides configuration helpers for milady commands.
package config

import (
	"os"
	"strconv"
)

// Default engine configuration.
const (
	DefaultPort       = "8090"
	DefaultEngineURL  = "ws://localhost:8090/ws/sensor"
	DefaultCatalogDir = "./catalog"
)

// Port returns the HTTP port from MILADY_PORT env var.
// Falls back to the default if not set.
func Port() string {
	if p := os.Getenv("MILADY_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// CatalogPath returns the catalog file or directory from MILADY_CATALOG.
// Falls back to the provided default if not set.
func CatalogPath(defaultPath string) string {
	if p := os.Getenv("MILADY_CATALOG"); p != "" {
		return p
	}
	if defaultPath != "" {
		return defaultPath
	}
	return DefaultCatalogDir
}

// EngineURL returns the engine websocket URL from MILADY_ENGINE_URL.
// Used by the sensor process to find the decision process.
func EngineURL() string {
	if u := os.Getenv("MILADY_ENGINE_URL"); u != "" {
		return u
	}
	return DefaultEngineURL
}

// CameraID returns the capture device index from CAMERA_ID env var.
// Falls back to device 0 if not set or unparsable.
func CameraID() int {
	if v := os.Getenv("CAMERA_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id >= 0 {
			return id
		}
	}
	return 0
}

// LogLevel returns the log level from MILADY_LOG_LEVEL env var.
func LogLevel() string {
	if l := os.Getenv("MILADY_LOG_LEVEL"); l != "" {
		return l
	}
	return "info"
}
