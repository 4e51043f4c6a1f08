// Package config implements configuration loading and persistence: an
// INI-format settings file with credentials, download, and engine
// sections, read with gopkg.in/ini.v1 and written back through a
// fixed template. Saving rewrites the whole file from that template,
// so comments or layout a user added by hand are not kept.
package config

import "path/filepath"

// ValidFiletypes enumerates the rendered formats the archive serves.
var ValidFiletypes = map[string]bool{
	"AZW3": true,
	"EPUB": true,
	"HTML": true,
	"MOBI": true,
	"PDF":  true,
}

const (
	DataDir                 = "data"
	BookmarksDir            = "bookmarks"
	DefaultDownloadsDir     = "downloads"
	DefaultDownloadsFiletype = "PDF"
	DefaultConcurrencyLimit = 20
	LogFile                 = "log.txt"
	ConfigurationFile       = "settings.ini"
	MinConcurrency          = 1
	MaxConcurrency          = 50
)

// Settings is the configuration data model: credentials, download
// target, and engine tuning, loaded once at controller construction.
type Settings struct {
	Username string
	Password string

	DownloadsDir string
	Filetype     string

	ShouldUseThreading bool
	ConcurrencyLimit   int
	ShouldRateLimit    bool

	filename string
}

// Default returns the configuration defaults a fresh install writes to
// disk when no settings file exists yet.
func Default(homeDir string) *Settings {
	return &Settings{
		DownloadsDir:       filepath.Join(homeDir, DefaultDownloadsDir),
		Filetype:           DefaultDownloadsFiletype,
		ShouldUseThreading: true,
		ConcurrencyLimit:   DefaultConcurrencyLimit,
		ShouldRateLimit:    false,
	}
}

// WorkerCount returns 1 if threading is disabled or the configured
// limit is 1, else the configured limit clamped to [1, 50].
func (s *Settings) WorkerCount() int {
	if !s.ShouldUseThreading || s.ConcurrencyLimit == 1 {
		return 1
	}
	n := s.ConcurrencyLimit
	if n < MinConcurrency {
		n = MinConcurrency
	}
	if n > MaxConcurrency {
		n = MaxConcurrency
	}
	return n
}
