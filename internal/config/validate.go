package config

import "fmt"

// Validate checks Settings for invalid values the loader's per-field
// recovery wouldn't already have caught (e.g. from a caller
// constructing Settings directly rather than via Load).
func Validate(s *Settings) error {
	if s.ConcurrencyLimit < 1 {
		return fmt.Errorf("engine.concurrency_limit must be >= 1, got %d", s.ConcurrencyLimit)
	}
	if !ValidFiletypes[s.Filetype] {
		return fmt.Errorf("downloads.filetype %q is not supported (valid: %s)", s.Filetype, validFiletypesString())
	}
	if s.DownloadsDir == "" {
		return fmt.Errorf("downloads.directory must not be empty")
	}
	return nil
}
