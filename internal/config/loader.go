package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Load reads Settings from path, writing a fresh default file first if
// none exists. Malformed individual fields are logged and fall back
// to their default rather than aborting the whole load.
func Load(path, homeDir string, logger *slog.Logger) (*Settings, error) {
	s := Default(homeDir)
	s.filename = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("no existing configuration file found, writing defaults", "path", path)
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}

	logger.Info("found existing configuration file", "path", path)
	cfg, err := ini.Load(path)
	if err != nil {
		logger.Error("unhandled error parsing configuration file, using defaults", "path", path, "error", err)
		return s, nil
	}

	if sec := cfg.Section("credentials"); sec != nil {
		if k := sec.Key("username"); k.String() != "" {
			s.Username = k.String()
		}
		if k := sec.Key("password"); k.String() != "" {
			s.Password = k.String()
		}
	}

	if sec := cfg.Section("downloads"); sec != nil {
		if k := sec.Key("directory"); k.String() != "" {
			s.DownloadsDir = k.String()
		}
		if k := sec.Key("filetype"); k.String() != "" {
			filetype := strings.ToUpper(k.String())
			if ValidFiletypes[filetype] {
				s.Filetype = filetype
			} else {
				logger.Error("invalid filetype specified, using default",
					"path", path, "valid_types", validFiletypesString(), "default", DefaultDownloadsFiletype)
			}
		}
	}

	if sec := cfg.Section("engine"); sec != nil {
		if k := sec.Key("should_use_threading"); k.String() != "" {
			if v, err := strconv.Atoi(k.String()); err == nil {
				s.ShouldUseThreading = v != 0
			} else {
				logger.Error("invalid value for engine:should_use_threading, must be 0 or 1")
			}
		}
		if k := sec.Key("concurrency_limit"); k.String() != "" {
			if v, err := strconv.Atoi(k.String()); err == nil && v > 0 {
				s.ConcurrencyLimit = v
			} else {
				logger.Error("invalid concurrency_limit, using default",
					"value", k.String(), "default", DefaultConcurrencyLimit)
			}
		}
		if k := sec.Key("should_rate_limit"); k.String() != "" {
			if v, err := strconv.Atoi(k.String()); err == nil {
				s.ShouldRateLimit = v != 0
			} else {
				logger.Error("invalid value for engine:should_rate_limit, must be 0 or 1")
			}
		}
	}

	logger.Info("done parsing existing configuration")
	return s, nil
}

func validFiletypesString() string {
	names := make([]string, 0, len(ValidFiletypes))
	for name := range ValidFiletypes {
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
