package config

import (
	"fmt"
	"os"
)

// template reproduces the settings file layout byte-for-byte,
// comments included, so the file stays approachable for a user
// hand-editing it. gopkg.in/ini.v1 can read this format but cannot
// regenerate this exact comment block on write, so persistence uses a
// literal template instead.
const template = `
; ao3dl config file example
;
; This is an example configuration file.
; Lines beginning with the ` + "`;`" + ` character indicate a comment and will not be
; processed.
; Please make a copy of this file as ` + "`settings.ini`" + ` and make your changes in
; the new file.

; If no username and password is specified in this section, the tool will run
; in guest mode.
;
; Some archive features are not available while browsing in guest mode. If
; you would like to login and access bookmarks, etc. you can specify your
; credentials in this section.
[credentials]
username=%s
password=%s

; This section controls settings for downloads. By default, files will be
; downloaded to the 'downloads' folder in the same directory as the tool.
; Valid choices for filetype include: AZW3, EPUB, HTML, MOBI, PDF
[downloads]
directory=%s
filetype=%s

; This section controls settings for how the tool behaves.
; Threading enables multiple downloads to occur concurrently. This will make
; bulk downloading a lot faster.
[engine]
should_use_threading=%d
concurrency_limit=%d
should_rate_limit=%d
`

// Save writes s to its configured filename.
func (s *Settings) Save() error {
	body := fmt.Sprintf(template,
		s.Username,
		s.Password,
		s.DownloadsDir,
		s.Filetype,
		boolToInt(s.ShouldUseThreading),
		s.ConcurrencyLimit,
		boolToInt(s.ShouldRateLimit),
	)
	return os.WriteFile(s.filename, []byte(body), 0o600)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
