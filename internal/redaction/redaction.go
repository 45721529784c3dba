// Package redaction masks database credentials before they reach logs or
// terminal output.
package redaction

import (
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const replacement = "[REDACTED]"

// dsnInTextRe matches "user:password@tcp(" or "@unix(" inside free text.
// The password part is greedy up to the last network marker so '@', '/'
// and ':' inside it are covered.
var dsnInTextRe = regexp.MustCompile(`([A-Za-z0-9_.\-]+:)\S*@((?:tcp|unix)\()`)

// sensitivePatterns are applied in order by Redact. Each keeps its first
// group and replaces the rest of the match.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password\s*[:=]\s*)["']?[^\s"',;]+["']?`),
	regexp.MustCompile(`(?i)(passwd\s*[:=]\s*)["']?[^\s"',;]+["']?`),
	regexp.MustCompile(`(SPDB_DB_PASSWORD=)\S+`),
}

// Secret returns a fixed placeholder for a non-empty secret and "" for an
// empty one, so callers can still tell whether a value is configured.
func Secret(s string) string {
	if s == "" {
		return ""
	}
	return replacement
}

// DSN masks the password of a MySQL data source name. The DSN is parsed by
// the driver, so any character in the password is handled. Strings that are
// not MySQL DSNs or carry no password are returned unchanged.
func DSN(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil || cfg.Passwd == "" {
		return dsn
	}
	cfg.Passwd = replacement
	return cfg.FormatDSN()
}

// Redact masks the given secrets wherever they appear in text, then DSN
// credentials and password assignments, keeping keys readable.
func Redact(text string, secrets ...string) string {
	for _, s := range secrets {
		if s != "" {
			text = strings.ReplaceAll(text, s, replacement)
		}
	}
	text = dsnInTextRe.ReplaceAllString(text, "${1}"+replacement+"@${2}")
	for _, re := range sensitivePatterns {
		text = re.ReplaceAllString(text, "${1}"+replacement)
	}
	return text
}
