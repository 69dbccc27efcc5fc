package notes

import (
	"strings"
	"time"

	"github.com/nleeper/goment"
)

const defaultPattern = "YYYY-MM-DD"

var unsafeChars = strings.NewReplacer(
	"*", "-",
	`"`, "-",
	`\`, "-",
	"<", "-",
	">", "-",
	":", "-",
	"|", "-",
	"?", "-",
)

// Sanitize replaces characters that are not allowed in note names with "-".
func Sanitize(name string) string {
	return unsafeChars.Replace(name)
}

// FormatMoment formats t with a Moment.js pattern such as "YYYY-MM-DD".
func FormatMoment(pattern string, t time.Time) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = defaultPattern
	}
	g, err := goment.New(t)
	if err != nil {
		return t.Format("2006-01-02")
	}
	return g.Format(pattern)
}

// Path returns the vault-relative note path (without extension) for a quick
// note created at now.
func Path(folder, pattern string, now time.Time) string {
	name := Sanitize(FormatMoment(pattern, now))
	return Sanitize(normalizePath(folder + "/" + name))
}

// normalizePath drops empty, "." and ".." segments so the result is always
// relative to the vault root.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\u00a0", " ")
	p = strings.ReplaceAll(p, `\`, "/")
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." && part != ".." {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}
