// Package accesslog implements Pound's five access-log verbosity levels,
// using logrus for structured output.
package accesslog

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Level selects how much detail is logged per request.
type Level int

const (
	LevelSilent Level = iota
	LevelBasic
	LevelBackendTiming
	LevelCombinedWithVhost
	LevelCombinedNoVhost
)

// Entry captures the fields needed across every log level; callers fill in
// whichever subset their Level actually uses.
type Entry struct {
	ClientAddr string
	Method     string
	URL        string
	Proto      string
	Status     int
	BytesSent  int64
	Duration   time.Duration

	VHost      string
	Username   string // from Basic auth, if present
	Referer    string
	UserAgent  string
	BackendStr string // e.g. "10.0.0.5:8080"
}

// Logger writes one line per request at the configured Level.
type Logger struct {
	level Level
	log   *logrus.Logger
}

// New returns a Logger at level, writing through log (nil uses
// logrus.StandardLogger()).
func New(level Level, log *logrus.Logger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{level: level, log: log}
}

// Log writes one access-log entry, or nothing at LevelSilent.
func (l *Logger) Log(e Entry) {
	switch l.level {
	case LevelSilent:
		return

	case LevelBasic:
		l.log.WithFields(logrus.Fields{
			"client": e.ClientAddr,
			"status": e.Status,
		}).Infof("%s %s - %d", e.ClientAddr, requestLine(e), e.Status)

	case LevelBackendTiming:
		l.log.WithFields(logrus.Fields{
			"client":  e.ClientAddr,
			"status":  e.Status,
			"backend": e.BackendStr,
			"seconds": e.Duration.Seconds(),
		}).Infof("%s %s - %d (%s) %.3f sec", e.ClientAddr, requestLine(e), e.Status, e.BackendStr, e.Duration.Seconds())

	case LevelCombinedWithVhost:
		l.log.WithFields(combinedFields(e)).Info(combinedLine(vhostOrDash(e.VHost), e))

	case LevelCombinedNoVhost:
		l.log.WithFields(combinedFields(e)).Info(combinedLine("", e))
	}
}

func requestLine(e Entry) string {
	return fmt.Sprintf("%s %s %s", e.Method, e.URL, e.Proto)
}

func vhostOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func combinedFields(e Entry) logrus.Fields {
	return logrus.Fields{
		"client":   e.ClientAddr,
		"status":   e.Status,
		"bytes":    e.BytesSent,
		"username": orDash(e.Username),
		"referer":  e.Referer,
		"agent":    e.UserAgent,
	}
}

// combinedLine formats Apache Combined Log Format, with the virtual host
// prefixed when vhost is non-empty (level 3) and omitted when empty
// (level 4).
func combinedLine(vhost string, e Entry) string {
	ts := time.Now().Format("02/Jan/2006:15:04:05 -0700")
	line := fmt.Sprintf("%s - %s [%s] %q %d %s %q %q",
		e.ClientAddr, orDash(e.Username), ts, requestLine(e), e.Status, bytesOrDash(e.BytesSent),
		orDash(e.Referer), orDash(e.UserAgent))
	if vhost != "" {
		return vhost + " " + line
	}
	return line
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// bytesOrDash renders a byte count as Apache combined log format does: "-"
// when nothing was sent or the count is unknown, the decimal value
// otherwise.
func bytesOrDash(n int64) string {
	if n <= 0 {
		return "-"
	}
	return strconv.FormatInt(n, 10)
}
