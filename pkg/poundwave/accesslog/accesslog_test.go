package accesslog

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return New(level, log), &buf
}

func sampleEntry() Entry {
	return Entry{
		ClientAddr: "10.0.0.1:5555",
		Method:     "GET",
		URL:        "/index.html",
		Proto:      "HTTP/1.1",
		Status:     200,
		BytesSent:  512,
		Duration:   250 * time.Millisecond,
		VHost:      "www.example.com",
		Username:   "",
		Referer:    "",
		UserAgent:  "curl/8.0",
		BackendStr: "10.0.0.5:8080",
	}
}

func TestLevelSilentWritesNothing(t *testing.T) {
	l, buf := newTestLogger(LevelSilent)
	l.Log(sampleEntry())
	if buf.Len() != 0 {
		t.Errorf("expected no output at LevelSilent, got %q", buf.String())
	}
}

func TestLevelBasicIncludesStatusAndRequest(t *testing.T) {
	l, buf := newTestLogger(LevelBasic)
	l.Log(sampleEntry())
	out := buf.String()
	if !contains(out, "GET /index.html HTTP/1.1") || !contains(out, "200") {
		t.Errorf("unexpected basic log line: %q", out)
	}
}

func TestLevelBackendTimingIncludesBackendAndSeconds(t *testing.T) {
	l, buf := newTestLogger(LevelBackendTiming)
	l.Log(sampleEntry())
	out := buf.String()
	if !contains(out, "10.0.0.5:8080") || !contains(out, "0.250 sec") {
		t.Errorf("unexpected backend-timing log line: %q", out)
	}
}

func TestLevelCombinedWithVhostPrefixesHost(t *testing.T) {
	l, buf := newTestLogger(LevelCombinedWithVhost)
	l.Log(sampleEntry())
	out := buf.String()
	if !contains(out, "www.example.com") {
		t.Errorf("expected vhost in combined log line: %q", out)
	}
}

func TestLevelCombinedNoVhostOmitsHost(t *testing.T) {
	l, buf := newTestLogger(LevelCombinedNoVhost)
	l.Log(sampleEntry())
	out := buf.String()
	if contains(out, "www.example.com") {
		t.Errorf("vhost should be omitted at LevelCombinedNoVhost: %q", out)
	}
	if !contains(out, "curl/8.0") {
		t.Errorf("expected user agent in combined log line: %q", out)
	}
}

func TestCombinedLineShowsDashForZeroBytes(t *testing.T) {
	l, buf := newTestLogger(LevelCombinedWithVhost)
	e := sampleEntry()
	e.BytesSent = 0
	l.Log(e)
	out := buf.String()
	if !contains(out, `\" 200 - \"`) {
		t.Errorf("expected dash for zero bytes sent, got %q", out)
	}
}

func TestCombinedLineShowsByteCountWhenNonZero(t *testing.T) {
	l, buf := newTestLogger(LevelCombinedWithVhost)
	l.Log(sampleEntry())
	out := buf.String()
	if !contains(out, `\" 200 512 \"`) {
		t.Errorf("expected byte count 512, got %q", out)
	}
}

func contains(s, substr string) bool {
	return bytes.Contains([]byte(s), []byte(substr))
}
