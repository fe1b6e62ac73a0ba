// Package nlog is the runtime's own buffered logger: severity-leveled,
// depth-aware of its caller, flushed by explicit Flush calls, and
// optionally rotated by size. Hand-rolled rather than pulled from an external logging
// library, mirroring how the teacher repo's own nlog package does it.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nalix-net/nalix/cmn/mono"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

const sevChar = "IWE"

var MaxSize int64 = 4 * 1024 * 1024

type nlogger struct {
	mu      sync.Mutex
	w       *bufio.Writer
	file    *os.File
	sev     severity
	written int64
	last    int64 // mono.NanoTime() of last write
}

var (
	nlogs        [3]*nlogger
	logDir       string
	aisrole      string
	title        string
	toStderr     bool
	alsoToStderr bool
	onceInit     sync.Once
)

func init() {
	for sev := sevInfo; sev <= sevErr; sev++ {
		nlogs[sev] = &nlogger{sev: sev}
	}
}

func SetLogDirRole(dir, role string) { logDir, aisrole = dir, role }
func SetTitle(s string)              { title = s }

func initFiles() {
	if toStderr {
		return
	}
	now := time.Now()
	for sev := sevInfo; sev <= sevErr; sev++ {
		nl := nlogs[sev]
		if logDir == "" {
			nl.w = bufio.NewWriter(os.Stderr)
			continue
		}
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			nl.w = bufio.NewWriter(os.Stderr)
			continue
		}
		name := logfname(sevName(sev), now)
		f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			nl.w = bufio.NewWriter(os.Stderr)
			continue
		}
		nl.file = f
		nl.w = bufio.NewWriter(f)
	}
}

func sevName(sev severity) string {
	switch sev {
	case sevWarn:
		return "WARNING"
	case sevErr:
		return "ERROR"
	default:
		return "INFO"
	}
}

func logfname(tag string, t time.Time) string {
	return fmt.Sprintf("%s.%s.%02d%02d-%02d%02d%02d.%d.log",
		aisrole, tag, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), os.Getpid())
}

func InfoDepth(depth int, args ...any)    { logv(sevInfo, depth, "", args...) }
func Infoln(args ...any)                  { logv(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { logv(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { logv(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { logv(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)   { logv(sevErr, depth, "", args...) }
func Errorln(args ...any)                 { logv(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { logv(sevErr, 0, format, args...) }

func logv(sev severity, depth int, format string, args ...any) {
	onceInit.Do(initFiles)

	line := render(sev, depth+1, format, args...)

	if toStderr || alsoToStderr || sev >= sevWarn {
		os.Stderr.WriteString(line)
	}
	if toStderr {
		return
	}

	nl := nlogs[sev]
	nl.mu.Lock()
	nl.w.WriteString(line)
	nl.written += int64(len(line))
	nl.last = mono.NanoTime()
	nl.mu.Unlock()

	if sev >= sevWarn {
		info := nlogs[sevInfo]
		info.mu.Lock()
		info.w.WriteString(line)
		info.mu.Unlock()
	}

	maybeRotate(nl)
}

func render(sev severity, depth int, format string, args ...any) string {
	var b strings.Builder
	b.WriteByte(sevChar[sev])
	b.WriteByte(' ')
	b.WriteString(time.Now().Format("15:04:05.000000"))
	b.WriteByte(' ')
	if _, fn, ln, ok := runtime.Caller(depth + 1); ok {
		if idx := strings.LastIndexByte(fn, '/'); idx >= 0 {
			fn = fn[idx+1:]
		}
		b.WriteString(fn)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(ln))
		b.WriteByte(' ')
	}
	if format == "" {
		fmt.Fprintln(&b, args...)
	} else {
		fmt.Fprintf(&b, format, args...)
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func maybeRotate(nl *nlogger) {
	nl.mu.Lock()
	defer nl.mu.Unlock()
	if nl.file == nil || nl.written < MaxSize {
		return
	}
	nl.w.Flush()
	nl.file.Close()
	now := time.Now()
	name := logfname(sevName(nl.sev), now)
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		nl.w = bufio.NewWriter(os.Stderr)
		nl.file = nil
		return
	}
	nl.file = f
	nl.w = bufio.NewWriter(f)
	nl.written = 0
}

// Flush writes buffered lines to their underlying files; pass exit=true on
// shutdown to also sync and close the files.
func Flush(exit ...bool) {
	onceInit.Do(initFiles)
	ex := len(exit) > 0 && exit[0]
	for sev := sevInfo; sev <= sevErr; sev++ {
		nl := nlogs[sev]
		nl.mu.Lock()
		if nl.w != nil {
			nl.w.Flush()
		}
		if ex && nl.file != nil {
			nl.file.Sync()
			nl.file.Close()
		}
		nl.mu.Unlock()
	}
}

// Since returns how long it has been since the most recent write to any
// severity's stream.
func Since() time.Duration {
	now := mono.NanoTime()
	least := int64(-1)
	for sev := sevInfo; sev <= sevErr; sev++ {
		nl := nlogs[sev]
		nl.mu.Lock()
		d := now - nl.last
		nl.mu.Unlock()
		if least < 0 || d < least {
			least = d
		}
	}
	return time.Duration(least)
}

// Writer exposes the info stream as an io.Writer, e.g. for redirecting a
// third-party library's own logger into ours.
func Writer() io.Writer { return writerFunc(func(p []byte) (int, error) {
	Infof("%s", string(p))
	return len(p), nil
}) }

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
