// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	artifactIndent = 4  // spaces to indent artifact entries
	nameWidth      = 35 // Base width for filename
	kindWidth      = 8  // Width for artifact kind
	sizeWidth      = 12 // Width for size text
)

// 📄 Artifact is a file written by an operation
type Artifact struct {
	Path     string // Output path
	Size     int64  // Bytes written, negative when unknown
	Replaced bool   // True when the write overwrote an existing output
}

// Kind is the lower-cased extension of the artifact, "dir" for directories.
func (a Artifact) Kind() string {
	ext := filepath.Ext(a.Path)
	if ext == "" {
		return "dir"
	}
	return ext[1:]
}

// 📦 Job describes one operation run for logging
type Job struct {
	Operation string // Operation name
	Input     string // Input document
	Target    string // Output file or directory
}

// 🎯 Logger mirrors operation activity to the console and to zerolog
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	current   *Job
	artifacts []Artifact
}

// 🏭 New creates a new logger writing human output to console
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

func (l *Logger) formatArtifact(a Artifact) string {
	symbol, symbolColor := '✓', color.FgGreen
	if a.Replaced {
		symbol, symbolColor = '⟳', color.FgBlue
	}

	var kindColor color.Attribute
	switch a.Kind() {
	case "pdf":
		kindColor = color.FgCyan
	case "dir":
		kindColor = color.FgYellow
	default:
		kindColor = color.FgMagenta
	}

	size := "-"
	if a.Size >= 0 {
		size = humanSize(a.Size)
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", artifactIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, filepath.Base(a.Path)),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, a.Kind())),
		fmt.Sprintf("%*s", sizeWidth, size))
}

// 📝 LogArtifact logs a file written by the current operation
func (l *Logger) LogArtifact(ctx context.Context, a Artifact) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.artifacts = append(l.artifacts, a)
	fmt.Fprintln(l.console, l.formatArtifact(a))

	l.zlog.Info().
		Str("path", a.Path).
		Str("kind", a.Kind()).
		Int64("size", a.Size).
		Bool("replaced", a.Replaced).
		Msg("artifact written")
}

// 📝 StartOperation prints the banner of a new operation
func (l *Logger) StartOperation(ctx context.Context, job Job) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &job
	l.artifacts = nil

	fmt.Fprintf(l.console, "[%s %s]\n",
		job.Operation,
		color.New(color.FgCyan).Sprint(filepath.Base(job.Input)))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(job.Input),
		color.New(color.Faint).Sprint("→"),
		color.New(color.FgYellow).Sprint(job.Target))

	l.zlog.Info().
		Str("operation", job.Operation).
		Str("input", job.Input).
		Str("target", job.Target).
		Msg("starting operation")
}

// 📝 EndOperation prints the outcome of the current operation
func (l *Logger) EndOperation(ctx context.Context, success bool, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	if success {
		fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(message))
	} else {
		fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(message))
	}

	l.zlog.Info().
		Str("operation", l.current.Operation).
		Bool("success", success).
		Int("artifacts", len(l.artifacts)).
		Msg("operation complete")

	l.current = nil
	l.artifacts = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("safepdf")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warningf(format string, args ...any) {
	l.Warning(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Successf(format string, args ...any) {
	l.Success(fmt.Sprintf(format, args...))
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
