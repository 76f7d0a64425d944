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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotated log file inside the log directory.
const FileName = "safepdf.log"

// ⚙️ Options configure the process logger
type Options struct {
	Level string
	// Dir holds the rotated log file; no file is written when empty.
	Dir string
	// Console receives human readable output, os.Stderr when nil.
	Console io.Writer
	// ConsoleLevel filters what reaches Console; Level when empty.
	ConsoleLevel string
	NoColor      bool
}

// 🏗️ Setup builds the process logger: a console writer plus, when Dir is set,
// a JSON log rotated by size.
//
// The returned closer flushes and closes the log file.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, errors.Errorf("parsing log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	consoleLevel := level
	if opts.ConsoleLevel != "" {
		if consoleLevel, err = zerolog.ParseLevel(opts.ConsoleLevel); err != nil {
			return zerolog.Nop(), nil, errors.Errorf("parsing console log level: %w", err)
		}
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{minLevel{
		w:   zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen, NoColor: opts.NoColor},
		min: consoleLevel,
	}}

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return zerolog.Nop(), nil, errors.Errorf("creating log dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writers = append(writers, file)
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

// minLevel drops records below min.
type minLevel struct {
	w   io.Writer
	min zerolog.Level
}

func (m minLevel) Write(p []byte) (int, error) { return m.w.Write(p) }

func (m minLevel) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < m.min {
		return len(p), nil
	}
	return m.w.Write(p)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
