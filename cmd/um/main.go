/*
 * um - Main process.
 *
 * Copyright 2026, the um authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"io"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/umcore/um/internal/loader"
	"github.com/umcore/um/internal/machine"
	"github.com/umcore/um/internal/obslog"
)

// Exit statuses. Zero on Halt; a distinct nonzero status on every
// other failure mode.
const (
	exitSuccess = 0
	exitLoad    = 1
	exitFault   = 2
)

func main() {
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(exitSuccess)
	}

	logOut := io.Writer(os.Stderr)
	if *optLogFile != "" {
		file, err := os.Create(*optLogFile)
		if err != nil {
			slog.New(obslog.New(os.Stderr, slog.LevelInfo)).Error("failed to open log file", "error", err)
			os.Exit(exitLoad)
		}
		defer file.Close()
		logOut = io.MultiWriter(os.Stderr, file)
	}
	logger := slog.New(obslog.New(logOut, slog.LevelInfo))
	slog.SetDefault(logger)

	var path string
	if rest := getopt.Args(); len(rest) > 0 {
		path = rest[0]
	}

	program, err := loader.LoadPath(path)
	if err != nil {
		logger.Error("failed to load program image", "error", err)
		os.Exit(exitLoad)
	}

	m := machine.New(program, os.Stdin, os.Stdout)
	if err := m.Run(); err != nil {
		logger.Error("fatal fault", "error", err)
		os.Exit(exitFault)
	}
	os.Exit(exitSuccess)
}
