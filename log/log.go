// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/jrick/logrotate/rotator"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type (
	Logger      = ethlog.Logger
	Ctx         = ethlog.Ctx
	Lvl         = ethlog.Lvl
	Handler     = ethlog.Handler
	GlogHandler = ethlog.GlogHandler
)

const (
	LvlCrit  = ethlog.LvlCrit
	LvlError = ethlog.LvlError
	LvlWarn  = ethlog.LvlWarn
	LvlInfo  = ethlog.LvlInfo
	LvlDebug = ethlog.LvlDebug
	LvlTrace = ethlog.LvlTrace
)

var (
	glogger *GlogHandler

	logWrite *logWriter
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct {
	// logRotator is one of the logging outputs.  It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	// Use for color terminal
	colorableWrite io.Writer
}

func (lw *logWriter) Init() {
	// init a colorful logger if possible
	usecolor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"

	if usecolor {
		lw.colorableWrite = colorable.NewColorableStderr()
	}
}

func (lw *logWriter) Close() {
	if lw.logRotator != nil {
		lw.logRotator.Close()
	}
}

func (lw *logWriter) IsUseColor() bool {
	return lw.colorableWrite != nil
}

func (lw *logWriter) Write(p []byte) (n int, err error) {
	if lw.logRotator != nil {
		lw.logRotator.Write(p)
	}

	if lw.colorableWrite != nil {
		lw.colorableWrite.Write(p)
	} else {
		os.Stderr.Write(p)
	}
	return len(p), nil
}

func init() {
	// output set to Stderr
	// it's easier to handle when run as a daemon through systemd or supervisord,
	// and Go runtime exceptions are printed to stderr as well.
	logWrite = &logWriter{}
	logWrite.Init()
	glogger = ethlog.NewGlogHandler(ethlog.StreamHandler(io.Writer(logWrite), ethlog.TerminalFormat(logWrite.IsUseColor())))

	Root().SetHandler(glogger)

	glogger.Verbosity(LvlInfo)
}

// InitLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory.  It must be called before the
// package-global log rotater variables are used.
func InitLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	logWrite.logRotator = r
}

// SetLevel parses one of {trace, debug, info, warn, error, crit} and applies
// it to the root handler.
func SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	glogger.Verbosity(lvl)
	return nil
}

// ParseLevel maps a level name to its Lvl. "critical" is accepted as an
// alias of "crit".
func ParseLevel(level string) (Lvl, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "critical" {
		level = "crit"
	}
	return ethlog.LvlFromString(level)
}

// PrintOrigins toggles file:line annotations on every record.
func PrintOrigins(print bool) {
	ethlog.PrintOrigins(print)
}

// Discard silences the root logger. Used by tests.
func Discard() {
	Root().SetHandler(ethlog.DiscardHandler())
}

func LogWrite() *logWriter {
	return logWrite
}

func Glogger() *GlogHandler {
	return glogger
}

func New(ctx ...interface{}) Logger {
	return ethlog.New(ctx...)
}

func Root() Logger {
	return ethlog.Root()
}

func Trace(msg string, ctx ...interface{}) { ethlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { ethlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { ethlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { ethlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { ethlog.Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { ethlog.Root().Crit(msg, ctx...) }
