package logging

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

var logFile *os.File

/*
Configure sets the level of the package-level logger. Verbose forces the
debug level and adds caller information.
*/
func Configure(level string, verbose bool) {
	parsed, err := log.ParseLevel(level)

	if err != nil {
		log.Warn("unknown log level, using info", "level", level)
		parsed = log.InfoLevel
	}

	if verbose {
		parsed = log.DebugLevel
	}

	log.SetLevel(parsed)
	log.SetReportCaller(verbose)
	log.SetReportTimestamp(true)
}

/*
ToFile sends log output to the file at path, so it does not interleave
with an interactive session on the terminal.
*/
func ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)

	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	Close()

	logFile = file
	log.SetOutput(logFile)
	log.Info("logging to file", "path", path)

	return nil
}

// Close restores stderr output and closes the log file, if any.
func Close() {
	if logFile == nil {
		return
	}

	log.SetOutput(os.Stderr)
	logFile.Close()
	logFile = nil
}
