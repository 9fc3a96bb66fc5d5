// Package executor builds installer command lines and runs them.
package executor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zldap/agent/pkg/models"
)

// MessageSuccess is reported for a zero exit code
const MessageSuccess = "Installed successfully"

// windowsOnlyExtensions cannot be started natively on other hosts
var windowsOnlyExtensions = []string{".exe", ".msi"}

// Outcome is the acknowledged result of running a command
type Outcome struct {
	Status    string // models.AckStatusSuccess or models.AckStatusFailed
	Message   string
	ExitCode  int
	Simulated bool
	Duration  time.Duration
}

// SpawnError reports a process that could not be started
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Executor runs resolved commands synchronously
type Executor struct {
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
	goos   string
}

// New creates an Executor that forwards child output to the agent's own streams
func New(logger *zap.Logger) *Executor {
	return &Executor{
		logger: logger.Named("executor"),
		stdout: os.Stdout,
		stderr: os.Stderr,
		goos:   runtime.GOOS,
	}
}

// Run starts cmd and blocks until it exits. There is no timeout: a hung
// installer blocks the caller. A non-zero exit is a failed Outcome, not an
// error. A start failure is a *SpawnError unless artifactName is a
// Windows-only format on another OS, in which case success is simulated.
func (e *Executor) Run(cmd *Command, artifactName string) (*Outcome, error) {
	e.logger.Info("starting process",
		zap.String("executable", cmd.Executable),
		zap.Strings("args", cmd.Args),
	)

	c := exec.Command(cmd.Executable, cmd.Args...)
	c.Stdout = e.stdout
	c.Stderr = e.stderr

	start := time.Now()
	err := c.Run()
	duration := time.Since(start)

	if err == nil {
		e.logger.Info("process completed", zap.Duration("duration", duration))
		return &Outcome{
			Status:   models.AckStatusSuccess,
			Message:  MessageSuccess,
			Duration: duration,
		}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		e.logger.Error("process failed",
			zap.Int("exit_code", code),
			zap.Duration("duration", duration),
		)
		return &Outcome{
			Status:   models.AckStatusFailed,
			Message:  fmt.Sprintf("Exit Code: %d", code),
			ExitCode: code,
			Duration: duration,
		}, nil
	}

	if ext, ok := e.foreignArtifact(artifactName); ok {
		e.logger.Warn("cannot run Windows artifact on this host, simulating success",
			zap.String("artifact", artifactName),
			zap.String("os", e.goos),
			zap.Error(err),
		)
		return &Outcome{
			Status:    models.AckStatusSuccess,
			Message:   fmt.Sprintf("Simulated success: %s artifacts cannot run on %s", ext, e.goos),
			Simulated: true,
			Duration:  duration,
		}, nil
	}

	return nil, &SpawnError{Executable: cmd.Executable, Err: err}
}

// foreignArtifact reports whether name is a Windows-only format on a non-Windows host
func (e *Executor) foreignArtifact(name string) (string, bool) {
	if e.goos == "windows" {
		return "", false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, w := range windowsOnlyExtensions {
		if ext == w {
			return ext, true
		}
	}
	return "", false
}
