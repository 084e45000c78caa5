// Package launch starts hook commands as detached processes.
//
// A launched command runs in its own session with stdin, stdout, and stderr
// on the null device. The server never waits on it: killing the server
// leaves running hooks untouched. os/exec performs fork+exec as a single
// primitive, so no server state is observable between fork and exec; the
// Spec handed to Start is fully built beforehand and holds no references
// into shared structures.
package launch

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"github.com/rookhook/rook/internal/log"
)

// Spec describes one process launch. Env entries are "KEY=VALUE" strings
// appended to the server's environment; Args become the command's argument
// vector. A Spec carries everything the launch needs, already copied.
type Spec struct {
	Command string
	Args    []string
	Env     []string
}

// Launcher starts a command described by a Spec. Start returns once the
// process has been created (or creation failed); it never reflects the
// command's eventual exit status.
type Launcher interface {
	Start(spec Spec) error
}

// Detached launches specs in a new session with silenced stdio.
type Detached struct {
	logger *slog.Logger
}

// NewDetached creates the standard launcher.
func NewDetached() *Detached {
	return &Detached{logger: log.WithComponent("launch")}
}

// Start creates the process and returns immediately. A goroutine reaps the
// child when it eventually exits so no zombie accumulates while the server
// lives; after the server dies the process is reparented and keeps running.
func (d *Detached) Start(spec Spec) error {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)

	// Stdin/Stdout/Stderr left nil: the child gets the null device.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", spec.Command, err)
	}

	d.logger.Debug("hook command started", "command", spec.Command, "pid", cmd.Process.Pid)

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
