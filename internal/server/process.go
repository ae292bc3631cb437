package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const (
	procRoot             = "/proc"
	deletedExecutableTag = " (deleted)"
)

// Process is a spawned child the caller may terminate or let go.
type Process interface {
	PID() int
	Kill() error
	Release() error
}

// Spawner starts and locates operating system processes.
type Spawner interface {
	Start(ctx context.Context, name string, arguments ...string) (Process, error)
	Find(pid int) (Process, error)
	// Executable reports the program a running process executes.
	// A process that no longer exists yields os.ErrProcessDone.
	Executable(pid int) (string, error)
}

// ExecSpawner implements Spawner with os/exec.
type ExecSpawner struct{}

// NewExecSpawner returns the os/exec backed Spawner.
func NewExecSpawner() ExecSpawner {
	return ExecSpawner{}
}

// Start launches name without waiting for it. The child is not bound to ctx so it outlives the command.
func (ExecSpawner) Start(ctx context.Context, name string, arguments ...string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// #nosec G204
	command := exec.Command(name, arguments...)
	command.Stdin = nil
	command.Stdout = nil
	command.Stderr = nil
	if err := command.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return osProcess{process: command.Process}, nil
}

// Find returns a handle for an already running process.
func (ExecSpawner) Find(pid int) (Process, error) {
	process, err := os.FindProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("find process %d: %w", pid, err)
	}
	return osProcess{process: process}, nil
}

// Executable reads /proc/<pid>/exe, or asks ps where /proc is unavailable.
func (ExecSpawner) Executable(pid int) (string, error) {
	if _, statErr := os.Stat(procRoot); statErr == nil {
		target, err := os.Readlink(filepath.Join(procRoot, strconv.Itoa(pid), "exe"))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", os.ErrProcessDone
			}
			return "", fmt.Errorf("inspect process %d: %w", pid, err)
		}
		return strings.TrimSuffix(target, deletedExecutableTag), nil
	}
	// #nosec G204
	output, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "comm=").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", os.ErrProcessDone
		}
		return "", fmt.Errorf("inspect process %d: %w", pid, err)
	}
	name := strings.TrimSpace(string(output))
	if name == "" {
		return "", os.ErrProcessDone
	}
	return name, nil
}

// sameExecutable compares two program references by path, falling back to the base name
// when either side is a bare command name.
func sameExecutable(recorded string, running string) bool {
	if recorded == "" || running == "" {
		return false
	}
	if filepath.Clean(recorded) == filepath.Clean(running) {
		return true
	}
	return filepath.Base(recorded) == filepath.Base(running)
}

type osProcess struct {
	process *os.Process
}

func (handle osProcess) PID() int {
	return handle.process.Pid
}

func (handle osProcess) Kill() error {
	return handle.process.Kill()
}

func (handle osProcess) Release() error {
	return handle.process.Release()
}

// processGone reports errors that mean the process had already exited.
func processGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH)
}
