package runner

import (
	"errors"
	"io"
	"os/exec"

	"github.com/creack/pty"
)

// spawnPTY starts the runner under a pseudo terminal so stdout and stderr
// arrive interleaved, in the order the user would see them in a terminal.
func spawnPTY(r *Run, dir string, onExit func(code int)) error {
	if len(r.Command) == 0 {
		return ErrNoCommand
	}
	cmd := exec.Command(r.Command[0], r.Command[1:]...)
	cmd.Dir = dir
	cmd.Env = append(cmd.Environ(), "TERM=xterm-256color", "FORCE_COLOR=1")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	r.kill = func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}

	go func() {
		readLoop(r, ptmx)
		ptmx.Close()
		onExit(exitCode(cmd.Wait()))
	}()
	return nil
}

func readLoop(r *Run, src io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			r.emit(buf[:n])
		}
		if err != nil {
			// Linux reports EIO on the master once the child side closes.
			return
		}
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
