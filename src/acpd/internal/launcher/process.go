package launcher

import (
	"errors"
	"io"
	"os"
	"os/exec"
)

// Process is a running child with its three standard streams piped to us.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	stderr *os.File

	done chan struct{}
	err  error
}

// start launches cmd. Stdout and stderr go through os pipes rather than cmd's own pipes,
// so reaping the child never closes a reader that is still in use.
func start(cmd *exec.Cmd) (*Process, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		stdoutR.Close()
		stdoutW.Close()
		return nil, err
	}

	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	startErr := cmd.Start()
	// The child holds its own copies of the write ends.
	stdoutW.Close()
	stderrW.Close()
	if startErr != nil {
		stdin.Close()
		stdoutR.Close()
		stderrR.Close()
		return nil, startErr
	}

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdoutR,
		stderr: stderrR,
		done:   make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

func (p *Process) wait() {
	p.err = p.cmd.Wait()
	close(p.done)
}

// Stdin is the write half of the child's input stream.
func (p *Process) Stdin() io.WriteCloser { return p.stdin }

// Stdout is the read half of the child's output stream.
func (p *Process) Stdout() io.ReadCloser { return p.stdout }

// Stderr is the read half of the child's diagnostic stream.
func (p *Process) Stderr() io.ReadCloser { return p.stderr }

// Pid returns the child's process id.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Done is closed once the child has exited and been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the child exits and returns its exit error, if any.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Kill terminates the child. Killing a process that has already exited is not an error.
func (p *Process) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
