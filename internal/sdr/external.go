package sdr

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"
)

// ExternalDriver execs a vendor capture binary (e.g. a HackRF/LimeSDR/PXSDR
// command-line tool this module has no direct binding for) under a pty, so
// its line-buffered stderr diagnostics reach the structured logger instead
// of being lost or interleaving raw stdout. Stdout is treated as the raw IQ
// stream.
type ExternalDriver struct {
	NoGain

	Command string
	Args    []string
	Format  Format

	// Log receives each stderr line the subprocess emits, for the caller
	// to forward to a structured logger.
	Log func(line string)

	cmd *exec.Cmd
	pt  *os.File
}

func NewExternalDriver(command string, args []string, format Format) *ExternalDriver {
	return &ExternalDriver{Command: command, Args: args, Format: format}
}

func (d *ExternalDriver) InitConfig() error { return nil }

func (d *ExternalDriver) HandleOption(argv []string, idx int) (int, error) {
	if argv[idx] == "--external-arg" && idx+1 < len(argv) {
		d.Args = append(d.Args, argv[idx+1])
		return 2, nil
	}
	return 0, nil
}

func (d *ExternalDriver) Open() error {
	d.cmd = exec.Command(d.Command, d.Args...)
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("sdr: external stderr pipe: %w", err)
	}
	d.cmd.Stderr = stderrW

	ptmx, err := pty.Start(d.cmd)
	if err != nil {
		stderrR.Close()
		stderrW.Close()
		return fmt.Errorf("sdr: external pty start: %w", err)
	}
	d.pt = ptmx

	stderrW.Close()
	go d.drainStderr(stderrR)
	return nil
}

func (d *ExternalDriver) drainStderr(r *os.File) {
	defer r.Close()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if d.Log != nil {
			d.Log(sc.Text())
		}
	}
}

func (d *ExternalDriver) Close() error {
	var err error
	if d.pt != nil {
		err = d.pt.Close()
		d.pt = nil
	}
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
		_ = d.cmd.Wait()
	}
	return err
}

func (d *ExternalDriver) Run(ctx context.Context, sink Sink) error {
	stride := d.Format.BytesPerSample()
	buf := make([]byte, 65536-(65536%stride))

	// pending holds bytes read but not yet forming a whole sample; a pty
	// read can return at any byte boundary, so the remainder is carried
	// into the next read rather than dropped (which would permanently
	// desync I/Q framing for the rest of the stream).
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := d.pt.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			aligned := len(pending) - (len(pending) % stride)
			if aligned > 0 {
				chunk := make([]byte, aligned)
				copy(chunk, pending[:aligned])
				sink(RawBlock{Format: d.Format, IQ: chunk, SysTimestamp: time.Now().UnixMilli()})
			}
			pending = append(pending[:0], pending[aligned:]...)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("sdr: external pty read: %w", err)
		}
	}
}
