//go:build linux

package memory

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Process reads the memory of a running process with process_vm_readv.
// Targets running under Wine or Proton are ordinary Linux processes, so their
// RTTI records can be read without injecting anything.
type Process struct {
	pid int
}

// OpenProcess checks that pid is readable and returns its address space.
func OpenProcess(pid int) (*Process, error) {
	if err := unix.Kill(pid, 0); err != nil {
		return nil, fmt.Errorf("memory: process %d is not accessible: %w", pid, err)
	}
	return &Process{pid: pid}, nil
}

// PID returns the process id.
func (p *Process) PID() int {
	return p.pid
}

// ReadAt implements Space.
func (p *Process) ReadAt(b []byte, addr uint64) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	local := []unix.Iovec{{Base: &b[0]}}
	local[0].SetLen(len(b))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(b)}}

	n, err := unix.ProcessVMReadv(p.pid, local, remote, 0)
	if err != nil {
		return n, fmt.Errorf("%w: 0x%x: %v", ErrUnmapped, addr, err)
	}
	if n < len(b) {
		return n, fmt.Errorf("%w: 0x%x", ErrUnmapped, addr+uint64(n))
	}
	return n, nil
}
