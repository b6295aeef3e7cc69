//go:build !linux

package memory

// Process is only available on Linux.
type Process struct {
	pid int
}

// OpenProcess always fails on this platform.
func OpenProcess(pid int) (*Process, error) {
	return nil, ErrUnsupported
}

// PID returns the process id.
func (p *Process) PID() int {
	return p.pid
}

// ReadAt implements Space.
func (p *Process) ReadAt(b []byte, addr uint64) (int, error) {
	return 0, ErrUnsupported
}
