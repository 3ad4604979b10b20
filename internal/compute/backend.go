package compute

import "fmt"

// Backend runs a range loop [0, n) split into chunks. For must return only
// after every chunk has finished, so consecutive calls form a barrier.
type Backend interface {
	Name() string
	Workers() int
	For(n int, fn func(start, end int))
}

// New returns the backend registered under name. workers <= 0 selects
// runtime.NumCPU() for the cpu backend and is ignored by the serial one.
func New(name string, workers int) (Backend, error) {
	switch name {
	case "", "cpu":
		return NewCPUBackend(workers), nil
	case "serial":
		return Serial{}, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
}

// Serial runs the whole range on the calling goroutine.
type Serial struct{}

func (Serial) Name() string { return "serial" }
func (Serial) Workers() int { return 1 }

func (Serial) For(n int, fn func(start, end int)) {
	if n > 0 {
		fn(0, n)
	}
}
