package custodytest

import (
	custody "github.com/iov-one/custody"
	"github.com/iov-one/custody/env"
)

// RecordingContract is a scriptable environment contract. Every call
// it receives is recorded; the configured output, error and gas
// charge are applied.
type RecordingContract struct {
	Output []byte
	Err    error
	Charge uint64

	Calls   []env.Call
	Callers []custody.Address
}

var _ env.Handler = (*RecordingContract)(nil)

func (c *RecordingContract) OnCall(ctx custody.Context, e *env.Env, call *env.Call) ([]byte, error) {
	c.Calls = append(c.Calls, *call)
	c.Callers = append(c.Callers, custody.Caller(ctx))
	if c.Charge != 0 {
		if err := e.Meter().Consume(c.Charge); err != nil {
			return nil, err
		}
	}
	return c.Output, c.Err
}

// CallCount returns how many calls the contract received.
func (c *RecordingContract) CallCount() int {
	return len(c.Calls)
}

// HandlerFunc adapts a function to the env.Handler interface.
type HandlerFunc func(ctx custody.Context, e *env.Env, call *env.Call) ([]byte, error)

func (f HandlerFunc) OnCall(ctx custody.Context, e *env.Env, call *env.Call) ([]byte, error) {
	return f(ctx, e, call)
}
