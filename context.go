package custody

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/tendermint/tendermint/libs/log"
)

// Context is just an alias for the standard implementation.
// We use functions to extend it to our needs, following the
// WithXYZ(Context, T) Context / GetXYZ(Context) T convention.
type Context = context.Context

// contextKey is an unexported type to avoid collisions with other packages
type contextKey int

const (
	contextKeyCaller contextKey = iota
	contextKeyOrigin
	contextKeyGasPrice
	contextKeyLogger
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

// WithCaller sets the immediate caller of the current invocation. Every
// entry point that authorizes by identity reads this value, so the
// execution environment must rewrite it on every call frame.
func WithCaller(ctx Context, caller Address) Context {
	return context.WithValue(ctx, contextKeyCaller, caller)
}

// Caller returns the immediate caller or nil if none was set.
func Caller(ctx Context) Address {
	val, _ := ctx.Value(contextKeyCaller).(Address)
	return val
}

// WithOrigin sets the identity that started the whole invocation chain.
// Unlike the caller it is constant across nested call frames.
func WithOrigin(ctx Context, origin Address) Context {
	return context.WithValue(ctx, contextKeyOrigin, origin)
}

// Origin returns the invocation origin, falling back to the immediate
// caller when no origin was recorded.
func Origin(ctx Context) Address {
	if val, ok := ctx.Value(contextKeyOrigin).(Address); ok {
		return val
	}
	return Caller(ctx)
}

// WithGasPrice sets the ambient fee price of the current invocation.
func WithGasPrice(ctx Context, price *uint256.Int) Context {
	return context.WithValue(ctx, contextKeyGasPrice, price.Clone())
}

// GasPrice returns the ambient fee price, zero if unset.
func GasPrice(ctx Context) *uint256.Int {
	if val, ok := ctx.Value(contextKeyGasPrice).(*uint256.Int); ok {
		return val.Clone()
	}
	return uint256.NewInt(0)
}

// WithLogger sets the logger this context uses
func WithLogger(ctx Context, logger log.Logger) Context {
	// Logger is only a reader, so we can always set
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the logger stored in the context,
// or the DefaultLogger
func GetLogger(ctx Context) log.Logger {
	if logger, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return logger
	}
	return DefaultLogger
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}
