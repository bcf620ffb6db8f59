package assembly

import (
	"errors"
	"fmt"
)

// Assembly errors. Every error returned by the manager wraps one of these.
var (
	ErrIncompatibleConnection = errors.New("incompatible connection")
	ErrUnknownConnectionPoint = errors.New("unknown connection point")
	ErrPointAlreadyBonded     = errors.New("connection point already bonded")
	ErrUnknownPart            = errors.New("unknown part instance")
	ErrPointNotBonded         = errors.New("connection point not bonded")
	ErrInvalidDefinition      = errors.New("invalid part definition")
	ErrSelfConnection         = errors.New("cannot connect a part to itself")
)

// ConnectError reports a rejected Connect between two points.
type ConnectError struct {
	A, B PointRef
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s -> %s: %v", e.A, e.B, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }
