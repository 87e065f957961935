package bufferop

import (
	"context"
	"time"

	"github.com/lexcodex/espxls/espxerr"
)

// Capacity bounds the channel's in-flight operations.
const Capacity = 55

// SendTimeout bounds the worst-case stall a single send can impose
// on a handler.
const SendTimeout = time.Second

// StatusKind distinguishes a delivered operation from the end-of-
// stream sentinel.
type StatusKind int

const (
	StatusWorking StatusKind = iota
	StatusFinished
)

// Status is the value a Channel's consumer receives: either a
// Working operation or the terminal Finished sentinel.
type Status struct {
	Kind StatusKind
	Op   Operation
}

// Channel is the bounded, single-producer single-consumer buffer-op
// channel. The zero value is not usable; call NewChannel.
type Channel struct {
	ch chan Status
}

// NewChannel builds a channel at the standard capacity.
func NewChannel() *Channel {
	return &Channel{ch: make(chan Status, Capacity)}
}

// Send enqueues op, blocking up to SendTimeout before returning
// ErrBufferOpTimeout. It also returns early with ErrBufferOpClosed
// if ctx is canceled, the receiver having been dropped.
func (c *Channel) Send(ctx context.Context, op Operation) error {
	select {
	case c.ch <- Status{Kind: StatusWorking, Op: op}:
		return nil
	case <-ctx.Done():
		return espxerr.ErrBufferOpClosed
	case <-time.After(SendTimeout):
		return espxerr.ErrBufferOpTimeout
	}
}

// Finish emits the terminal Finished sentinel. Producers must call
// it exactly once at the end of every handler.
func (c *Channel) Finish(ctx context.Context) error {
	select {
	case c.ch <- Status{Kind: StatusFinished}:
		return nil
	case <-ctx.Done():
		return espxerr.ErrBufferOpClosed
	case <-time.After(SendTimeout):
		return espxerr.ErrBufferOpTimeout
	}
}

// Receive exposes the consumer-side read-only channel for the
// dispatcher's foreground drain loop.
func (c *Channel) Receive() <-chan Status {
	return c.ch
}
