package sim

import (
	"context"

	"keylock/core"
	"keylock/host/logger"
)

// LogEvents is a core.EventSink that logs every lock transition
type LogEvents struct {
	ctx context.Context
}

// NewLogEvents logs through the logger carried by ctx
func NewLogEvents(ctx context.Context) *LogEvents {
	return &LogEvents{ctx: ctx}
}

func (e *LogEvents) DigitAccepted(length uint8) {
	logger.DebugKV(e.ctx, "digit accepted", "length", length)
}

func (e *LogEvents) DigitDropped(reason core.DropReason) {
	logger.InfoKV(e.ctx, "digit dropped", "reason", reason.String())
}

func (e *LogEvents) AttemptDenied() {
	logger.InfoKV(e.ctx, "attempt denied")
}

func (e *LogEvents) Unlocked(holdTicks uint32) {
	logger.InfoKV(e.ctx, "unlocked", "hold_us", core.TimerToUS(holdTicks))
}

func (e *LogEvents) Locked() {
	logger.InfoKV(e.ctx, "locked")
}
