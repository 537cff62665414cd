package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const tickKey ctxKey = "tick"

// WithTick tags a context with the loop tick that triggered the work, so
// timings of external calls can be correlated with simulation ticks.
func WithTick(ctx context.Context, tick uint64) context.Context {
	return context.WithValue(ctx, tickKey, tick)
}

// Time logs the duration of an operation on return. Use as
//
//	defer obs.Time(ctx, "osrm.GetRoute")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	tick, _ := ctx.Value(tickKey).(uint64)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("tick=%d op=%s dur=%dms err=%v", tick, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("tick=%d op=%s dur=%dms", tick, name, dur.Milliseconds())
	}
}
