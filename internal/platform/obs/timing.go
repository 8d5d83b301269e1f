package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Time records the duration of an operation. Call it at the start and
// defer the returned func with a pointer to the named error:
//
//	defer obs.Time(ctx, "solve")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	log := zerolog.Ctx(ctx)
	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		ev := log.Info()
		if errp != nil && *errp != nil {
			ev = log.Error().Err(*errp)
		}
		ev.Str("req_id", reqID).
			Str("op", name).
			Int64("dur_ms", time.Since(start).Milliseconds()).
			Msg("operation finished")
	}
}
