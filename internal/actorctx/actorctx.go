package actorctx

import "context"

type ctxKey string

const keySessionID ctxKey = "session_id"

// WithSessionID records the browser session the request belongs to, so
// outbound calls can find its token.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, keySessionID, sid)
}

func SessionIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keySessionID).(string)

	return v, ok && v != ""
}
