package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxSessionID = "session_id"
)
