package types

// Result is the envelope returned by operations that never fail with an
// error: list, dropdown and statistics loads.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Cached  bool   `json:"cached,omitempty"`
}

// Ok wraps fresh data.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Cached wraps data served from the local cache.
func Cached[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data, Cached: true}
}

// Fail wraps a normalized failure message.
func Fail[T any](err error) Result[T] {
	return Result[T]{Error: Message(err)}
}
