// Package middleware decorates bus handlers with cross-cutting
// behaviour: event logging, counters and handler timing. Decorators
// wrap a handler and return one with the same signature, so chains
// compose with the router untouched.
package middleware

func Chain[T any](wrappers ...func(T) T) func(T) T {
	return func(handler T) T {
		for i := len(wrappers) - 1; i >= 0; i-- {
			handler = wrappers[i](handler)
		}
		return handler
	}
}
