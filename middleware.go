package bwalk

// Middleware wraps the action of every node a walk passes through. [HopFromContext] tells the
// middleware which node it is wrapping.
type Middleware[T any] func(Action[T]) Action[T]

// Wrap takes the action a and wraps it with middleware. The middleware provided first is called
// first and is the "outer" most wrapping, the middleware provided last is the "inner most"
// wrapping (closest to the action).
func Wrap[T any](a Action[T], m ...Middleware[T]) Action[T] {
	if len(m) < 1 {
		return a
	}

	wrapped := a
	for i := len(m) - 1; i >= 0; i-- {
		wrapped = m[i](wrapped)
	}

	return wrapped
}
