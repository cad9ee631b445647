// Package audit dispatches security-relevant events asynchronously.
//
// A [Dispatcher] relays [Event] values to a [Sink] (channel, JSON lines,
// slog or no-op) from one background goroutine, with drop-if-full or
// block-if-full backpressure. Which events to emit is decided by the
// Engine; this package only buffers and delivers them.
package audit
