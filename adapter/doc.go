// Package adapter provides the top-level runtime an adapter author embeds:
// one object owning the lifecycle state machine, the liveness reporter and
// the flow-controlled emitter, wired to a single transport client.
//
// Typical use:
//
//	rt, err := adapter.New("game-sensor", client,
//	    adapter.WithCapabilities("events.game"),
//	    adapter.WithEmitterOptions(
//	        emitter.WithStrategy(bucket),
//	        emitter.WithFlushInterval(200*time.Millisecond),
//	        emitter.WithThreatBypass(true)))
//	rt.RegisterHandler(lifecycle.CommandStart, startCapture)
//	rt.RegisterHandler(lifecycle.CommandStop, stopCapture)
//	if err := rt.Start(ctx); err != nil { ... }
//	defer rt.Stop(5 * time.Second)
//
//	// from the capture goroutine:
//	rt.Emit(ctx, ev)
package adapter
