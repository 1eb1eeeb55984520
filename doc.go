// Package plexus is an interactive graph layout and rendering engine for
// [Ebitengine].
//
// Plexus takes attribution-style graphs — features, tokens, logits, and
// aggregated supernodes connected by signed weighted edges — lays them out
// with a deterministic force-directed solver, and renders them through a
// hybrid pipeline that keeps bulk geometry on cached offscreen surfaces and
// interactive highlights on cheap overlay passes.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	e := plexus.NewEngine(plexus.DefaultOptions())
//	if err := e.LoadJSON(data); err != nil {
//		log.Fatal(err)
//	}
//	e.Start()
//	plexus.Run(e, plexus.RunConfig{Title: "my graph"})
//
// For full control, implement [ebiten.Game] yourself and call [Engine.Step]
// and [Renderer.Draw] directly; [Host] shows the wiring.
//
// # Engine
//
// An [Engine] owns one visualization: the graph, the [Simulation], the
// [Viewport], the interaction [Controller], and the [Renderer]. Engines are
// independent; nothing is shared at package level. The engine never
// schedules itself — the host steps it once per frame, so every interaction
// mutation is visible to the draw pass of the same frame.
//
// # Interaction
//
// The controller is a pointer state machine: pan, node drag, rubber-band
// box zoom, and freeform lasso selection, driven by abstract pointer events
// so it runs headless in tests. Wheel zoom keeps the world point under the
// cursor exactly fixed. [ScriptRunner] replays JSON-scripted pointer
// sequences for reproducible interaction tests.
//
// # Scale
//
// Large graphs stay responsive through a top-K edge cap, debounced bulk
// redraws, an optional point-sprite shader path for nodes, and a background
// worker that runs solver batches off the frame loop once the node count
// crosses a threshold.
//
// Static frames export to PNG and SVG via [Engine.SaveSnapshot], and
// [Client] fetches graphs from a reconstruction service with categorized
// errors.
//
// [Ebitengine]: https://ebitengine.org
package plexus
