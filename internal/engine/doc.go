// Package engine implements the HAP module host: the engine context that is
// threaded through every call, the module lifecycle contract, the registry
// of module factories and the dispatcher that drives modules through
// create, load, update, render, unload and destroy.
//
// Scheduling is single-threaded and cooperative. The dispatcher calls one
// module at a time; a module that blocks stalls the tick. Each module owns
// an opaque State value that the dispatcher stores and hands back on every
// call without inspecting it.
//
// Module lifecycle:
//
//	Unloaded --Create--> Created --Load--> Active <-> (Update/Render)
//	                                          |
//	                                       Unload --> Destroy --> gone
//
// A module whose Create fails stays Unloaded and receives no further calls.
// A module whose Update fails (or that panics) is unloaded and destroyed at
// once while the rest keep ticking. Shutdown tears modules down in reverse
// registration order.
//
// Usage:
//
//	reg := engine.NewRegistry()
//	_ = reg.Register("video", video.New)
//
//	ectx := engine.NewContext(engine.Options{Name: "HAP", Logger: log})
//	eng := engine.New(ectx, reg, cfg.Engine)
//	if err := eng.Start(); err != nil {
//	    return err
//	}
//	defer eng.Close()
//	return eng.Run(ctx)
package engine
