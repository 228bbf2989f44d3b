// Package ecs provides ECS adapters for rigid's event system.
//
// [NewDonburiSink] bridges engine events (collisions, position changes,
// errors, timed events) into a [Donburi] world as typed events. Subscribe to
// [EventType] in your ECS systems to receive them. [Mirror] keeps one entity
// per simulated body so systems can query body state as components.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	engine.SetEventSink(sink)
//	// in the game's update loop:
//	sink.Flush()
//	ecs.EventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
