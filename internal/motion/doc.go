// Package motion defines the capability surface of the animation runtime.
//
// Consumers depend only on [Module]:
//
//   - [Module.Component]: animated container factory, looked up by name
//   - [Module.ScrollProgress]: scroll progress accessor
//   - [Module.Spring]: spring-smoothed follower of another [Value]
//   - [Module.Transform]: maps a value from one range onto another
//   - [Module.Presence]: keeps exiting children mounted until they fade out
//
// Two implementations exist. [Noop] is the stand-in used before the runtime
// loads: every component strips animation-only props and forwards the rest,
// and every accessor returns a resting value. [NewSprings] is the real
// runtime, driven by harmonica springs and advanced with [Animator.Tick].
//
// # Example
//
//	m := motion.Noop()
//	el := m.Component("h1")(motion.Props{"class": "hero", "animate": motion.Props{"opacity": 1}}, "hello")
//	// el.Props == {"class": "hero"}
package motion
