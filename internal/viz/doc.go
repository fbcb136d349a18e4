// Package viz is the terminal host for the ambient hero.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: the hero page, a particle field behind an animated headline
//   - [Canvas]: Braille-based pixel canvas implementing particles.Surface
//   - Theme selection with 5 built-in colour schemes, each with a palette
//
// The headline is rendered through the loader facade, so it appears static
// until the first key press, click, wheel or mouse move pulls in the
// animation runtime.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	T     - Cycle colour themes
//	S     - Save an SVG snapshot
//	G     - Toggle GIF recording
//	R     - Respawn the field
//	?     - Show help overlay
package viz
