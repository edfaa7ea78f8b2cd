// Package viz draws scenes in the terminal and hosts the live editor.
//
// Scenes are drawn with braille dots, one [Canvas] per layer (polygons,
// links, particles, pinned particles, the drag line) and composed with the
// colours of a [Theme]. [Model] is the bubbletea program that steps the
// scene at 60 Hz and edits it with the mouse.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Step one frame while paused
//	R     - Rebuild the scene
//	Tab   - Next editor mode (1-7 select directly)
//	T     - Cycle color themes
//	?     - Show help overlay
//
// # Editor modes
//
//	particle, pinned, box, wheel - click to add
//	rod, spring                  - click two particles to link them
//	drag                         - press on a particle and move the mouse
package viz
