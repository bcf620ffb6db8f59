// Package part defines authored part data: connection points, part
// definitions and their physics/scaling settings, plus the authoring helpers
// that produce points (bounds presets, marker detection) and the validation
// that gates a definition before it reaches an assembly.
package part
