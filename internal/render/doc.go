// Package render exports a display snapshot as a 320x240 PNG image or as an
// Excalidraw scene. Both walk the snapshot's tree entries in insertion order,
// so later objects paint over earlier ones. Neither aims at pixel accuracy
// with the real panel.
package render
