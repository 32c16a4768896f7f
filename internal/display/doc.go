// Package display models the emulated S-Touch screen.
//
// The controller paints the panel with display commands. Model turns each
// decoded command into changes of its UI collections (buttons by id, texts,
// rectangles) and of the containment tree that indexes every painted object
// by bounding box. Touches are resolved against that tree: a touch at (x, y)
// selects the outermost button containing the point.
//
// Screen rules:
//   - A button id is a single slot; SETBUTTON with a known id replaces it.
//   - DELBUTTON with id 255 (or -1) clears the whole screen.
//   - A text anchored exactly where another text is anchored replaces it.
//   - A rectangle erases every text anchored inside it.
//
// The model also keeps the config register (only bit 0 survives) and the
// resource checksum used by the system commands.
package display
