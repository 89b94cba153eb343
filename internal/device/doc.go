// Package device owns the single network session to the headset and the
// operations performed over it: pushing unpacked maps into the custom levels
// directory and appending them to the song request playlist.
//
// The playlist update is a read-modify-write of the whole document. If the
// final push fails the headset keeps its previous playlist while the map files
// are already in place; callers report that as a delivery failure.
package device
