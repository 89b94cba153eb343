// Package services defines shared utilities consumed by the command pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, invoking chat users,
//     and stage names for logging.
//   - Structured error markers plus the Wrap helper that let the router decide
//     between a user-facing chat reply and an operator-facing failure.
//
// Subpackages wrap the concrete collaborators: the BeatSaver catalog API and
// the adb command line.
package services
