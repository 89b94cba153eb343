// Package beatsaver resolves BeatSaver map identifiers to download metadata.
//
// A single GET against <base>/maps/id/<id> is validated against an embedded
// JSON Schema before decoding so malformed catalog responses surface as
// validation failures rather than half-populated structs.
package beatsaver
