// Package artifact downloads map archives into scratch storage and expands
// them into per-hash directories ready to be pushed to the headset.
//
// Archives are written to <scratch>/<hash>.zip and unpacked into
// <scratch>/<hash>/. The hash is a catalog-provided key and is only used for
// naming; archive contents are not verified against it.
package artifact
