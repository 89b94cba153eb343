// Package main hosts the bsrbot CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands off to the
// internal packages: run supervises the chat bot, check prints preflight
// results, lookup resolves a single map, and playlist lists the song-request
// manifest on the headset.
package main
