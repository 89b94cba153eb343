// Package bot turns chat messages into actions.
//
// Router recognises prefixed commands and runs them one at a time. The bsr
// command drives the delivery pipeline: identifier validation, catalog
// lookup on a worker goroutine, the chat announcement, then download, unpack
// and headset push in order. Failures after validation are answered in chat
// and never stop the router.
package bot
