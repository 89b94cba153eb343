// Package daemon runs the long-lived bot process.
//
// It takes the single-instance lock, opens the headset session, joins chat
// and feeds chat messages to the router one at a time until the owner sends
// quit, the chat connection fails or the process is signalled. The headset
// session is torn down exactly once on every one of those paths.
//
// Keep orchestration here: command semantics live in the bot package and
// transport details in chat and device.
package daemon
