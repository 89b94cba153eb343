// Package chat connects the bot to one Twitch channel through go-twitch-irc.
//
// A Client logs in, joins the channel and delivers PRIVMSG lines as Message
// values. The IRC client answers keep-alives and follows RECONNECT requests
// on its own. Replies are threaded to the triggering message; Say posts a
// plain channel message.
package chat
