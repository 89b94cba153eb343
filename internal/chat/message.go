package chat

import (
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"
)

// Message is a chat message received in the joined channel.
type Message struct {
	ID      string
	Channel string
	Author  string
	Text    string
}

// messageFromPrivate converts a PRIVMSG. Author is the lowercase login name.
func messageFromPrivate(pm twitch.PrivateMessage) (Message, bool) {
	if pm.User.Name == "" || pm.Channel == "" {
		return Message{}, false
	}
	return Message{
		ID:      pm.ID,
		Channel: strings.TrimPrefix(pm.Channel, "#"),
		Author:  strings.ToLower(pm.User.Name),
		Text:    pm.Message,
	}, true
}
