package bot

import (
	"errors"
	"strings"

	"bsrbot/internal/services"
	"bsrbot/internal/textutil"
)

const (
	songHost   = "bsaber.com"
	songsPath  = "songs"
	httpsStart = "https"
)

var (
	// ErrInvalidURL marks a song URL that is not bsaber.com/songs/<id>.
	ErrInvalidURL = errors.New("invalid bsaber url")
	// ErrInvalidID marks a song identifier that is not alphanumeric.
	ErrInvalidID = errors.New("invalid bsaber song id")
)

// Command is one parsed chat command.
type Command struct {
	Invoker string
	Verb    string
	Args    []string
}

// ParseCommand splits text after prefix into a verb and arguments. ok is false
// when text does not start with prefix or holds nothing after it.
func ParseCommand(invoker, text, prefix string) (Command, bool) {
	rest, found := strings.CutPrefix(text, prefix)
	if !found {
		return Command{}, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Invoker: invoker, Verb: fields[0], Args: fields[1:]}, true
}

// ParseIdentifier extracts a map identifier from a bare id or an https song
// URL of the form https://bsaber.com/songs/<id>/.
func ParseIdentifier(arg string) (string, error) {
	if strings.HasPrefix(arg, httpsStart) {
		trimmed := strings.TrimRight(strings.ReplaceAll(arg, "https://", ""), "/")
		parts := strings.Split(trimmed, "/")
		if len(parts) != 3 || parts[0] != songHost || parts[1] != songsPath || !textutil.IsASCIIAlphanumeric(parts[2]) {
			return "", services.Wrap(services.ErrValidation, "command", "parse", "", ErrInvalidURL)
		}
		return parts[2], nil
	}
	if !textutil.IsASCIIAlphanumeric(arg) {
		return "", services.Wrap(services.ErrValidation, "command", "parse", "", ErrInvalidID)
	}
	return arg, nil
}
