package device

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/jsonc"

	"bsrbot/internal/schema"
	"bsrbot/internal/services"
)

//go:embed playlist_schema.json
var playlistSchema []byte

var playlistValidator = schema.Lazy("playlist", playlistSchema)

// Song is one playlist entry. Keys other than hash and songName are carried
// through unchanged.
type Song struct {
	Hash     string
	SongName string
	extra    map[string]json.RawMessage
}

// Playlist is the song request playlist stored on the headset. Top-level keys
// other than songs (title, author, image, ...) are carried through unchanged.
type Playlist struct {
	Songs []Song
	extra map[string]json.RawMessage
}

// DecodePlaylist parses a playlist document. Comments and trailing commas are
// tolerated since the file is often edited by hand.
func DecodePlaylist(data []byte) (*Playlist, error) {
	stripped := jsonc.ToJSON(data)
	if err := playlistValidator().ValidateBytes(stripped); err != nil {
		return nil, services.Wrap(services.ErrValidation, "playlist", "decode", "unexpected playlist document", err)
	}
	var playlist Playlist
	if err := json.Unmarshal(stripped, &playlist); err != nil {
		return nil, services.Wrap(services.ErrValidation, "playlist", "decode", "", err)
	}
	return &playlist, nil
}

// Encode renders the full playlist document. Song names keep &, < and >
// literal.
func (p *Playlist) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode playlist: %w", err)
	}
	return buf.Bytes(), nil
}

// Append adds an entry at the end of the playlist.
func (p *Playlist) Append(hash, songName string) {
	p.Songs = append(p.Songs, Song{Hash: hash, SongName: songName})
}

func (p *Playlist) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var songs []Song
	if rawSongs, ok := raw["songs"]; ok {
		if err := json.Unmarshal(rawSongs, &songs); err != nil {
			return fmt.Errorf("songs: %w", err)
		}
		delete(raw, "songs")
	}
	p.Songs = songs
	p.extra = raw
	return nil
}

// MarshalJSON writes carried-through keys in sorted order followed by songs.
func (p Playlist) MarshalJSON() ([]byte, error) {
	songs := p.Songs
	if songs == nil {
		songs = []Song{}
	}
	fields := extraFields(p.extra)
	fields = append(fields, field{"songs", songs})
	return encodeObject(fields)
}

func (s *Song) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if value, ok := raw["hash"]; ok {
		if err := json.Unmarshal(value, &s.Hash); err != nil {
			return fmt.Errorf("hash: %w", err)
		}
		delete(raw, "hash")
	}
	if value, ok := raw["songName"]; ok {
		if err := json.Unmarshal(value, &s.SongName); err != nil {
			return fmt.Errorf("songName: %w", err)
		}
		delete(raw, "songName")
	}
	s.extra = raw
	return nil
}

// MarshalJSON writes hash and songName first, then carried-through keys.
func (s Song) MarshalJSON() ([]byte, error) {
	fields := []field{{"hash", s.Hash}, {"songName", s.SongName}}
	return encodeObject(append(fields, extraFields(s.extra)...))
}

type field struct {
	key   string
	value any
}

func extraFields(extra map[string]json.RawMessage) []field {
	fields := make([]field, 0, len(extra)+2)
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		fields = append(fields, field{key, extra[key]})
	}
	return fields
}

// encodeObject builds a JSON object in field order without HTML escaping.
func encodeObject(fields []field) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(f.key); err != nil {
			return nil, err
		}
		trimNewline(&buf)
		buf.WriteByte(':')
		if err := enc.Encode(f.value); err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func trimNewline(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
}
