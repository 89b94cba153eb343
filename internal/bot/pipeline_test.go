package bot_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bsrbot/internal/artifact"
	"bsrbot/internal/bot"
	"bsrbot/internal/chat"
	"bsrbot/internal/device"
	"bsrbot/internal/services/beatsaver"
	"bsrbot/internal/testsupport"
)

// headset emulates adb against an in-memory device filesystem.
type headset struct {
	files map[string]string
	dirs  map[string][]string
}

func (h *headset) Shell(context.Context, string, ...string) (string, error) {
	return "    inet 192.168.1.5/24 brd 192.168.1.255 scope global wlan0", nil
}

func (h *headset) TCPIP(context.Context, int) error         { return nil }
func (h *headset) Connect(context.Context, string) error    { return nil }
func (h *headset) Disconnect(context.Context, string) error { return nil }

func (h *headset) Push(_ context.Context, _, local, remote string) error {
	info, err := os.Stat(local)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(local)
		if err != nil {
			return err
		}
		h.files[remote] = string(data)
		return nil
	}
	entries, err := os.ReadDir(local)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		h.dirs[remote] = append(h.dirs[remote], entry.Name())
	}
	return nil
}

func (h *headset) Pull(_ context.Context, _, remote, local string) error {
	return os.WriteFile(local, []byte(h.files[remote]), 0o644)
}

func TestRequestDeliversMapToHeadset(t *testing.T) {
	archive := testsupport.MapArchive(t, map[string]string{
		"Info.dat":               `{"_songName":"Song"}`,
		"ExpertPlusStandard.dat": "notes",
		"song.egg":               "audio",
	})
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/maps/id/AbCd12", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"metadata":{"songName":"Song"},"versions":[{"hash":"h1","downloadURL":"` + srv.URL + `/file.zip"}]}`))
	})
	mux.HandleFunc("/file.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	scratch := t.TempDir()
	const (
		modsDir      = "/sdcard/CustomLevels"
		playlistPath = "/sdcard/Playlists/songreq.json"
	)
	quest := &headset{
		files: map[string]string{playlistPath: `{"playlistTitle":"Requests","songs":[{"hash":"h0","songName":"Earlier"}]}`},
		dirs:  map[string][]string{},
	}
	bridge := device.New(quest, device.Options{
		Interface:    "wlan0",
		Port:         5555,
		ModsDir:      modsDir,
		PlaylistPath: playlistPath,
		ScratchDir:   scratch,
	}, nil)
	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer bridge.Close(context.Background())

	resolver, err := beatsaver.New(srv.URL, 0, beatsaver.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("beatsaver.New: %v", err)
	}
	rec := &recorder{}
	router := bot.NewRouter(bot.Dependencies{
		Sink:     fakeSink{rec: rec},
		Resolver: resolver,
		Fetcher:  artifact.NewFetcher(scratch, nil, artifact.WithHTTPClient(srv.Client())),
		Unpacker: artifact.NewUnpacker(scratch, nil),
		Device:   bridge,
	}, "owner", "!", nil)

	router.Handle(context.Background(), chat.Message{ID: "m1", Channel: "chan", Author: "user", Text: "!bsr AbCd12"})

	wantEvents := []string{"say: @user requested Song (" + srv.URL + "/file.zip)"}
	if diff := cmp.Diff(wantEvents, rec.list()); diff != "" {
		t.Fatalf("chat mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(scratch, "h1.zip")); err != nil {
		t.Fatalf("archive not stored: %v", err)
	}
	wantFiles := []string{"ExpertPlusStandard.dat", "Info.dat", "song.egg"}
	if diff := cmp.Diff(wantFiles, quest.dirs[modsDir+"/h1"]); diff != "" {
		t.Fatalf("pushed files mismatch (-want +got):\n%s", diff)
	}

	playlist, err := device.DecodePlaylist([]byte(quest.files[playlistPath]))
	if err != nil {
		t.Fatalf("decode device playlist: %v", err)
	}
	var got [][2]string
	for _, song := range playlist.Songs {
		got = append(got, [2]string{song.Hash, song.SongName})
	}
	if diff := cmp.Diff([][2]string{{"h0", "Earlier"}, {"h1", "Song"}}, got); diff != "" {
		t.Fatalf("playlist mismatch (-want +got):\n%s", diff)
	}
}
