package device_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bsrbot/internal/device"
	"bsrbot/internal/services"
)

const ipOutput = `3: wlan0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc mq state UP group default qlen 3000
    link/ether 2c:26:17:aa:bb:cc brd ff:ff:ff:ff:ff:ff
    inet 192.168.1.5/24 brd 192.168.1.255 scope global wlan0
       valid_lft forever preferred_lft forever`

// fakeADB stands in for the adb CLI: the device playlist lives in memory.
type fakeADB struct {
	shellOutput    string
	devicePlaylist string
	pushErr        map[string]error
	disconnectErr  error

	calls       []string
	pushed      map[string]string
	disconnects int
}

func newFakeADB(playlist string) *fakeADB {
	return &fakeADB{shellOutput: ipOutput, devicePlaylist: playlist, pushed: map[string]string{}}
}

func (f *fakeADB) Shell(ctx context.Context, serial string, args ...string) (string, error) {
	f.calls = append(f.calls, "shell "+serial+" "+strings.Join(args, " "))
	return f.shellOutput, nil
}

func (f *fakeADB) TCPIP(ctx context.Context, port int) error {
	f.calls = append(f.calls, "tcpip")
	return nil
}

func (f *fakeADB) Connect(ctx context.Context, addr string) error {
	f.calls = append(f.calls, "connect "+addr)
	return nil
}

func (f *fakeADB) Disconnect(ctx context.Context, addr string) error {
	f.calls = append(f.calls, "disconnect "+addr)
	f.disconnects++
	return f.disconnectErr
}

func (f *fakeADB) Push(ctx context.Context, serial, local, remote string) error {
	f.calls = append(f.calls, "push "+serial+" "+remote)
	if err := f.pushErr[remote]; err != nil {
		return err
	}
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		data, err := os.ReadFile(local)
		if err != nil {
			return err
		}
		f.pushed[remote] = string(data)
		f.devicePlaylist = string(data)
		return nil
	}
	f.pushed[remote] = local
	return nil
}

func (f *fakeADB) Pull(ctx context.Context, serial, remote, local string) error {
	f.calls = append(f.calls, "pull "+serial+" "+remote)
	return os.WriteFile(local, []byte(f.devicePlaylist), 0o644)
}

func newBridge(t *testing.T, fake *fakeADB) (*device.Bridge, device.Options) {
	t.Helper()
	opts := device.Options{
		Interface:    "wlan0",
		Port:         5555,
		ModsDir:      "/sdcard/Mods/CustomLevels",
		PlaylistPath: "/sdcard/Playlists/songreq.json",
		ScratchDir:   t.TempDir(),
	}
	return device.New(fake, opts, nil), opts
}

func TestParseInetAddress(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{name: "ip addr output", output: ipOutput, want: "192.168.1.5"},
		{name: "bare token", output: "inet 10.0.0.7/8", want: "10.0.0.7"},
		{name: "no prefix", output: "inet 10.0.0.7", want: "10.0.0.7"},
		{name: "inet6 only", output: "inet6 fe80::1/64 scope link", wantErr: true},
		{name: "trailing inet", output: "link/ether x inet", wantErr: true},
		{name: "empty", output: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := device.ParseInetAddress(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestConnectSequence(t *testing.T) {
	fake := newFakeADB(`{"songs":[]}`)
	bridge, _ := newBridge(t, fake)

	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	want := []string{
		"shell  ip addr show wlan0",
		"tcpip",
		"connect 192.168.1.5:5555",
	}
	if diff := cmp.Diff(want, fake.calls); diff != "" {
		t.Fatalf("call sequence mismatch (-want +got):\n%s", diff)
	}
	if bridge.Address() != "192.168.1.5:5555" {
		t.Fatalf("unexpected address %q", bridge.Address())
	}
	if err := bridge.Connect(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected second connect to fail, got %v", err)
	}
}

func TestConnectFailsWithoutAddress(t *testing.T) {
	fake := newFakeADB(`{"songs":[]}`)
	fake.shellOutput = "Device \"wlan0\" does not exist."
	bridge, _ := newBridge(t, fake)

	if err := bridge.Connect(context.Background()); err == nil {
		t.Fatal("expected error when no address is reported")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected no further adb calls, got %v", fake.calls)
	}
}

func TestPushMapRequiresConnection(t *testing.T) {
	bridge, _ := newBridge(t, newFakeADB(`{"songs":[]}`))
	if err := bridge.PushMap(context.Background(), "h1", "Song"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPushMapAppendsToPlaylist(t *testing.T) {
	fake := newFakeADB(`{
		"playlistTitle": "Song Requests",
		// added by hand
		"songs": [
			{"hash": "h0", "songName": "Earlier", "key": "1a"},
		]
	}`)
	bridge, opts := newBridge(t, fake)
	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := bridge.PushMap(context.Background(), "h1", "Song"); err != nil {
		t.Fatalf("PushMap: %v", err)
	}

	if got := fake.pushed["/sdcard/Mods/CustomLevels/h1"]; got != opts.ScratchDir+"/h1" {
		t.Fatalf("map pushed from %q", got)
	}
	playlist, err := device.DecodePlaylist([]byte(fake.devicePlaylist))
	if err != nil {
		t.Fatalf("decode pushed playlist: %v", err)
	}
	var got [][2]string
	for _, song := range playlist.Songs {
		got = append(got, [2]string{song.Hash, song.SongName})
	}
	want := [][2]string{{"h0", "Earlier"}, {"h1", "Song"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("songs mismatch (-want +got):\n%s", diff)
	}
	for _, key := range []string{`"playlistTitle": "Song Requests"`, `"key": "1a"`} {
		if !strings.Contains(fake.devicePlaylist, key) {
			t.Fatalf("expected %s preserved in %s", key, fake.devicePlaylist)
		}
	}
}

func TestPushMapPlaylistPushFailureLeavesDeviceUnchanged(t *testing.T) {
	original := `{"songs":[{"hash":"h0","songName":"Earlier"}]}`
	fake := newFakeADB(original)
	fake.pushErr = map[string]error{"/sdcard/Playlists/songreq.json": errors.New("device offline")}
	bridge, _ := newBridge(t, fake)
	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := bridge.PushMap(context.Background(), "h1", "Song"); err == nil {
		t.Fatal("expected playlist push failure")
	}
	if fake.devicePlaylist != original {
		t.Fatalf("device playlist changed: %s", fake.devicePlaylist)
	}
}

func TestPushMapRejectsUnsafeHash(t *testing.T) {
	fake := newFakeADB(`{"songs":[]}`)
	bridge, _ := newBridge(t, fake)
	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := bridge.PushMap(context.Background(), "../../etc", "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaylistReturnsDeviceContents(t *testing.T) {
	fake := newFakeADB(`{"songs":[{"hash":"h0","songName":"Earlier"}]}`)
	bridge, _ := newBridge(t, fake)
	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	playlist, err := bridge.Playlist(context.Background())
	if err != nil {
		t.Fatalf("Playlist: %v", err)
	}
	if len(playlist.Songs) != 1 || playlist.Songs[0].SongName != "Earlier" {
		t.Fatalf("unexpected playlist %+v", playlist.Songs)
	}
}

func TestCloseRunsOnce(t *testing.T) {
	fake := newFakeADB(`{"songs":[]}`)
	fake.disconnectErr = errors.New("no such device")
	bridge, _ := newBridge(t, fake)
	if err := bridge.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	bridge.Close(context.Background())
	bridge.Close(context.Background())

	if fake.disconnects != 1 {
		t.Fatalf("expected one disconnect, got %d", fake.disconnects)
	}
	if err := bridge.PushMap(context.Background(), "h1", "Song"); err == nil {
		t.Fatal("expected push after close to fail")
	}
}

func TestCloseWithoutConnectSkipsDisconnect(t *testing.T) {
	fake := newFakeADB(`{"songs":[]}`)
	bridge, _ := newBridge(t, fake)
	bridge.Close(context.Background())
	if fake.disconnects != 0 {
		t.Fatalf("expected no disconnect, got %d", fake.disconnects)
	}
}
