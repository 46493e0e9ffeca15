package models

import "testing"

func TestPlaylistWrap(t *testing.T) {
	p := &Playlist{Tracks: make([]Track, 3)}

	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{2, 2},
		{3, 0},
		{4, 1},
		{-1, 2},
		{-3, 0},
	}
	for _, tc := range cases {
		if got := p.Wrap(tc.in); got != tc.want {
			t.Fatalf("Wrap(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNilPlaylistLen(t *testing.T) {
	var p *Playlist
	if p.Len() != 0 {
		t.Fatal("nil playlist must have length 0")
	}
}

func TestTitleFromPath(t *testing.T) {
	if got := TitleFromPath("/mnt/usbdrive/albums/01 - Intro.mp3"); got != "01 - Intro" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := TitleFromPath("noext"); got != "noext" {
		t.Fatalf("unexpected title %q", got)
	}
}
