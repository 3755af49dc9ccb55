package cache

import (
	"testing"
	"time"

	"moodtune/pkg/models"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	c.Set("key", "value")
	got, ok := c.Get("key")
	if !ok || got != "value" {
		t.Errorf("Get() = %v, %v", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("missing key reported as present")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)

	c.Set("key", "value")
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("expired entry still returned")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	if c.Size() != 2 {
		t.Fatalf("Size() = %d", c.Size())
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d", c.Size())
	}
}

func TestPlaylistCache(t *testing.T) {
	pc := NewPlaylistCache()

	playlist := []models.PlaylistEntry{
		{Title: "A", Artist: "X", FilePath: "/a.mp3"},
	}
	key := pc.Key("Happy", 30)
	if key != "happy:30" {
		t.Errorf("Key() = %q", key)
	}

	pc.SetPlaylist(key, playlist)
	got, ok := pc.GetPlaylist(key)
	if !ok || len(got) != 1 || got[0].Title != "A" {
		t.Errorf("GetPlaylist() = %+v, %v", got, ok)
	}

	if _, ok := pc.GetPlaylist(pc.Key("sad", 30)); ok {
		t.Error("unexpected hit for different mood")
	}
}
