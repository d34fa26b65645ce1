package images

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func names(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Base(p))
	}
	return out
}

func TestFromFolderFindsAliases(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "cover.jpg")
	touch(t, dir, "fanart.png")
	touch(t, dir, "movie.mp4")
	touch(t, dir, "unrelated.jpg")

	posters, backdrops := FromFolder(dir)
	if got := names(posters); len(got) != 1 || got[0] != "cover.jpg" {
		t.Errorf("unexpected posters: %v", got)
	}
	if got := names(backdrops); len(got) != 1 || got[0] != "fanart.png" {
		t.Errorf("unexpected backdrops: %v", got)
	}
}

func TestFromFolderSortsNumericallyNotLexically(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "poster10.jpg")
	touch(t, dir, "poster2.jpg")
	touch(t, dir, "poster.jpg")
	touch(t, dir, "backdrop-3.png")
	touch(t, dir, "backdrop-12.png")

	posters, backdrops := FromFolder(dir)

	wantPosters := []string{"poster.jpg", "poster2.jpg", "poster10.jpg"}
	gotPosters := names(posters)
	if len(gotPosters) != len(wantPosters) {
		t.Fatalf("expected %d posters, got %v", len(wantPosters), gotPosters)
	}
	for i := range wantPosters {
		if gotPosters[i] != wantPosters[i] {
			t.Errorf("posters[%d] = %q, expected %q", i, gotPosters[i], wantPosters[i])
		}
	}

	wantBackdrops := []string{"backdrop-3.png", "backdrop-12.png"}
	gotBackdrops := names(backdrops)
	for i := range wantBackdrops {
		if gotBackdrops[i] != wantBackdrops[i] {
			t.Errorf("backdrops[%d] = %q, expected %q", i, gotBackdrops[i], wantBackdrops[i])
		}
	}
}

func TestFromFolderMissingDir(t *testing.T) {
	posters, backdrops := FromFolder(filepath.Join(t.TempDir(), "does-not-exist"))
	if posters != nil || backdrops != nil {
		t.Errorf("expected nil results for missing dir, got %v / %v", posters, backdrops)
	}
}
