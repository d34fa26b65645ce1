package pathing

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path     string
		isFile   bool
		expected string
	}{
		{`C:\media\movies`, false, "C:/media/movies/"},
		{"/mnt/media/movies", false, "/mnt/media/movies/"},
		{"/mnt/media/movies/", false, "/mnt/media/movies/"},
		{"/mnt/media//movies", false, "/mnt/media/movies/"},
		{`C:\media\movies\movie.mp4`, true, "C:/media/movies/movie.mp4"},
		{"/mnt/media/movie.mp4/", true, "/mnt/media/movie.mp4"},
		{"", false, ""},
	}

	for _, tt := range tests {
		result := NormalizePath(tt.path, tt.isFile)
		if result != tt.expected {
			t.Errorf("NormalizePath(%q, %v) = %q, expected %q", tt.path, tt.isFile, result, tt.expected)
		}
	}
}

func TestNormalizePathIdempotent(t *testing.T) {
	paths := []string{`\\nas\media\movies`, "/mnt/media/movies", "relative/dir"}
	for _, p := range paths {
		once := NormalizePath(p, false)
		twice := NormalizePath(once, false)
		if once != twice {
			t.Errorf("NormalizePath not idempotent for %q: %q != %q", p, once, twice)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Movie Title", "movie title"},
		{"MOVIE TITLE", "movie title"},
		{"  Movie  Title  ", "movie title"},
		{"Self/less", "selfless"},
		{"Self-less", "selfless"},
		{"Pride & Prejudice", "pride and prejudice"},
		{"Mission: Impossible", "mission impossible"},
		{"What's Up, Doc?", "whats up doc"},
		{"[REC]", "rec"},
		{"Movie (2002)", "movie 2002"},
		{"Café", "café"},
		{"", ""},
	}

	for _, tt := range tests {
		result := NormalizeTitle(tt.input)
		if result != tt.expected {
			t.Errorf("NormalizeTitle(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestTitlesAreEquivalent(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"Self/less", "Self-less", true},
		{"Pride & Prejudice", "Pride and Prejudice", true},
		{"Self/less", "Cat", false},
		{"The Matrix", "the matrix", true},
		{"", "", true},
	}

	for _, tt := range tests {
		if got := TitlesAreEquivalent(tt.a, tt.b); got != tt.expected {
			t.Errorf("TitlesAreEquivalent(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.expected)
		}
		// Symmetry
		if got := TitlesAreEquivalent(tt.b, tt.a); got != tt.expected {
			t.Errorf("TitlesAreEquivalent(%q, %q) = %v, expected %v", tt.b, tt.a, got, tt.expected)
		}
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		input string
		year  int
		ok    bool
	}{
		{"Blade Runner (1982)", 1982, true},
		{"Some movie (from the future) (2002)", 2002, true},
		{"No year here", 0, false},
		{"Almost (198) a year", 0, false},
		{"(2020) leading year", 2020, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		year, ok := ExtractYear(tt.input)
		if year != tt.year || ok != tt.ok {
			t.Errorf("ExtractYear(%q) = (%d, %v), expected (%d, %v)", tt.input, year, ok, tt.year, tt.ok)
		}
	}
}

func TestTitleFromFolder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Blade Runner (1982)", "Blade Runner"},
		{"Blade Runner", "Blade Runner"},
		{"Some movie (from the future) (2002)", "Some movie (from the future)"},
		{"(2002) Odd Layout", "(2002) Odd Layout"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := TitleFromFolder(tt.input); got != tt.expected {
			t.Errorf("TitleFromFolder(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestSortTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Matrix", "Matrix"},
		{"the matrix", "matrix"},
		{"THE END", "END"},
		{"Theory of Everything", "Theory of Everything"},
		{"The", "The"},
		{"Matrix", "Matrix"},
	}

	for _, tt := range tests {
		if got := SortTitle(tt.input); got != tt.expected {
			t.Errorf("SortTitle(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
