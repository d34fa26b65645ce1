package pathing

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// yearPattern matches a parenthesized 4-digit year, e.g. "(2002)"
	yearPattern = regexp.MustCompile(`\((\d{4})\)`)

	// titlePunctuation is stripped outright during title normalization.
	// Note that "&" is NOT in this set; it is expanded to "and" first.
	titlePunctuation = "{}#@-():.,'?!+$…/_[]–*="

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// NormalizePath unifies path separators to forward slashes and appends a
// trailing separator unless the path denotes a file. Normalized paths are
// used as catalog keys, so two spellings of the same directory must
// normalize to the same string.
func NormalizePath(path string, isFile bool) string {
	if path == "" {
		return ""
	}

	path = strings.ReplaceAll(path, "\\", "/")

	// Collapse doubled separators (UNC-style prefixes excepted)
	for strings.Contains(path[1:], "//") {
		path = path[:1] + strings.ReplaceAll(path[1:], "//", "/")
	}

	if isFile {
		return strings.TrimSuffix(path, "/")
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

// NormalizeTitle normalizes a title for comparison: NFC unicode
// normalization, lowercase, "&" expanded to "and", a fixed punctuation set
// removed, and whitespace runs collapsed.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	title = norm.NFC.String(title)
	title = strings.ToLower(title)
	title = strings.TrimSpace(title)
	title = strings.ReplaceAll(title, "&", "and")

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if strings.ContainsRune(titlePunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	title = b.String()

	title = whitespaceRun.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// TitlesAreEquivalent reports whether two titles normalize to the same
// string, making the comparison case- and punctuation-insensitive.
func TitlesAreEquivalent(a, b string) bool {
	return NormalizeTitle(a) == NormalizeTitle(b)
}

// ExtractYear returns the year from the last parenthesized 4-digit group in
// a folder name, e.g. "Blade Runner (1982)" -> 1982. Folder names with
// multiple parenthetical groups take the last one, since release years
// suffix folder names by convention. Returns false when no year is present.
func ExtractYear(folderName string) (int, bool) {
	if folderName == "" {
		return 0, false
	}

	matches := yearPattern.FindAllStringSubmatch(folderName, -1)
	if len(matches) == 0 {
		return 0, false
	}

	year, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// TitleFromFolder derives a display title from a folder name by stripping a
// trailing "(YYYY)" suffix when one is present. The bare folder name is
// returned verbatim otherwise.
func TitleFromFolder(folderName string) string {
	folderName = strings.TrimSpace(folderName)
	if _, ok := ExtractYear(folderName); !ok {
		return folderName
	}

	idx := yearPattern.FindAllStringIndex(folderName, -1)
	last := idx[len(idx)-1]
	if strings.TrimSpace(folderName[last[1]:]) != "" {
		// Year group is not a suffix; leave the name alone
		return folderName
	}
	return strings.TrimSpace(folderName[:last[0]])
}

// SortTitle strips a leading "The " (case-insensitive) so items sort by
// their significant word.
func SortTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) > 4 && strings.EqualFold(title[:4], "The ") {
		return strings.TrimSpace(title[4:])
	}
	return title
}

// FolderName returns the final path element of a normalized folder path.
func FolderName(folderPath string) string {
	return filepath.Base(strings.TrimSuffix(NormalizePath(folderPath, false), "/"))
}
