package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/franz/media-librarian/internal/pathing"
	"github.com/franz/media-librarian/internal/util"
)

const (
	// DefaultBaseURL is the TMDB API base URL
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// DefaultImageBaseURL prefixes the relative artwork paths TMDB returns
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/original"
)

// SearchResult is one match from a title search
type SearchResult struct {
	Title       string
	TMDBID      int64
	ReleaseYear int
	PosterURL   string
}

// FullMetadata is everything the reconciler needs for one movie
type FullMetadata struct {
	Title          string   `json:"title"`
	SortTitle      string   `json:"sortTitle"`
	Summary        string   `json:"summary"`
	Genres         []string `json:"genres"`
	Keywords       []string `json:"keywords"`
	Cast           []string `json:"cast"`
	Crew           []string `json:"crew"`
	Rating         string   `json:"rating"`
	ReleaseYear    int      `json:"releaseYear"`
	RuntimeSeconds int      `json:"runtimeSeconds"`
	PosterURLs     []string `json:"posterUrls"`
	BackdropURLs   []string `json:"backdropUrls"`
}

// API is the upstream surface the resolver consumes. Faked in tests.
type API interface {
	SearchMovies(ctx context.Context, query string) ([]SearchResult, error)
	MovieDetails(ctx context.Context, tmdbID int64) (*FullMetadata, error)
}

// Client talks to the TMDB API. The upstream applies its own retry/backoff;
// the client only enforces a request timeout.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
}

var _ API = (*Client)(nil)

// NewClient creates a TMDB API client
func NewClient(apiKey, baseURL, imageBaseURL string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: tmdb api key required", util.ErrInvalidConfig)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if imageBaseURL == "" {
		imageBaseURL = DefaultImageBaseURL
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// searchResponse models the paginated TMDB search payload
type searchResponse struct {
	Results []struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		ReleaseDate string `json:"release_date"`
		PosterPath  string `json:"poster_path"`
	} `json:"results"`
}

// movieDetails models the TMDB movie payload with appended credits, images,
// keywords and release dates
type movieDetails struct {
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"` // minutes
	VoteAverage float64 `json:"vote_average"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Keywords struct {
		Keywords []struct {
			Name string `json:"name"`
		} `json:"keywords"`
	} `json:"keywords"`
	Credits struct {
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
	Images struct {
		Posters   []imageEntry `json:"posters"`
		Backdrops []imageEntry `json:"backdrops"`
	} `json:"images"`
	ReleaseDates struct {
		Results []struct {
			ISO3166 string `json:"iso_3166_1"`
			Entries []struct {
				Certification string `json:"certification"`
			} `json:"release_dates"`
		} `json:"results"`
	} `json:"release_dates"`
}

type imageEntry struct {
	FilePath    string  `json:"file_path"`
	VoteAverage float64 `json:"vote_average"`
	ISO639      string  `json:"iso_639_1"`
}

// SearchMovies searches TMDB by title
func (c *Client) SearchMovies(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + "/search/movie?" + params.Encode()

	util.DebugLog("TMDB API: searching for '%s'", query)

	var payload searchResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, SearchResult{
			Title:       r.Title,
			TMDBID:      r.ID,
			ReleaseYear: yearFromDate(r.ReleaseDate),
			PosterURL:   c.imageURL(r.PosterPath),
		})
	}

	util.DebugLog("TMDB: %d results for '%s'", len(results), query)
	return results, nil
}

// MovieDetails fetches the full record for one movie id
func (c *Client) MovieDetails(ctx context.Context, tmdbID int64) (*FullMetadata, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("append_to_response", "credits,images,keywords,release_dates")
	endpoint := fmt.Sprintf("%s/movie/%d?%s", c.baseURL, tmdbID, params.Encode())

	util.DebugLog("TMDB API: fetching movie %d", tmdbID)

	var payload movieDetails
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	meta := &FullMetadata{
		Title:          payload.Title,
		SortTitle:      pathing.SortTitle(payload.Title),
		Summary:        payload.Overview,
		Rating:         certification(&payload),
		ReleaseYear:    yearFromDate(payload.ReleaseDate),
		RuntimeSeconds: payload.Runtime * 60,
	}
	for _, g := range payload.Genres {
		meta.Genres = append(meta.Genres, g.Name)
	}
	for _, k := range payload.Keywords.Keywords {
		meta.Keywords = append(meta.Keywords, k.Name)
	}
	for _, m := range payload.Credits.Cast {
		meta.Cast = append(meta.Cast, m.Name)
	}
	for _, m := range payload.Credits.Crew {
		meta.Crew = append(meta.Crew, m.Name+" ("+m.Job+")")
	}

	// Posters arrive highest-confidence first; keep server order
	for _, img := range payload.Images.Posters {
		meta.PosterURLs = append(meta.PosterURLs, c.imageURL(img.FilePath))
	}

	// Backdrops are ordered by vote with English-language entries preferred
	backdrops := append([]imageEntry(nil), payload.Images.Backdrops...)
	sort.SliceStable(backdrops, func(i, j int) bool {
		ei, ej := backdropEnglish(backdrops[i]), backdropEnglish(backdrops[j])
		if ei != ej {
			return ei
		}
		return backdrops[i].VoteAverage > backdrops[j].VoteAverage
	})
	for _, img := range backdrops {
		meta.BackdropURLs = append(meta.BackdropURLs, c.imageURL(img.FilePath))
	}

	return meta, nil
}

func backdropEnglish(e imageEntry) bool {
	return e.ISO639 == "en" || e.ISO639 == ""
}

// certification extracts the US certification when present
func certification(d *movieDetails) string {
	for _, r := range d.ReleaseDates.Results {
		if r.ISO3166 != "US" {
			continue
		}
		for _, e := range r.Entries {
			if e.Certification != "" {
				return e.Certification
			}
		}
	}
	return ""
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status %d: %s",
			util.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", util.ErrUpstream, err)
	}
	return nil
}

func (c *Client) imageURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	return c.imageBaseURL + filePath
}

func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
