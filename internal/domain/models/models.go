package models

import (
	"strings"

	"reelpass/proj/internal/domain/fields"
)

// Profile holds the per-account display data. A profile with an empty display
// name is never stored; it is equivalent to "no profile".
type Profile struct {
	DisplayName string `json:"displayName"`
}

// MovieSummary is the trimmed-down collection entry derived from a rich
// catalog movie. Poster and release date are null when the catalog has none.
type MovieSummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path"`
	ReleaseDate *string `json:"release_date"`
}

// CatalogMovie mirrors the shape returned by the movie catalog collaborator.
// Only the fields the core consumes are declared; series-flavoured aliases
// (name, first_air_date) are kept because the catalog mixes both.
type CatalogMovie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title,omitempty"`
	Name          string  `json:"name,omitempty"`
	OriginalTitle string  `json:"original_title,omitempty"`
	OriginalName  string  `json:"original_name,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty"`
	BackdropPath  string  `json:"backdrop_path,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	FirstAirDate  string  `json:"first_air_date,omitempty"`
	VoteAverage   float64 `json:"vote_average,omitempty"`
}

// Summarize derives a MovieSummary from a catalog movie. It returns false when
// the movie has no usable id; such entries are dropped silently.
func Summarize(movie CatalogMovie) (MovieSummary, bool) {
	if movie.ID == 0 {
		return MovieSummary{}, false
	}
	summary := MovieSummary{
		ID:    movie.ID,
		Title: pickTitle(movie),
	}
	if path := firstNonEmpty(movie.PosterPath, movie.BackdropPath); path != "" {
		summary.PosterPath = &path
	}
	if date := firstNonEmpty(movie.ReleaseDate, movie.FirstAirDate); date != "" {
		summary.ReleaseDate = &date
	}
	return summary, true
}

func pickTitle(movie CatalogMovie) string {
	for _, candidate := range []string{movie.Title, movie.Name, movie.OriginalTitle, movie.OriginalName} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return "Untitled"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// SessionState is a snapshot of the reactive identity exposed by the session
// controller.
type SessionState struct {
	Account     fields.Account `json:"account"`
	Profile     *Profile       `json:"profile"`
	HasProvider bool           `json:"has_provider"`
	Ready       bool           `json:"ready"`
	Connecting  bool           `json:"connecting"`
	CanPersist  bool           `json:"can_persist"`
	Error       string         `json:"error,omitempty"`
}

func (s SessionState) Authenticated() bool {
	return !s.Account.IsNull()
}
