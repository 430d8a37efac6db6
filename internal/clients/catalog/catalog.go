// Package catalog is a client for the movie catalog API that backs the
// browsing surfaces. All read-only: discovery, search and detail lookups.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"reelpass/proj/internal/domain/models"
)

const defaultImageSize = "w500"

// PlaceholderImage is served when a movie has no artwork at all.
const PlaceholderImage = "/placeholder.svg"

var ErrNotFound = errors.New("catalog title not found")

type Client struct {
	log          *slog.Logger
	httpClient   *http.Client
	baseURL      string
	imageBaseURL string
	token        string
	language     string
}

func New(log *slog.Logger, baseURL, imageBaseURL, token, language string, timeout time.Duration) *Client {
	return &Client{
		log:          log,
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		token:        token,
		language:     language,
	}
}

// Page is one page of catalog results.
type Page struct {
	Page         int                   `json:"page"`
	Results      []models.CatalogMovie `json:"results"`
	TotalPages   int                   `json:"total_pages"`
	TotalResults int                   `json:"total_results"`
}

// Popular returns the current popular titles.
func (c *Client) Popular(ctx context.Context, page int) (*Page, error) {
	query := url.Values{}
	query.Set("language", c.language)
	query.Set("page", strconv.Itoa(page))
	var res Page
	if err := c.get(ctx, "/movie/popular", query, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Search runs a title search. Adult titles are always excluded.
func (c *Client) Search(ctx context.Context, searchQuery string, page int) (*Page, error) {
	query := url.Values{}
	query.Set("query", searchQuery)
	query.Set("include_adult", "false")
	query.Set("language", c.language)
	query.Set("page", strconv.Itoa(page))
	var res Page
	if err := c.get(ctx, "/search/movie", query, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MovieDetail is a full title record with its related sub-resources fetched in
// the same round trip.
type MovieDetail struct {
	models.CatalogMovie
	Runtime int             `json:"runtime"`
	Genres  []Genre         `json:"genres"`
	Credits json.RawMessage `json:"credits"`
	Videos  json.RawMessage `json:"videos"`
	Similar *Page           `json:"similar"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movie fetches one title with credits, videos and similar titles appended.
func (c *Client) Movie(ctx context.Context, id int64) (*MovieDetail, error) {
	query := url.Values{}
	query.Set("language", c.language)
	query.Set("append_to_response", "credits,videos,similar")
	var res MovieDetail
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), query, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ImageURL resolves a poster or backdrop path to a full image URL, falling
// back to the placeholder when the title carries no artwork.
func (c *Client) ImageURL(path *string, size string) string {
	if path == nil || *path == "" {
		return PlaceholderImage
	}
	if size == "" {
		size = defaultImageSize
	}
	return c.imageBaseURL + "/" + size + *path
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	const op = "catalog.Client.get"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.log.With("op", op).Warn("unexpected catalog status",
			"status", resp.StatusCode, "path", path)
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
