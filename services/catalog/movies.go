package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core"
)

const omdbBaseURL = "https://www.omdbapi.com"

// movieService recommends movies through the OMDb API.
type movieService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  core.Logger
	ratings RatingSource
}

var _ Service = (*movieService)(nil)

func NewMovieService(apiKey string, logger core.Logger, ratings RatingSource, baseURL ...string) Service {
	base := omdbBaseURL
	if len(baseURL) > 0 {
		base = baseURL[0]
	}
	return &movieService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: base,
		apiKey:  apiKey,
		logger:  logger,
		ratings: ratings,
	}
}

type (
	omdbSearchResponse struct {
		Search   []omdbSearchItem `json:"Search"`
		Response string           `json:"Response"` // "True" / "False"
		Error    string           `json:"Error"`
	}
	omdbSearchItem struct {
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		ImdbID string `json:"imdbID"`
		Poster string `json:"Poster"`
	}
	omdbDetailResponse struct {
		Title    string `json:"Title"`
		Year     string `json:"Year"`
		Director string `json:"Director"`
		Plot     string `json:"Plot"`
		Genre    string `json:"Genre"`
		Poster   string `json:"Poster"`
		Response string `json:"Response"`
		Error    string `json:"Error"`
	}
)

func (svc *movieService) List(ctx context.Context, filters Filters) []Summary {
	q := url.Values{}
	q.Set("apikey", svc.apiKey)
	q.Set("type", "movie")
	if s := firstNonEmpty(filters.Query, filters.Genre, filters.Subject); s != "" {
		q.Set("s", s)
	} else {
		q.Set("s", "family")
	}

	var res omdbSearchResponse
	if err := svc.getJSON(ctx, q, &res); err != nil {
		svc.logger.Warn("catalog: movie search failed", err)
		return []Summary{}
	}
	if res.Response != "True" {
		// OMDb reports "no results" as an error payload; an empty list is
		// the right answer either way
		return []Summary{}
	}

	out := make([]Summary, 0, len(res.Search))
	for _, item := range res.Search {
		rating, reviews := svc.ratings.Rating(item.ImdbID)
		out = append(out, Summary{
			ID:       item.ImdbID,
			Title:    item.Title,
			Year:     item.Year,
			ImageURL: posterURL(item.Poster),
			Rating:   rating,
			Reviews:  reviews,
		})
	}
	return out
}

func (svc *movieService) GetByID(ctx context.Context, id string) (*Detail, error) {
	q := url.Values{}
	q.Set("apikey", svc.apiKey)
	q.Set("i", id)
	q.Set("plot", "full")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	resp, err := svc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching movie")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching movie: status %d", resp.StatusCode)
	}

	var detail omdbDetailResponse
	if err = json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, errors.Wrap(err, "decoding movie")
	}
	if detail.Response != "True" {
		// OMDb answers 200 with Response=False for unknown IDs
		return nil, nil
	}

	rating, reviews := svc.ratings.Rating(id)
	d := &Detail{
		Summary: Summary{
			ID:       id,
			Title:    detail.Title,
			Creator:  detail.Director,
			Year:     detail.Year,
			ImageURL: posterURL(detail.Poster),
			Rating:   rating,
			Reviews:  reviews,
		},
		Description: detail.Plot,
		Blurb:       svc.ratings.Blurb(id),
	}
	if detail.Genre != "" {
		d.Genres = strings.Split(detail.Genre, ", ")
	}
	return d, nil
}

func (svc *movieService) SubmitFeedback(ctx context.Context, fb Feedback) FeedbackResult {
	return submitFeedback(ctx, fb)
}

func (svc *movieService) getJSON(ctx context.Context, q url.Values, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	resp, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling omdb")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("omdb: status %d", resp.StatusCode)
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(dst), "decoding response")
}

// posterURL filters OMDb's literal "N/A" poster value.
func posterURL(poster string) string {
	if poster == "" || poster == "N/A" {
		return PlaceholderImage
	}
	return poster
}
