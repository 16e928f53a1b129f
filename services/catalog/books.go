package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core"
)

const openLibraryBaseURL = "https://openlibrary.org"

// bookService recommends books through the Open Library search API.
type bookService struct {
	client  *http.Client
	baseURL string
	logger  core.Logger
	ratings RatingSource
}

var _ Service = (*bookService)(nil)

func NewBookService(logger core.Logger, ratings RatingSource, baseURL ...string) Service {
	base := openLibraryBaseURL
	if len(baseURL) > 0 {
		base = baseURL[0]
	}
	return &bookService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: base,
		logger:  logger,
		ratings: ratings,
	}
}

type (
	olSearchResponse struct {
		Docs []olDoc `json:"docs"`
	}
	olDoc struct {
		Key              string   `json:"key"` // "/works/OL45883W"
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		CoverID          int      `json:"cover_i"`
	}
	olWork struct {
		Title       string          `json:"title"`
		Description json.RawMessage `json:"description"` // string or {"value": string}
		Subjects    []string        `json:"subjects"`
		Covers      []int           `json:"covers"`
	}
)

func (svc *bookService) List(ctx context.Context, filters Filters) []Summary {
	q := url.Values{}
	if filters.Query != "" {
		q.Set("q", filters.Query)
	} else {
		q.Set("q", "children")
	}
	if s := firstNonEmpty(filters.Subject, filters.Genre); s != "" {
		q.Set("subject", s)
	}
	q.Set("limit", "20")

	var res olSearchResponse
	if err := svc.getJSON(ctx, "/search.json?"+q.Encode(), &res); err != nil {
		svc.logger.Warn("catalog: book search failed", err)
		return []Summary{}
	}

	out := make([]Summary, 0, len(res.Docs))
	for _, doc := range res.Docs {
		id := strings.TrimPrefix(doc.Key, "/works/")
		rating, reviews := svc.ratings.Rating(id)
		s := Summary{
			ID:       id,
			Title:    doc.Title,
			ImageURL: coverURL(doc.CoverID),
			Rating:   rating,
			Reviews:  reviews,
		}
		if len(doc.AuthorName) > 0 {
			s.Creator = doc.AuthorName[0]
		}
		if doc.FirstPublishYear > 0 {
			s.Year = fmt.Sprintf("%d", doc.FirstPublishYear)
		}
		out = append(out, s)
	}
	return out
}

func (svc *bookService) GetByID(ctx context.Context, id string) (*Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+"/works/"+url.PathEscape(id)+".json", nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	resp, err := svc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching work")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// absent, not an error
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching work: status %d", resp.StatusCode)
	}

	var work olWork
	if err = json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, errors.Wrap(err, "decoding work")
	}

	rating, reviews := svc.ratings.Rating(id)
	d := &Detail{
		Summary: Summary{
			ID:       id,
			Title:    work.Title,
			ImageURL: PlaceholderImage,
			Rating:   rating,
			Reviews:  reviews,
		},
		Description: decodeOLDescription(work.Description),
		Genres:      work.Subjects,
		Blurb:       svc.ratings.Blurb(id),
	}
	if len(work.Covers) > 0 {
		d.ImageURL = coverURL(work.Covers[0])
	}
	return d, nil
}

func (svc *bookService) SubmitFeedback(ctx context.Context, fb Feedback) FeedbackResult {
	return submitFeedback(ctx, fb)
}

func (svc *bookService) getJSON(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	resp, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling open library")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("open library: status %d", resp.StatusCode)
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(dst), "decoding response")
}

// coverURL resolves a cover ID to the medium-size image, falling back to the
// placeholder.
func coverURL(coverID int) string {
	if coverID <= 0 {
		return PlaceholderImage
	}
	return fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", coverID)
}

// decodeOLDescription handles Open Library's two description encodings:
// a bare string or {"value": "..."}.
func decodeOLDescription(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
