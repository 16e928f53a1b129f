package catalog

import (
	"context"
	"time"
)

// PlaceholderImage is used whenever the upstream has no artwork.
const PlaceholderImage = "https://via.placeholder.com/150"

// feedbackDelay simulates a round-trip; feedback has no real backend yet.
const feedbackDelay = 800 * time.Millisecond

type (
	// Filters narrows a catalog listing. Age and Level are accepted for
	// interface stability but the upstreams have no matching params, so
	// they are not forwarded.
	Filters struct {
		Query   string
		Genre   string
		Subject string
		Age     int
		Level   string
	}

	Summary struct {
		ID       string  `json:"id"`
		Title    string  `json:"title"`
		Creator  string  `json:"creator"` // author or director
		Year     string  `json:"year,omitempty"`
		ImageURL string  `json:"image_url"`
		Rating   float64 `json:"rating"`
		Reviews  int     `json:"reviews"`
	}

	Detail struct {
		Summary
		Description string   `json:"description,omitempty"`
		Genres      []string `json:"genres,omitempty"`
		Blurb       string   `json:"blurb,omitempty"`
	}

	Feedback struct {
		ItemID  string `json:"itemId" validate:"required"`
		Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
		Comment string `json:"comment" validate:"omitempty,max=2000"`
	}

	FeedbackResult struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	// Service is the shared contract of the content adapters. List swallows
	// upstream failures and returns an empty slice; GetByID returns
	// (nil, nil) when the item does not exist upstream.
	Service interface {
		List(ctx context.Context, filters Filters) []Summary
		GetByID(ctx context.Context, id string) (*Detail, error)
		SubmitFeedback(ctx context.Context, fb Feedback) FeedbackResult
	}
)

// submitFeedback is the shared mock implementation: a fixed delay then a
// canned acknowledgement.
func submitFeedback(ctx context.Context, fb Feedback) FeedbackResult {
	select {
	case <-time.After(feedbackDelay):
	case <-ctx.Done():
		return FeedbackResult{Success: false, Message: "cancelled"}
	}
	return FeedbackResult{Success: true, Message: "thank you for your feedback"}
}
