package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

// fixedRatings makes assertions deterministic.
type fixedRatings struct{}

func (fixedRatings) Rating(string) (float64, int) { return 4.2, 37 }
func (fixedRatings) Blurb(string) string          { return "a favorite in many households" }

func TestBookServiceList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "space", r.URL.Query().Get("q"))
		assert.Equal(t, "science", r.URL.Query().Get("subject"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"docs":[
			{"key":"/works/OL45883W","title":"Fantastic Mr Fox","author_name":["Roald Dahl"],"first_publish_year":1970,"cover_i":6498519},
			{"key":"/works/OL123W","title":"No Cover"}
		]}`))
	}))
	defer srv.Close()

	svc := NewBookService(nopLogger{}, fixedRatings{}, srv.URL)
	got := svc.List(context.Background(), Filters{Query: "space", Subject: "science"})

	require.Len(t, got, 2)
	assert.Equal(t, Summary{
		ID:       "OL45883W",
		Title:    "Fantastic Mr Fox",
		Creator:  "Roald Dahl",
		Year:     "1970",
		ImageURL: "https://covers.openlibrary.org/b/id/6498519-M.jpg",
		Rating:   4.2,
		Reviews:  37,
	}, got[0])
	assert.Equal(t, PlaceholderImage, got[1].ImageURL)
	assert.Empty(t, got[1].Year)
}

func TestBookServiceListUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewBookService(nopLogger{}, fixedRatings{}, srv.URL)
	got := svc.List(context.Background(), Filters{})

	require.NotNil(t, got, "failures surface as an empty list, never nil")
	assert.Empty(t, got)
}

func TestBookServiceGetByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/works/OL45883W.json", r.URL.Path)
		w.Write([]byte(`{
			"title":"Fantastic Mr Fox",
			"description":{"value":"A clever fox outwits three farmers."},
			"subjects":["Foxes","Fiction"],
			"covers":[6498519]
		}`))
	}))
	defer srv.Close()

	svc := NewBookService(nopLogger{}, fixedRatings{}, srv.URL)
	got, err := svc.GetByID(context.Background(), "OL45883W")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Fantastic Mr Fox", got.Title)
	assert.Equal(t, "A clever fox outwits three farmers.", got.Description)
	assert.Equal(t, []string{"Foxes", "Fiction"}, got.Genres)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/6498519-M.jpg", got.ImageURL)
	assert.Equal(t, "a favorite in many households", got.Blurb)
}

func TestBookServiceGetByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewBookService(nopLogger{}, fixedRatings{}, srv.URL)
	got, err := svc.GetByID(context.Background(), "nope")
	require.NoError(t, err, "an absent item is not an error")
	assert.Nil(t, got)
}

func TestDecodeOLDescription(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "bare string", raw: `"plain"`, want: "plain"},
		{name: "object", raw: `{"value":"wrapped"}`, want: "wrapped"},
		{name: "garbage", raw: `[1,2]`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeOLDescription([]byte(tt.raw)))
		})
	}
}

func TestSubmitFeedbackCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewBookService(nopLogger{}, fixedRatings{})
	res := svc.SubmitFeedback(ctx, Feedback{ItemID: "OL45883W", Rating: 5})

	assert.False(t, res.Success)
	assert.Equal(t, "cancelled", res.Message)
}
