// Package client is the typed REST client the mobile and desktop frontends
// use against the API. The bearer token is never held here; every request
// reads it from the profile session at call time.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core"
	"github.com/tkamau/tunza/core/account"
	"github.com/tkamau/tunza/core/child"
	"github.com/tkamau/tunza/core/message"
	"github.com/tkamau/tunza/core/post"
	"github.com/tkamau/tunza/core/profile"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response. Fields is populated when the backend
// returned a per-field validation map instead of a single message.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for f, m := range e.Fields {
			parts = append(parts, f+": "+m)
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// AuthResult is the token response from register, login and OTP verification.
type AuthResult struct {
	Token string `json:"token"`
	ID    string `json:"id,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	session *profile.Session
	logger  core.Logger
}

func New(baseURL string, session *profile.Session, logger core.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
		logger:  logger,
	}
}

// Session exposes the session the client authenticates from.
func (c *Client) Session() *profile.Session { return c.session }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response body")
	}
	return nil
}

// decodeError maps a failure body to an APIError. The backend sends either
// {"message": "..."} or a field-to-message map.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body map[string]interface{}
	if err = json.Unmarshal(data, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}

	if m, ok := body["message"].(string); ok && len(body) == 1 {
		apiErr.Message = m
		return apiErr
	}
	apiErr.Fields = make(map[string]string, len(body))
	for field, val := range body {
		if m, ok := val.(string); ok {
			apiErr.Fields[field] = m
		}
	}
	return apiErr
}

// --- auth ---

// RegisterGuardian creates a guardian account. The returned token is stored
// on the session.
func (c *Client) RegisterGuardian(ctx context.Context, data account.NewRegistration) (AuthResult, error) {
	return c.register(ctx, "/v1/auth/register-guardian", data)
}

// RegisterTutor creates a tutor account. The returned token is stored on the
// session.
func (c *Client) RegisterTutor(ctx context.Context, data account.NewRegistration) (AuthResult, error) {
	return c.register(ctx, "/v1/auth/register-tutor", data)
}

func (c *Client) register(ctx context.Context, path string, data account.NewRegistration) (AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, path, data, &res); err != nil {
		return AuthResult{}, err
	}
	c.session.SetToken(res.Token)
	c.session.SetPhone(data.Phone)
	return res, nil
}

func (c *Client) Login(ctx context.Context, creds account.Credentials) (AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", creds, &res); err != nil {
		return AuthResult{}, err
	}
	c.session.SetToken(res.Token)
	return res, nil
}

// VerifyOTP confirms the phone OTP. A fresh token comes back and replaces
// the session's.
func (c *Client) VerifyOTP(ctx context.Context, data account.VerifyOTP) (AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/v1/auth/verify-otp", data, &res); err != nil {
		return AuthResult{}, err
	}
	c.session.SetToken(res.Token)
	return res, nil
}

func (c *Client) ResendOTP(ctx context.Context, phone string) error {
	body := map[string]string{"phoneNumber": phone}
	return c.do(ctx, http.MethodPost, "/v1/auth/resend-otp", body, nil)
}

func (c *Client) SendEmailOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/v1/auth/send-email-otp", body, nil)
}

func (c *Client) VerifyEmail(ctx context.Context, data account.VerifyEmailOTP) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/verify-email", data, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/v1/auth/forgot-password", body, nil)
}

func (c *Client) ResetPassword(ctx context.Context, data account.ResetAccountPassword) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/reset-password", data, nil)
}

// Logout clears the session token and resets the profile record.
func (c *Client) Logout() { c.session.Logout() }

// --- guardian / tutor ---

func (c *Client) CompleteGuardianProfile(ctx context.Context, data account.CompleteGuardianProfile) (account.Account, error) {
	var acct account.Account
	err := c.do(ctx, http.MethodPut, "/v1/guardian/complete-profile", data, &acct)
	return acct, err
}

func (c *Client) CompleteTutorProfile(ctx context.Context, data account.CompleteTutorProfile) (account.Account, error) {
	var acct account.Account
	err := c.do(ctx, http.MethodPut, "/v1/tutor/complete-profile", data, &acct)
	return acct, err
}

// Tutors lists the tutor directory. Ordering entries are field names,
// prefixed with "-" for descending.
func (c *Client) Tutors(ctx context.Context, filter *account.TutorFilter, ordering ...string) ([]account.Account, error) {
	q := url.Values{}
	if filter != nil {
		if filter.Search != "" {
			q.Set("search", filter.Search)
		}
		if filter.Subject != "" {
			q.Set("subject", filter.Subject)
		}
	}
	for _, o := range ordering {
		q.Add("ordering", o)
	}
	path := "/v1/tutor/get-all-tutors"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var tutors []account.Account
	err := c.do(ctx, http.MethodGet, path, nil, &tutors)
	return tutors, err
}

func (c *Client) TutorByID(ctx context.Context, id string) (account.Account, error) {
	var acct account.Account
	err := c.do(ctx, http.MethodGet, "/v1/tutor/get-by-id/"+url.PathEscape(id), nil, &acct)
	return acct, err
}

// --- children ---

func (c *Client) AddChild(ctx context.Context, data child.NewChild) (child.Child, error) {
	var ch child.Child
	err := c.do(ctx, http.MethodPost, "/v1/child/add-child", data, &ch)
	return ch, err
}

func (c *Client) Children(ctx context.Context) ([]child.Child, error) {
	var children []child.Child
	err := c.do(ctx, http.MethodGet, "/v1/child/get-all-children", nil, &children)
	return children, err
}

func (c *Client) UpdateChildAbout(ctx context.Context, childID, about string) (child.Child, error) {
	var ch child.Child
	err := c.do(ctx, http.MethodPatch, "/v1/child/"+url.PathEscape(childID)+"/about", child.UpdateAbout{About: about}, &ch)
	return ch, err
}

func (c *Client) AddMilestone(ctx context.Context, data child.NewMilestone) (child.Milestone, error) {
	var ms child.Milestone
	err := c.do(ctx, http.MethodPost, "/v1/child/add-milestone", data, &ms)
	return ms, err
}

func (c *Client) Milestones(ctx context.Context, childID string) ([]child.Milestone, error) {
	var milestones []child.Milestone
	err := c.do(ctx, http.MethodGet, "/v1/child/get-milestones/"+url.PathEscape(childID), nil, &milestones)
	return milestones, err
}

// --- posts ---

func (c *Client) AddPost(ctx context.Context, data post.NewPost) (post.Post, error) {
	var p post.Post
	err := c.do(ctx, http.MethodPost, "/v1/post/add-post", data, &p)
	return p, err
}

func (c *Client) Posts(ctx context.Context, childID string) ([]post.Post, error) {
	var posts []post.Post
	err := c.do(ctx, http.MethodGet, "/v1/post/get-all-post/"+url.PathEscape(childID), nil, &posts)
	return posts, err
}

func (c *Client) UpdatePost(ctx context.Context, id string, data post.UpdatePost) (post.Post, error) {
	var p post.Post
	err := c.do(ctx, http.MethodPut, "/v1/post/update/"+url.PathEscape(id), data, &p)
	return p, err
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/post/delete/"+url.PathEscape(id), nil, nil)
}

// --- messaging ---

func (c *Client) SendMessage(ctx context.Context, data message.NewMessage) (message.Message, error) {
	var msg message.Message
	err := c.do(ctx, http.MethodPost, "/v1/message", data, &msg)
	return msg, err
}

func (c *Client) Conversation(ctx context.Context, otherUserID string) ([]message.Message, error) {
	var msgs []message.Message
	err := c.do(ctx, http.MethodGet, "/v1/message/get-messages/"+url.PathEscape(otherUserID), nil, &msgs)
	return msgs, err
}

func (c *Client) Notifications(ctx context.Context) ([]message.Notification, error) {
	var notifs []message.Notification
	err := c.do(ctx, http.MethodGet, "/v1/message/notifications", nil, &notifs)
	return notifs, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) (message.Notification, error) {
	var notif message.Notification
	err := c.do(ctx, http.MethodPatch, "/v1/message/notification/"+url.PathEscape(id)+"/read", nil, &notif)
	return notif, err
}
