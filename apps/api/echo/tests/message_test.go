package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/tkamau/tunza/core/account"
	"github.com/tkamau/tunza/core/message"
)

func sendMessage(t *testing.T, token, recipientID, body string) message.Message {
	t.Helper()
	data := []byte(fmt.Sprintf(`{"recipientId": %q, "body": %q}`, recipientID, body))
	req, rec := newAuthRequest(http.MethodPost, "/v1/message", token, data)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("sendMessage(): code = %v; body %s", rec.Code, rec.Body.String())
	}
	var m message.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("sendMessage(): decoding body: %v", err)
	}
	return m
}

func Test_messageApi_send(t *testing.T) {
	guardian := createAccount(t, account.RoleGuardian, "MsgG", "Abcdef1!")
	tutor := createAccount(t, account.RoleTutor, "MsgT", "Abcdef1!")
	token := getToken(t, guardian)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "all failing fields at once", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"recipientId": "this field is required",
				"body":        "this field is required",
			}),
		},
		{
			name: "unknown recipient", token: token,
			body:     []byte(`{"recipientId": "nope", "body": "hello?"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"recipientId": "recipient not found"}),
		},
		{
			name: "self message", token: token,
			body:     []byte(fmt.Sprintf(`{"recipientId": %q, "body": "dear me"}`, guardian.ID)),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Message: "cannot message yourself"}),
		},
		{
			name: "ok", token: token,
			body:     []byte(fmt.Sprintf(`{"recipientId": %q, "body": "Are you free on Tuesdays?"}`, tutor.ID)),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/message", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated && rec.Code == http.StatusCreated {
				var got message.Message
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("decoding body: %v", err)
				}
				if got.SenderID != guardian.ID || got.RecipientID != tutor.ID {
					t.Errorf("sender/recipient = %q/%q, want %q/%q", got.SenderID, got.RecipientID, guardian.ID, tutor.ID)
				}
				if got.Read {
					t.Error("new message already marked read")
				}
			}
		})
	}
}

func Test_messageApi_conversation(t *testing.T) {
	guardian := createAccount(t, account.RoleGuardian, "ConvG", "Abcdef1!")
	tutor := createAccount(t, account.RoleTutor, "ConvT", "Abcdef1!")
	gToken, tToken := getToken(t, guardian), getToken(t, tutor)

	first := sendMessage(t, gToken, tutor.ID, "Hi, I saw your profile.")
	second := sendMessage(t, tToken, guardian.ID, "Hello! Happy to help.")

	req, rec := newAuthRequest(http.MethodGet, "/v1/message/get-messages/"+tutor.ID, gToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("conversation: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var msgs []message.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	// oldest first
	if msgs[0].ID != first.ID || msgs[1].ID != second.ID {
		t.Errorf("order = [%s %s], want [%s %s]", msgs[0].ID, msgs[1].ID, first.ID, second.ID)
	}

	// the fetch marked only messages addressed to the caller as read
	req, rec = newAuthRequest(http.MethodGet, "/v1/message/get-messages/"+tutor.ID, gToken)
	app.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !msgs[1].Read {
		t.Error("tutor's message to the caller not marked read")
	}
	if msgs[0].Read {
		t.Error("caller's own message marked read by their fetch")
	}

	// an outsider sees an empty thread, not someone else's messages
	outsider := createAccount(t, account.RoleGuardian, "ConvX", "Abcdef1!")
	req, rec = newAuthRequest(http.MethodGet, "/v1/message/get-messages/"+tutor.ID, getToken(t, outsider))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallList(t)}, rec)
}

func Test_messageApi_notifications(t *testing.T) {
	guardian := createAccount(t, account.RoleGuardian, "NotifG", "Abcdef1!")
	tutor := createAccount(t, account.RoleTutor, "NotifT", "Abcdef1!")
	other := createAccount(t, account.RoleGuardian, "NotifO", "Abcdef1!")

	m := sendMessage(t, getToken(t, guardian), tutor.ID, "Ping.")

	// the recipient got a message notification carrying the message id
	req, rec := newAuthRequest(http.MethodGet, "/v1/message/notifications", getToken(t, tutor))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("notifications: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var notifs []message.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("len(notifs) = %d, want 1; body %s", len(notifs), rec.Body.String())
	}
	n := notifs[0]
	if n.Kind != message.KindMessage {
		t.Errorf("kind = %q, want %q", n.Kind, message.KindMessage)
	}
	if !strings.Contains(n.Payload, m.ID) {
		t.Errorf("payload %q misses message id %s", n.Payload, m.ID)
	}
	if n.Read {
		t.Error("fresh notification already marked read")
	}

	// the sender does not notify themselves
	req, rec = newAuthRequest(http.MethodGet, "/v1/message/notifications", getToken(t, guardian))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallList(t)}, rec)

	t.Run("markRead", func(t *testing.T) {
		tests := []httpTest{
			{
				name: "someone else's notification looks absent", path: "/v1/message/notification/" + n.ID + "/read",
				token: getToken(t, other), wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
			},
			{
				name: "unknown id", path: "/v1/message/notification/nope/read", token: getToken(t, tutor),
				wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
			},
			{name: "owner", path: "/v1/message/notification/" + n.ID + "/read", token: getToken(t, tutor), wantCode: http.StatusOK},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(http.MethodPatch, tt.path, tt.token)
				app.ServeHTTP(rec, req)
				checkCodeAndData(t, tt, rec)

				if tt.wantCode == http.StatusOK && rec.Code == http.StatusOK {
					var got message.Notification
					if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
						t.Fatalf("decoding body: %v", err)
					}
					if !got.Read {
						t.Error("read = false after marking")
					}
				}
			})
		}
	})
}
