package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type fakeGmailAPI struct {
	t        *testing.T
	messages map[string]*gmail.Message
	query    string
	max      string
	modified map[string][]string
	sent     []*gmail.Message
}

func (f *fakeGmailAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/messages/send") && r.Method == http.MethodPost:
		var m gmail.Message
		body, _ := io.ReadAll(r.Body)
		require.NoError(f.t, json.Unmarshal(body, &m))
		f.sent = append(f.sent, &m)
		require.NoError(f.t, json.NewEncoder(w).Encode(&gmail.Message{Id: "sent-1"}))
	case strings.HasSuffix(path, "/modify"):
		id := strings.TrimSuffix(path[strings.LastIndex(path, "/messages/")+len("/messages/"):], "/modify")
		var req gmail.ModifyMessageRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(f.t, json.Unmarshal(body, &req))
		if f.modified == nil {
			f.modified = map[string][]string{}
		}
		f.modified[id] = req.RemoveLabelIds
		require.NoError(f.t, json.NewEncoder(w).Encode(&gmail.Message{Id: id}))
	case strings.HasSuffix(path, "/messages"):
		f.query = r.URL.Query().Get("q")
		f.max = r.URL.Query().Get("maxResults")
		resp := &gmail.ListMessagesResponse{}
		for _, id := range []string{"m1", "m2"} {
			resp.Messages = append(resp.Messages, &gmail.Message{Id: id})
		}
		require.NoError(f.t, json.NewEncoder(w).Encode(resp))
	case strings.Contains(path, "/messages/"):
		id := path[strings.LastIndex(path, "/")+1:]
		m, ok := f.messages[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
			return
		}
		require.NoError(f.t, json.NewEncoder(w).Encode(m))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, api *fakeGmailAPI, cfg Config) *Client {
	t.Helper()
	api.t = t
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), cfg,
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return client
}

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func multipartMessage() *gmail.Message {
	return &gmail.Message{
		Id:       "m1",
		ThreadId: "t1",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Jane Doe <jane@example.com>"},
				{Name: "To", Value: "exec@example.com"},
				{Name: "Subject", Value: "=?UTF-8?B?w5xiZXJibGljaw==?="},
				{Name: "Date", Value: "Mon, 08 Jan 2024 09:30:00 -0500"},
				{Name: "Message-ID", Value: "<abc@example.com>"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>Can we meet?</p>")}},
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("Can we meet next week?")}},
			},
		},
	}
}

func TestClient_ListUnread(t *testing.T) {
	api := &fakeGmailAPI{}
	client := newTestClient(t, api, Config{})

	ids, err := client.ListUnread(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
	assert.Equal(t, DefaultInboxQuery, api.query)
	assert.Equal(t, "50", api.max)

	_, err = client.ListUnread(context.Background(), "is:unread label:vip", 5)
	require.NoError(t, err)
	assert.Equal(t, "is:unread label:vip", api.query)
	assert.Equal(t, "5", api.max)
}

func TestClient_GetMessage(t *testing.T) {
	api := &fakeGmailAPI{messages: map[string]*gmail.Message{
		"m1": multipartMessage(),
		"m2": {
			Id:           "m2",
			Snippet:      "snippet only",
			InternalDate: time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC).UnixMilli(),
			Payload:      &gmail.MessagePart{MimeType: "text/html"},
		},
	}}
	client := newTestClient(t, api, Config{})

	msg, err := client.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "t1", msg.ThreadID)
	assert.Equal(t, "Jane Doe <jane@example.com>", msg.From)
	assert.Equal(t, "Überblick", msg.Subject)
	assert.Equal(t, "Can we meet next week?", msg.Body)
	assert.True(t, msg.Date.Equal(time.Date(2024, 1, 8, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, "<abc@example.com>", msg.MessageID)

	msg, err = client.GetMessage(context.Background(), "m2")
	require.NoError(t, err)
	assert.Equal(t, "snippet only", msg.Body)
	assert.True(t, msg.Date.Equal(time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)))

	_, err = client.GetMessage(context.Background(), "missing")
	assert.ErrorContains(t, err, "failed to get message missing")
}

func TestClient_MarkRead(t *testing.T) {
	api := &fakeGmailAPI{}
	client := newTestClient(t, api, Config{})

	require.NoError(t, client.MarkRead(context.Background(), "m1"))
	assert.Equal(t, []string{"UNREAD"}, api.modified["m1"])
}

func TestClient_Send(t *testing.T) {
	api := &fakeGmailAPI{}
	client := newTestClient(t, api, Config{From: "assistant@example.com"})

	id, err := client.Send(context.Background(), Outgoing{
		To:      []string{"jane@example.com"},
		Subject: "Meeting Confirmed: Sync",
		Body:    "See you then.",
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", id)
	require.Len(t, api.sent, 1)

	raw, err := base64.URLEncoding.DecodeString(api.sent[0].Raw)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "From: assistant@example.com\r\n")
	assert.Contains(t, string(raw), "To: jane@example.com\r\n")
	assert.Contains(t, string(raw), "Subject: Meeting Confirmed: Sync\r\n")
	assert.True(t, strings.HasSuffix(string(raw), "\r\n\r\nSee you then."))

	_, err = client.Send(context.Background(), Outgoing{Subject: "x"})
	assert.ErrorContains(t, err, "recipient")
	_, err = client.Send(context.Background(), Outgoing{To: []string{"a@b.c"}})
	assert.ErrorContains(t, err, "subject")
}

func TestClient_Reply(t *testing.T) {
	api := &fakeGmailAPI{}
	client := newTestClient(t, api, Config{})

	original := Message{
		ThreadID:   "t1",
		From:       "jane@example.com",
		Subject:    "Quarterly planning",
		MessageID:  "<abc@example.com>",
		References: "<root@example.com>",
	}
	_, err := client.Reply(context.Background(), original, "Thanks, noted.")
	require.NoError(t, err)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "t1", api.sent[0].ThreadId)

	raw, err := base64.URLEncoding.DecodeString(api.sent[0].Raw)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Subject: Re: Quarterly planning\r\n")
	assert.Contains(t, string(raw), "In-Reply-To: <abc@example.com>\r\n")
	assert.Contains(t, string(raw), "References: <root@example.com> <abc@example.com>\r\n")

	_, err = client.Reply(context.Background(), Message{}, "x")
	assert.Error(t, err)
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Hello", replySubject("Hello"))
	assert.Equal(t, "RE: Hello", replySubject("RE: Hello"))
}

func TestEncodeRFC2047(t *testing.T) {
	assert.Equal(t, "Plain subject", encodeRFC2047("Plain subject"))
	assert.Equal(t, "=?UTF-8?b?w5xiZXJibGljaw==?=", encodeRFC2047("Überblick"))
}

func TestDecodeData(t *testing.T) {
	got, err := decodeData(base64.RawURLEncoding.EncodeToString([]byte("no padding!")))
	require.NoError(t, err)
	assert.Equal(t, "no padding!", got)

	_, err = decodeData("***")
	assert.Error(t, err)
}
