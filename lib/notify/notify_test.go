package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type relay struct {
	server *httptest.Server
	status int
	hits   atomic.Int32
	text   atomic.Value
	key    atomic.Value
}

func newRelay(t *testing.T, status int) *relay {
	r := &relay{status: status}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.hits.Add(1)
		r.key.Store(req.URL.Query().Get("pushkey"))
		r.text.Store(req.URL.Query().Get("text"))
		w.WriteHeader(r.status)
		w.Write([]byte(`{"code":0}`))
	}))
	t.Cleanup(r.server.Close)
	return r
}

func (r *relay) channel() TemplateChannel {
	client := resty.New().SetTimeout(time.Second * 5)
	return NewTemplateChannel(
		"test-relay",
		r.server.URL+"/message/push?pushkey={TOKEN}&text={RESULT}",
		"PDU123",
		client,
	)
}

func TestTemplateChannelEncodesText(t *testing.T) {
	r := newRelay(t, http.StatusOK)
	dispatcher := NewDispatcher(0, r.channel())

	text := "Data Structures A-\n-----\nCourse Name: Data Structures & Algorithms\nGrade: A-\n"
	err := dispatcher.Dispatch(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, int32(1), r.hits.Load())
	require.Equal(t, "PDU123", r.key.Load())
	require.Equal(t, text, r.text.Load())
}

func TestDispatchEmptyTextIsNoop(t *testing.T) {
	r := newRelay(t, http.StatusOK)
	dispatcher := NewDispatcher(0, r.channel())

	err := dispatcher.Dispatch(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, int32(0), r.hits.Load())
}

func TestDispatchRelayFailure(t *testing.T) {
	r := newRelay(t, http.StatusInternalServerError)
	dispatcher := NewDispatcher(0, r.channel())

	err := dispatcher.Dispatch(context.Background(), "hello")
	var pushErr *PushError
	require.ErrorAs(t, err, &pushErr)
	require.Equal(t, http.StatusInternalServerError, pushErr.Status)
	require.Equal(t, `{"code":0}`, pushErr.Body)
	require.Equal(t, "test-relay", pushErr.Channel)
	require.Equal(t, int32(1), r.hits.Load())
}

func TestDispatchUnknownChannel(t *testing.T) {
	r := newRelay(t, http.StatusOK)

	for _, index := range []int{-1, 1, 7} {
		dispatcher := NewDispatcher(index, r.channel())
		err := dispatcher.Dispatch(context.Background(), "hello")
		require.ErrorIs(t, err, ErrUnknownChannel)
	}
	require.Equal(t, int32(0), r.hits.Load())
}

func TestDefaultChannels(t *testing.T) {
	channels := DefaultChannels("token", resty.New(), EmailOptions{})
	require.Len(t, channels, 3)
	require.Equal(t, "pushdeer", channels[ChannelPushdeer].Name())
	require.Equal(t, "pushplus", channels[ChannelPushplus].Name())
	require.Equal(t, "email", channels[ChannelEmail].Name())

	pushplus := channels[ChannelPushplus].(TemplateChannel)
	require.Equal(
		t,
		"http://www.pushplus.plus/send?token=token&content=a+b%26c&template=txt",
		pushplus.url("a b&c"),
	)
}

func TestEmailChannel(t *testing.T) {
	unconfigured := NewEmailChannel(EmailOptions{})
	err := unconfigured.Send(context.Background(), "hello")
	require.ErrorContains(t, err, "no smtp server")

	channel := NewEmailChannel(EmailOptions{Server: "smtp.example.com", EmailAddress: "me@example.com"})
	mail := channel.message("New grades\n-----\nGrade: A\n")
	require.Equal(t, "New grades", mail.Subject)
	require.Equal(t, []string{"me@example.com"}, mail.To)
	require.True(t, strings.HasPrefix(string(mail.Text), "New grades"))
}
