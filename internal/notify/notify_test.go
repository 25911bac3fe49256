package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordSender struct {
	name   string
	err    error
	titles []string
}

func (r *recordSender) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func (r *recordSender) Name() string { return r.name }

func TestNotifierFiltersEvents(t *testing.T) {
	s := &recordSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{EventOpportunity, " "}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), EventStartup, "up", ""))
	require.NoError(t, n.Notify(context.Background(), EventOpportunity, "opp", ""))
	require.NoError(t, n.NotifyAll(context.Background(), "all", ""))

	assert.Equal(t, []string{"opp", "all"}, s.titles)
}

func TestNotifierContinuesPastFailures(t *testing.T) {
	bad := &recordSender{name: "bad", err: errors.New("down")}
	good := &recordSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discardLogger())

	err := n.Notify(context.Background(), EventOpportunity, "x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: down")
	assert.Equal(t, []string{"x"}, good.titles)
}

func TestNilNotifierIsDisabled(t *testing.T) {
	var n *Notifier
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Notify(context.Background(), EventStartup, "x", ""))
}

func TestDiscordSenderTruncates(t *testing.T) {
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL, "spreadbot")
	require.NoError(t, d.Send(context.Background(), "Title", strings.Repeat("x", 3000)))
	assert.Equal(t, "spreadbot", got.Username)
	assert.Len(t, []rune(got.Content), discordContentLimit)
	assert.True(t, strings.HasPrefix(got.Content, "**Title**\n"))
}

func TestDiscordSenderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL, "").Send(context.Background(), "t", "m")
	assert.ErrorContains(t, err, "unexpected status 400")
}

type recordChat struct {
	chatID int64
	text   string
	kb     domain.Keyboard
}

func (r *recordChat) SendMessage(_ context.Context, chatID int64, text string, kb domain.Keyboard) error {
	r.chatID, r.text, r.kb = chatID, text, kb
	return nil
}

func TestTelegramSenderEscapes(t *testing.T) {
	chat := &recordChat{}
	s := NewTelegramSender(chat, -100)
	require.NoError(t, s.Send(context.Background(), "a<b", "x & y"))
	assert.Equal(t, int64(-100), chat.chatID)
	assert.Equal(t, "<b>a&lt;b</b>\nx &amp; y", chat.text)
	assert.Nil(t, chat.kb)
}

type failingTransport struct{ calls int }

func (f *failingTransport) Send(context.Context, domain.RecipientID, domain.Message) error {
	f.calls++
	return errors.New("blocked by user")
}

func TestDeliveryReturnsFailureWithoutRetry(t *testing.T) {
	tr := &failingTransport{}
	d := NewDelivery(tr, discardLogger())
	err := d.Send(context.Background(), 5, domain.Message{Text: "hi"})
	assert.Error(t, err)
	assert.Equal(t, 1, tr.calls)
}
