package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	name       string
	sendErr    error
	photoErr   error
	sent       []string
	photosSent int
}

func (s *stubSender) Send(ctx context.Context, title, message string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, message)
	return nil
}

func (s *stubSender) SendPhoto(ctx context.Context, image []byte, caption string) error {
	if s.photoErr != nil {
		return s.photoErr
	}
	s.photosSent++
	return nil
}

func (s *stubSender) Name() string { return s.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeliverFansOut(t *testing.T) {
	a := &stubSender{name: "a"}
	b := &stubSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, discardLogger())

	images := [][]byte{{1}, {2}}
	err := n.Deliver(context.Background(), "title", "report", images, "caption")
	require.NoError(t, err)

	assert.Equal(t, []string{"report"}, a.sent)
	assert.Equal(t, []string{"report"}, b.sent)
	assert.Equal(t, 2, a.photosSent)
	assert.Equal(t, 2, b.photosSent)
}

func TestDeliverFailureDoesNotSuppressOthers(t *testing.T) {
	bad := &stubSender{name: "bad", sendErr: errors.New("boom")}
	good := &stubSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, discardLogger())

	err := n.Deliver(context.Background(), "t", "text", [][]byte{{1}}, "c")
	require.Error(t, err)

	// The failing sender still gets the photo attempt, and the healthy
	// sender gets everything.
	assert.Equal(t, 1, bad.photosSent)
	assert.Equal(t, []string{"text"}, good.sent)
	assert.Equal(t, 1, good.photosSent)
}

func TestDeliverNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, discardLogger())
	assert.NoError(t, n.Deliver(context.Background(), "t", "text", nil, ""))
	assert.Zero(t, n.SenderCount())
}

func TestDeliverSkipsEmptyImages(t *testing.T) {
	a := &stubSender{name: "a"}
	n := NewNotifier([]Sender{a}, discardLogger())

	err := n.Deliver(context.Background(), "t", "text", [][]byte{nil, {1}}, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, a.photosSent)
}

func TestNoticeIgnoresFailures(t *testing.T) {
	bad := &stubSender{name: "bad", sendErr: errors.New("down")}
	n := NewNotifier([]Sender{bad}, discardLogger())

	// Must not panic or propagate.
	n.Notice(context.Background(), "tradewatch", "starting")
}
