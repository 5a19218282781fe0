package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/profilebot/internal/domain"
)

func NewMock(t *testing.T) (*Notifier, *MockSender, *[]time.Duration) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	n := New(sender, 2)
	t.Cleanup(n.Close)

	var waits []time.Duration
	n.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return n, sender, &waits
}

func TestDeliver(t *testing.T) {
	msg := domain.Notification{ChatID: 42, Text: "hi"}
	rateLimited := &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7}}
	blocked := &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	network := errors.New("connection reset")

	tests := []struct {
		name          string
		prepareMock   func(sender *MockSender)
		expectedWaits []time.Duration
		expectedErr   error
	}{
		{
			name: "Sent first time",
			prepareMock: func(sender *MockSender) {
				sender.EXPECT().Send(gomock.Any()).Return(tgbotapi.Message{}, nil)
			},
		},
		{
			name: "Honors retry_after",
			prepareMock: func(sender *MockSender) {
				gomock.InOrder(
					sender.EXPECT().Send(gomock.Any()).Return(tgbotapi.Message{}, rateLimited),
					sender.EXPECT().Send(gomock.Any()).Return(tgbotapi.Message{}, nil),
				)
			},
			expectedWaits: []time.Duration{7 * time.Second},
		},
		{
			name: "Permanent error is not retried",
			prepareMock: func(sender *MockSender) {
				sender.EXPECT().Send(gomock.Any()).Return(tgbotapi.Message{}, blocked)
			},
			expectedErr: blocked,
		},
		{
			name: "Transport error gives up after retries",
			prepareMock: func(sender *MockSender) {
				sender.EXPECT().Send(gomock.Any()).Return(tgbotapi.Message{}, network).Times(maxRetries)
			},
			expectedWaits: []time.Duration{time.Second, 2 * time.Second},
			expectedErr:   network,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, sender, waits := NewMock(t)
			tt.prepareMock(sender)

			err := n.Deliver(context.Background(), msg)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedWaits, *waits)
		})
	}
}

func TestDeliver_CanceledWhileWaiting(t *testing.T) {
	n, sender, _ := NewMock(t)
	n.sleep = sleepCtx
	sender.EXPECT().Send(gomock.Any()).Return(tgbotapi.Message{}, errors.New("timeout"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Deliver(ctx, domain.Notification{ChatID: 1, Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNotify(t *testing.T) {
	n, sender, _ := NewMock(t)
	delivered := make(chan tgbotapi.Chattable, 1)
	sender.EXPECT().Send(gomock.Any()).DoAndReturn(func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
		delivered <- c
		return tgbotapi.Message{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.Notify(ctx, domain.Notification{ChatID: 3, Text: "queued"}))
	cancel()

	select {
	case c := <-delivered:
		msg, ok := c.(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, "queued", msg.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

func TestNotify_Closed(t *testing.T) {
	n, _, _ := NewMock(t)
	n.Close()
	err := n.Notify(context.Background(), domain.Notification{ChatID: 3, Text: "late"})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestBuild(t *testing.T) {
	actions := []domain.Action{
		{Label: "approve", Data: domain.TopupActionData(domain.DecisionApprove, "r1")},
		{Label: "reject", Data: domain.TopupActionData(domain.DecisionReject, "r1")},
	}

	photo, ok := Build(domain.Notification{
		ChatID:     9,
		Text:       "receipt",
		Attachment: &domain.Attachment{Kind: domain.AttachmentPhoto, Ref: "file-1"},
		Actions:    actions,
	}).(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "receipt", photo.Caption)
	assert.Equal(t, tgbotapi.FileID("file-1"), photo.File)
	markup, ok := photo.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "topup:approve:r1", *markup.InlineKeyboard[0][0].CallbackData)

	doc, ok := Build(domain.Notification{
		ChatID:     9,
		Attachment: &domain.Attachment{Kind: domain.AttachmentDocument, Ref: "file-2"},
	}).(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Nil(t, doc.ReplyMarkup)

	text, ok := Build(domain.Notification{ChatID: 9, Text: "plain"}).(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(9), text.ChatID)
	assert.Nil(t, text.ReplyMarkup)
}
