// Package notify delivers outbound chat messages through a worker pool.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/profilebot/internal/domain"
	"github.com/GlebRadaev/profilebot/internal/metrics"
)

const (
	maxRetries    = 3
	retryInterval = time.Second
)

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	sender        Sender
	workerPool    WorkerPoolI
	retryInterval time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
}

func New(sender Sender, workers int) *Notifier {
	return &Notifier{
		sender:        sender,
		workerPool:    NewWorkerPool(workers),
		retryInterval: retryInterval,
		sleep:         sleepCtx,
	}
}

// Notify queues n for delivery. Delivery outlives the caller's context.
func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) error {
	deliverCtx := context.WithoutCancel(ctx)
	err := n.workerPool.AddTask(ctx, func() error {
		return n.Deliver(deliverCtx, msg)
	})
	if err != nil {
		metrics.Notifications.WithLabelValues("dropped").Inc()
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}

// Deliver sends msg synchronously, retrying rate limits and transient failures.
func (n *Notifier) Deliver(ctx context.Context, msg domain.Notification) error {
	c := Build(msg)
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if _, err = n.sender.Send(c); err == nil {
			metrics.Notifications.WithLabelValues("sent").Inc()
			return nil
		}
		wait, retry := n.backoff(err, attempt)
		if !retry || attempt == maxRetries {
			break
		}
		zap.L().Warn("notification failed, retrying",
			zap.Int64("chat_id", msg.ChatID), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		if sleepErr := n.sleep(ctx, wait); sleepErr != nil {
			err = sleepErr
			break
		}
	}
	metrics.Notifications.WithLabelValues("failed").Inc()
	return fmt.Errorf("notify chat %d: %w", msg.ChatID, err)
}

func (n *Notifier) backoff(err error, attempt int) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return n.retryInterval * time.Duration(attempt), true
	}
	switch {
	case apiErr.RetryAfter > 0:
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
		return n.retryInterval * time.Duration(attempt), true
	default:
		return 0, false
	}
}

func (n *Notifier) Close() {
	n.workerPool.Close()
}

// Build converts msg into a Telegram message. An attachment is sent as the
// message itself with the text as caption.
func Build(msg domain.Notification) tgbotapi.Chattable {
	markup := Keyboard(msg.Actions)
	if msg.Attachment != nil {
		file := tgbotapi.FileID(msg.Attachment.Ref)
		switch msg.Attachment.Kind {
		case domain.AttachmentPhoto:
			photo := tgbotapi.NewPhoto(msg.ChatID, file)
			photo.Caption = msg.Text
			if markup != nil {
				photo.ReplyMarkup = *markup
			}
			return photo
		case domain.AttachmentDocument:
			doc := tgbotapi.NewDocument(msg.ChatID, file)
			doc.Caption = msg.Text
			if markup != nil {
				doc.ReplyMarkup = *markup
			}
			return doc
		}
	}
	text := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if markup != nil {
		text.ReplyMarkup = *markup
	}
	return text
}

// Keyboard puts all actions on a single inline row.
func Keyboard(actions []domain.Action) *tgbotapi.InlineKeyboardMarkup {
	if len(actions) == 0 {
		return nil
	}
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(row)
	return &markup
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
