package ai

import (
	"context"

	"github.com/muratoffalex/poegram/internal/service"
)

// DelayedBackend waits before every call that reaches the backend.
type DelayedBackend struct {
	next  Backend
	delay service.Delayer
}

func NewDelayedBackend(next Backend, delay service.Delayer) *DelayedBackend {
	return &DelayedBackend{next: next, delay: delay}
}

func (d *DelayedBackend) SendMessage(ctx context.Context, codename, text string, withChatBreak bool) (<-chan Chunk, error) {
	if err := d.delay.Wait(ctx); err != nil {
		return nil, err
	}
	return d.next.SendMessage(ctx, codename, text, withChatBreak)
}

func (d *DelayedBackend) SendChatBreak(ctx context.Context, codename string) error {
	if err := d.delay.Wait(ctx); err != nil {
		return err
	}
	return d.next.SendChatBreak(ctx, codename)
}

func (d *DelayedBackend) PurgeConversation(ctx context.Context, codename string) error {
	if err := d.delay.Wait(ctx); err != nil {
		return err
	}
	return d.next.PurgeConversation(ctx, codename)
}

func (d *DelayedBackend) BotNames(ctx context.Context) ([]Model, error) {
	if err := d.delay.Wait(ctx); err != nil {
		return nil, err
	}
	return d.next.BotNames(ctx)
}
