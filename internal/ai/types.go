package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownModel     = errors.New("unknown model")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrEmptyReply       = errors.New("backend returned an empty reply")
)

// Model is one selectable chat bot of the backend.
type Model struct {
	Codename    string `json:"codename"`
	DisplayName string `json:"display_name"`
}

// Chunk is one streamed fragment of a reply. TextNew holds only the text
// added since the previous chunk.
type Chunk struct {
	TextNew string
	Text    string
	Done    bool
	Err     error
}

// Backend is the conversational service the bot relays to.
type Backend interface {
	SendMessage(ctx context.Context, codename, text string, withChatBreak bool) (<-chan Chunk, error)
	SendChatBreak(ctx context.Context, codename string) error
	PurgeConversation(ctx context.Context, codename string) error
	BotNames(ctx context.Context) ([]Model, error)
}

// Collect drains ch and returns the concatenated reply.
func Collect(ctx context.Context, ch <-chan Chunk) (string, error) {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				if sb.Len() == 0 {
					return "", ErrEmptyReply
				}
				return sb.String(), nil
			}
			if chunk.Err != nil {
				return sb.String(), chunk.Err
			}
			sb.WriteString(chunk.TextNew)
		}
	}
}

type BackendError struct {
	Op             string
	Model          string
	HTTPStatusCode int
	Message        string
	OriginalErr    error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.OriginalErr != nil {
		msg = e.OriginalErr.Error()
	}
	if e.Model != "" {
		msg = fmt.Sprintf("[%s] %s", e.Model, msg)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.HTTPStatusCode != 0 {
		msg = fmt.Sprintf("%d %s", e.HTTPStatusCode, msg)
	}
	return msg
}

func (e *BackendError) Unwrap() error {
	return e.OriginalErr
}

// StreamOf returns a closed channel yielding texts as consecutive chunks.
func StreamOf(texts ...string) <-chan Chunk {
	ch := make(chan Chunk, len(texts))
	var full strings.Builder
	for i, t := range texts {
		full.WriteString(t)
		ch <- Chunk{TextNew: t, Text: full.String(), Done: i == len(texts)-1}
	}
	close(ch)
	return ch
}
