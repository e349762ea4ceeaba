package telegram

import (
	"fmt"
	"sync"
)

// TestClient is an in-memory Client that records every outbound call.
type TestClient struct {
	mu      sync.Mutex
	self    User
	nextID  int
	updates chan Update

	sent        []TextMessage
	edits       []EditMessageTextConfig
	callbacks   []CallbackConfig
	mediaGroups []MediaGroupMessage
	photos      []PhotoMessage
	deleted     []int
	commands    []BotCommand

	// SendErr, when set, fails every text send and edit.
	SendErr error
	// MediaErr, when set, fails every media group and photo.
	MediaErr error
}

func NewTestClient(self User) *TestClient {
	return &TestClient{
		self:    self,
		nextID:  1000,
		updates: make(chan Update, 16),
	}
}

func (c *TestClient) Send(msg MessageConfig) (*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return nil, c.SendErr
	}

	switch m := msg.(type) {
	case TextMessage:
		c.nextID++
		c.sent = append(c.sent, m)
		return &Message{MessageID: c.nextID, Chat: Chat{ID: m.ChatID}, Text: m.Text, From: c.self}, nil
	case EditMessageTextConfig:
		c.edits = append(c.edits, m)
		return &Message{MessageID: m.MessageID, Chat: Chat{ID: m.ChatID}, Text: m.Text, From: c.self}, nil
	default:
		return nil, fmt.Errorf("unsupported message type %T", msg)
	}
}

func (c *TestClient) Request(msg MessageConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := msg.(CallbackConfig); ok {
		c.callbacks = append(c.callbacks, cb)
		return nil
	}
	return fmt.Errorf("unsupported request type %T", msg)
}

func (c *TestClient) SendMediaGroup(group MediaGroupMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MediaErr != nil {
		return c.MediaErr
	}
	c.mediaGroups = append(c.mediaGroups, group)
	return nil
}

func (c *TestClient) SendPhoto(photo PhotoMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MediaErr != nil {
		return c.MediaErr
	}
	c.photos = append(c.photos, photo)
	return nil
}

func (c *TestClient) DeleteMessage(chatID int64, messageID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleted = append(c.deleted, messageID)
	return nil
}

func (c *TestClient) SetCommands(commands []BotCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commands = append([]BotCommand(nil), commands...)
	return nil
}

func (c *TestClient) GetUpdatesChan(UpdateConfig) <-chan Update {
	return c.updates
}

func (c *TestClient) StopReceivingUpdates() {}

func (c *TestClient) Self() User {
	return c.self
}

// Push queues an update for GetUpdatesChan consumers.
func (c *TestClient) Push(update Update) {
	c.updates <- update
}

func (c *TestClient) Sent() []TextMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TextMessage(nil), c.sent...)
}

func (c *TestClient) Edits() []EditMessageTextConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]EditMessageTextConfig(nil), c.edits...)
}

func (c *TestClient) Callbacks() []CallbackConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CallbackConfig(nil), c.callbacks...)
}

func (c *TestClient) MediaGroups() []MediaGroupMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MediaGroupMessage(nil), c.mediaGroups...)
}

func (c *TestClient) Photos() []PhotoMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PhotoMessage(nil), c.photos...)
}

func (c *TestClient) Deleted() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.deleted...)
}

func (c *TestClient) Commands() []BotCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]BotCommand(nil), c.commands...)
}

// Texts returns the text of every sent message in order.
func (c *TestClient) Texts() []string {
	var texts []string
	for _, m := range c.Sent() {
		texts = append(texts, m.Text)
	}
	return texts
}
