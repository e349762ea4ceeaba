package telegram

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/muratoffalex/poegram/internal/logger"
)

var retryAfterRe = regexp.MustCompile(`retry after (\d+)`)

type BotClient struct {
	bot        *tgbotapi.BotAPI
	logger     logger.Logger
	maxRetries int
}

func NewBotClient(bot *tgbotapi.BotAPI, logger logger.Logger) Client {
	return &BotClient{
		bot:        bot,
		logger:     logger,
		maxRetries: 1,
	}
}

// Send delivers a message, waiting out Telegram flood control once before
// giving up.
func (c *BotClient) Send(msg MessageConfig) (*Message, error) {
	retries := 0
	for {
		sent, err := c.bot.Send(msg.ToChattable())
		if err == nil {
			return adaptMessage(&sent), nil
		}

		retryAfter, limited := extractRetryAfter(err.Error())
		if !limited || retries >= c.maxRetries {
			return nil, err
		}
		retries++

		wait := time.Duration(retryAfter+1) * time.Second
		c.logger.WithFields(logger.Fields{
			"retry_after": retryAfter,
			"attempt":     retries,
		}).Warn("Rate limit hit, waiting before retry")
		time.Sleep(wait)
	}
}

func (c *BotClient) Request(msg MessageConfig) error {
	_, err := c.bot.Request(msg.ToChattable())
	return err
}

func (c *BotClient) SendMediaGroup(group MediaGroupMessage) error {
	_, err := c.bot.Request(group.ToChattable())
	return err
}

func (c *BotClient) SendPhoto(photo PhotoMessage) error {
	_, err := c.bot.Send(photo.ToChattable())
	return err
}

func (c *BotClient) DeleteMessage(chatID int64, messageID int) error {
	_, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (c *BotClient) SetCommands(commands []BotCommand) error {
	_, err := c.bot.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

func (c *BotClient) GetUpdatesChan(config UpdateConfig) <-chan Update {
	return c.bot.GetUpdatesChan(tgbotapi.UpdateConfig{
		Offset:  config.Offset,
		Limit:   config.Limit,
		Timeout: config.Timeout,
	})
}

func (c *BotClient) StopReceivingUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *BotClient) Self() User {
	return adaptUser(&c.bot.Self)
}

func extractRetryAfter(errMsg string) (int, bool) {
	if !strings.Contains(errMsg, "Too Many Requests") {
		return 0, false
	}
	matches := retryAfterRe.FindStringSubmatch(errMsg)
	if len(matches) < 2 {
		return 0, true
	}
	retryAfter, _ := strconv.Atoi(matches[1])
	return retryAfter, true
}

func adaptMessage(msg *tgbotapi.Message) *Message {
	if msg == nil {
		return nil
	}
	return &Message{
		MessageID: msg.MessageID,
		Chat:      Chat{ID: msg.Chat.ID, Type: msg.Chat.Type},
		Text:      msg.Text,
		From:      adaptUser(msg.From),
	}
}

func adaptUser(user *tgbotapi.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:        int64(user.ID),
		FirstName: user.FirstName,
		UserName:  user.UserName,
		IsBot:     user.IsBot,
	}
}
