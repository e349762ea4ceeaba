package telegram

import (
	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

type ParseMode = string

const (
	ModeMarkdownV2 ParseMode = "MarkdownV2"
)

const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
)

// Telegram rejects media groups with more than ten items.
const MaxMediaGroupSize = 10

// MaxMessageLength is the text limit of one message, in UTF-16 code units.
const MaxMessageLength = 4096

type (
	Update          = tgbotapi.Update
	MessageOriginal = tgbotapi.Message
	UserOriginal    = tgbotapi.User
	ChatOriginal    = tgbotapi.Chat
	MessageEntity   = tgbotapi.MessageEntity
	CallbackQuery   = tgbotapi.CallbackQuery
	RequestFileData = tgbotapi.RequestFileData
	FilePath        = tgbotapi.FilePath
	BotCommand      = tgbotapi.BotCommand

	InlineKeyboardMarkup = tgbotapi.InlineKeyboardMarkup
	InlineKeyboardButton = tgbotapi.InlineKeyboardButton
)

func NewInlineKeyboardMarkup(rows ...[]InlineKeyboardButton) InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func NewInlineKeyboardRow(buttons ...InlineKeyboardButton) []InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func NewInlineKeyboardButtonData(text, data string) InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

// Message is the subset of a sent message the handlers care about.
type Message struct {
	MessageID int
	Chat      Chat
	Text      string
	From      User
}

type User struct {
	ID        int64
	FirstName string
	UserName  string
	IsBot     bool
}

type Chat struct {
	ID   int64
	Type string
}

type MessageConfig interface {
	ToChattable() tgbotapi.Chattable
}

type CallbackConfig struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

func NewCallback(id, text string) CallbackConfig {
	return CallbackConfig{
		CallbackQueryID: id,
		Text:            text,
	}
}

func (c CallbackConfig) ToChattable() tgbotapi.Chattable {
	config := tgbotapi.NewCallback(c.CallbackQueryID, c.Text)
	config.ShowAlert = c.ShowAlert
	return config
}

type TextMessage struct {
	ChatID      int64
	Text        string
	ReplyTo     int
	ReplyMarkup *InlineKeyboardMarkup
	ParseMode   ParseMode
}

func NewMessage(chatID int64, text string, replyTo int) TextMessage {
	return TextMessage{
		ChatID:  chatID,
		Text:    text,
		ReplyTo: replyTo,
	}
}

func (m TextMessage) ToChattable() tgbotapi.Chattable {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	if m.ReplyTo != 0 {
		msg.ReplyParameters.MessageID = m.ReplyTo
		// the original may be gone, e.g. a deleted /setcookie
		msg.ReplyParameters.AllowSendingWithoutReply = true
	}
	msg.ParseMode = m.ParseMode
	if m.ReplyMarkup != nil {
		msg.ReplyMarkup = m.ReplyMarkup
	}
	return msg
}

type EditMessageTextConfig struct {
	ChatID    int64
	MessageID int
	Text      string
	ParseMode ParseMode
}

func NewEditMessageText(chatID int64, messageID int, text string) EditMessageTextConfig {
	return EditMessageTextConfig{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
}

func (m EditMessageTextConfig) ToChattable() tgbotapi.Chattable {
	msg := tgbotapi.NewEditMessageText(m.ChatID, m.MessageID, m.Text)
	msg.ParseMode = m.ParseMode
	return msg
}

type PhotoMedia struct {
	Media   RequestFileData
	Caption string
}

func NewPhotoMedia(media RequestFileData) PhotoMedia {
	return PhotoMedia{Media: media}
}

func (p PhotoMedia) ToMedia() tgbotapi.InputMedia {
	media := tgbotapi.NewInputMediaPhoto(p.Media)
	media.Caption = p.Caption
	return &media
}

type MediaGroupMessage struct {
	ChatID int64
	Media  []PhotoMedia
}

func NewMediaGroupMessage(chatID int64, media []PhotoMedia) MediaGroupMessage {
	return MediaGroupMessage{
		ChatID: chatID,
		Media:  media,
	}
}

func (m MediaGroupMessage) ToChattable() tgbotapi.Chattable {
	media := make([]tgbotapi.InputMedia, 0, len(m.Media))
	for _, item := range m.Media {
		media = append(media, item.ToMedia())
	}
	return tgbotapi.NewMediaGroup(m.ChatID, media)
}

// PhotoMessage sends a single photo; media groups need at least two items.
type PhotoMessage struct {
	ChatID int64
	Photo  PhotoMedia
}

func NewPhotoMessage(chatID int64, photo PhotoMedia) PhotoMessage {
	return PhotoMessage{ChatID: chatID, Photo: photo}
}

func (m PhotoMessage) ToChattable() tgbotapi.Chattable {
	photo := tgbotapi.NewPhoto(m.ChatID, m.Photo.Media)
	photo.Caption = m.Photo.Caption
	return photo
}

// ChunkMedia splits media into the fewest groups of at most size items and
// balances them, so a trailing group never holds a single item unless every
// group does.
func ChunkMedia(media []PhotoMedia, size int) [][]PhotoMedia {
	if size <= 0 || size > MaxMediaGroupSize {
		size = MaxMediaGroupSize
	}
	if len(media) == 0 {
		return nil
	}
	count := (len(media) + size - 1) / size
	base, extra := len(media)/count, len(media)%count

	groups := make([][]PhotoMedia, 0, count)
	start := 0
	for i := range count {
		end := start + base
		if i < extra {
			end++
		}
		groups = append(groups, media[start:end])
		start = end
	}
	return groups
}

type UpdateConfig struct {
	Offset  int
	Limit   int
	Timeout int
}

type Client interface {
	Send(msg MessageConfig) (*Message, error)
	Request(msg MessageConfig) error
	SendMediaGroup(group MediaGroupMessage) error
	SendPhoto(photo PhotoMessage) error
	DeleteMessage(chatID int64, messageID int) error
	SetCommands(commands []BotCommand) error
	GetUpdatesChan(config UpdateConfig) <-chan Update
	StopReceivingUpdates()
	Self() User
}
