package imagine

import (
	"context"
	"fmt"
	"os"

	"github.com/muratoffalex/poegram/internal/app/di"
	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/base"
	"github.com/muratoffalex/poegram/internal/service"
	"github.com/muratoffalex/poegram/internal/session"
	"github.com/muratoffalex/poegram/internal/telegram"
)

const CommandName = "imagine"

// ImageClient generates images for a prompt and stores them locally.
type ImageClient interface {
	Create(ctx context.Context, cookie, prompt string) ([]string, error)
	Download(ctx context.Context, urls []string, dir string) ([]string, error)
}

type Command struct {
	*base.Command
	images ImageClient
	state  *session.State
	delay  service.Delayer
}

func New(di *di.Container) *Command {
	return newCommand(di, di.Bing)
}

func newCommand(di *di.Container, images ImageClient) *Command {
	cmd := &Command{
		images: images,
		state:  di.State,
		delay:  di.Delay,
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Execute(ctx context.Context, event commands.Event) error {
	prompt := event.ArgsText
	if prompt == "" {
		return commands.InvalidInput(c.L("imagine_usage", nil))
	}
	cookie := c.state.Credential(session.CredentialBing)
	if cookie == "" {
		return commands.InvalidInput(c.L("imagine_no_credential", nil))
	}

	placeholderID, err := c.Placeholder(event, "imagine_working")
	if err != nil {
		return err
	}

	cfg := c.Cfg.Imagine()
	dir, err := os.MkdirTemp(cfg.TempDirectory, "imagine-")
	if err != nil {
		return commands.BackendError(fmt.Errorf("create temp dir: %w", err), placeholderID)
	}
	defer os.RemoveAll(dir)

	if err := c.delay.Wait(ctx); err != nil {
		return commands.BackendError(err, placeholderID)
	}

	log := c.Log(event)
	urls, err := c.images.Create(ctx, cookie, prompt)
	if err != nil {
		return commands.BackendError(err, placeholderID)
	}
	log.WithField("images", len(urls)).Debug("Images generated")

	paths, err := c.images.Download(ctx, urls, dir)
	if err != nil {
		return commands.BackendError(err, placeholderID)
	}

	media := make([]telegram.PhotoMedia, 0, len(paths))
	for _, path := range paths {
		media = append(media, telegram.NewPhotoMedia(telegram.FilePath(path)))
	}
	for _, group := range telegram.ChunkMedia(media, cfg.MaxPerGroup) {
		if err := c.send(event.ChatID, group); err != nil {
			return commands.BackendError(err, placeholderID)
		}
	}

	if err := c.Tg.DeleteMessage(event.ChatID, placeholderID); err != nil {
		log.WithError(err).Warn("Failed to delete placeholder")
	}
	log.WithField("images", len(paths)).Info("Images sent")
	return nil
}

// send posts a lone image as a photo, since media groups need two items.
func (c *Command) send(chatID int64, group []telegram.PhotoMedia) error {
	if len(group) == 1 {
		if err := c.Tg.SendPhoto(telegram.NewPhotoMessage(chatID, group[0])); err != nil {
			return fmt.Errorf("send photo: %w", err)
		}
		return nil
	}
	if err := c.Tg.SendMediaGroup(telegram.NewMediaGroupMessage(chatID, group)); err != nil {
		return fmt.Errorf("send media group: %w", err)
	}
	return nil
}
