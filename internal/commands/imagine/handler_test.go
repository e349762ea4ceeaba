package imagine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/poegram/internal/commands"
	"github.com/muratoffalex/poegram/internal/commands/commandtest"
	"github.com/muratoffalex/poegram/internal/session"
)

type fakeImages struct {
	count     int
	createErr error
	cookie    string
	prompt    string
	dirs      []string
	calls     int
}

func (f *fakeImages) Create(_ context.Context, cookie, prompt string) ([]string, error) {
	f.calls++
	f.cookie, f.prompt = cookie, prompt
	if f.createErr != nil {
		return nil, f.createErr
	}
	urls := make([]string, f.count)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://images.example/%d", i)
	}
	return urls, nil
}

func (f *fakeImages) Download(_ context.Context, urls []string, dir string) ([]string, error) {
	f.dirs = append(f.dirs, dir)
	paths := make([]string, 0, len(urls))
	for i := range urls {
		path := filepath.Join(dir, fmt.Sprintf("%d.jpeg", i))
		if err := os.WriteFile(path, []byte("img"), 0o600); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newFixture(t *testing.T, bingCookie string) (*commandtest.Fixture, string) {
	tmp := t.TempDir()
	f := commandtest.New(t, map[string]any{
		"bing.auth_cookie":       bingCookie,
		"imagine.temp_directory": tmp,
	})
	return f, tmp
}

func TestExecute_SendsMediaGroups(t *testing.T) {
	f, tmp := newFixture(t, "bing-cookie")
	images := &fakeImages{count: 12}

	err := newCommand(f.Container, images).Execute(context.Background(), commandtest.Command(CommandName, "a red fox"))
	require.NoError(t, err)

	assert.Equal(t, "bing-cookie", images.cookie)
	assert.Equal(t, "a red fox", images.prompt)

	groups := f.Tg.MediaGroups()
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Media, 6)
	assert.Len(t, groups[1].Media, 6)
	assert.Empty(t, f.Tg.Photos())

	sent := f.Tg.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Generating images...", sent[0].Text)
	assert.Equal(t, []int{1001}, f.Tg.Deleted())

	require.Len(t, images.dirs, 1)
	assert.Equal(t, tmp, filepath.Dir(images.dirs[0]))
	assert.NoDirExists(t, images.dirs[0])
}

func TestExecute_GroupSizes(t *testing.T) {
	t.Run("single image is sent as a photo", func(t *testing.T) {
		f, _ := newFixture(t, "bing-cookie")

		err := newCommand(f.Container, &fakeImages{count: 1}).Execute(context.Background(), commandtest.Command(CommandName, "cat"))
		require.NoError(t, err)

		assert.Empty(t, f.Tg.MediaGroups())
		photos := f.Tg.Photos()
		require.Len(t, photos, 1)
		assert.Equal(t, int64(commandtest.ChatID), photos[0].ChatID)
		assert.Equal(t, []int{1001}, f.Tg.Deleted())
	})

	t.Run("eleven images never leave a lone item", func(t *testing.T) {
		f, _ := newFixture(t, "bing-cookie")

		err := newCommand(f.Container, &fakeImages{count: 11}).Execute(context.Background(), commandtest.Command(CommandName, "cat"))
		require.NoError(t, err)

		groups := f.Tg.MediaGroups()
		require.Len(t, groups, 2)
		assert.Len(t, groups[0].Media, 6)
		assert.Len(t, groups[1].Media, 5)
		assert.Empty(t, f.Tg.Photos())
	})

	t.Run("photo failure is a backend error", func(t *testing.T) {
		f, _ := newFixture(t, "bing-cookie")
		f.Tg.MediaErr = errors.New("Bad Request: wrong file")

		err := newCommand(f.Container, &fakeImages{count: 1}).Execute(context.Background(), commandtest.Command(CommandName, "cat"))

		var cmdErr *commands.Error
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, commands.KindBackend, cmdErr.Kind)
		assert.Equal(t, 1001, cmdErr.PlaceholderID)
	})
}

func TestExecute_OverrideCredential(t *testing.T) {
	f, _ := newFixture(t, "")
	f.State.SetCredential(session.CredentialBing, "override")
	images := &fakeImages{count: 1}

	require.NoError(t, newCommand(f.Container, images).Execute(context.Background(), commandtest.Command(CommandName, "cat")))
	assert.Equal(t, "override", images.cookie)
}

func TestExecute_Preconditions(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		prompt string
		want   string
	}{
		{name: "empty prompt", cookie: "bing-cookie", prompt: "", want: "Usage: /imagine <prompt>"},
		{name: "no credential", cookie: "", prompt: "cat", want: "BING_AUTH_COOKIE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, tmp := newFixture(t, tt.cookie)
			images := &fakeImages{count: 1}

			err := newCommand(f.Container, images).Execute(context.Background(), commandtest.Command(CommandName, tt.prompt))

			var cmdErr *commands.Error
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, commands.KindInvalidInput, cmdErr.Kind)
			assert.Contains(t, cmdErr.Usage, tt.want)
			assert.Zero(t, images.calls)
			assert.Empty(t, f.Tg.Sent())

			entries, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestExecute_BackendFailure(t *testing.T) {
	f, tmp := newFixture(t, "bing-cookie")
	images := &fakeImages{createErr: errors.New("prompt has been blocked")}

	err := newCommand(f.Container, images).Execute(context.Background(), commandtest.Command(CommandName, "cat"))

	var cmdErr *commands.Error
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, commands.KindBackend, cmdErr.Kind)
	assert.Equal(t, 1001, cmdErr.PlaceholderID)
	assert.Empty(t, f.Tg.MediaGroups())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
