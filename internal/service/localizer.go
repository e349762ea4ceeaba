package service

import (
	"embed"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

const localesDir = "locales"

type Localizer struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      language.Tag
}

func NewLocalizer(currentLang string) (*Localizer, error) {
	lang, err := language.Parse(currentLang)
	if err != nil {
		return nil, err
	}
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := localeFS.ReadDir(localesDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".toml") {
			continue
		}

		data, err := localeFS.ReadFile(localesDir + "/" + file.Name())
		if err != nil {
			return nil, err
		}

		if _, err = bundle.ParseMessageFileBytes(data, file.Name()); err != nil {
			return nil, err
		}
	}

	return &Localizer{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, lang.String()),
		lang:      lang,
	}, nil
}

// Localize returns messageID itself when no translation exists.
func (s *Localizer) Localize(messageID string, data map[string]any) string {
	msg, err := s.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

func (s *Localizer) Language() string {
	return s.lang.String()
}
