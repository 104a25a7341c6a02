package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"spotube-downloader/internal/config"
	"spotube-downloader/internal/shared"
)

var errInterrupted = errors.New("interrupted")

func askOne(prompt survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	err := survey.AskOne(prompt, response, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return errInterrupted
	}
	return err
}

// promptReferences reads Spotify links until an empty line
func promptReferences() ([]string, error) {
	const message = "Paste one or more Spotify URLs (comma or new line separated, empty line to finish)"
	if !shared.IsInputTTY() {
		shared.ColorPrompt.Println(message + ":")
		return shared.SplitReferences(shared.ReadStdinLinesUntilBlank()...), nil
	}
	var input string
	if err := askOne(&survey.Multiline{Message: message}, &input); err != nil {
		return nil, err
	}
	return shared.SplitReferences(input), nil
}

// promptFolder asks for the download folder, defaulting to the configured one
func promptFolder(defaultFolder string) (string, error) {
	const message = "Enter download folder"
	if !shared.IsInputTTY() {
		return shared.GetUserInput(message, defaultFolder), nil
	}
	folder := defaultFolder
	if err := askOne(&survey.Input{Message: message, Default: defaultFolder}, &folder, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return strings.TrimSpace(folder), nil
}

// promptFormat offers the supported target formats
func promptFormat(defaultFormat string) (string, error) {
	const message = "Choose audio format"
	if !shared.IsSupportedFormat(defaultFormat) {
		defaultFormat = shared.FormatMP3
	}
	if !shared.IsInputTTY() {
		for {
			format := strings.ToLower(shared.GetUserInput(fmt.Sprintf("%s (%s)", message, strings.Join(shared.SupportedFormats, "/")), defaultFormat))
			if shared.IsSupportedFormat(format) {
				return format, nil
			}
			shared.ColorError.Printf("❌ Unsupported format %q.\n", format)
		}
	}
	format := defaultFormat
	prompt := &survey.Select{
		Message: message,
		Options: shared.SupportedFormats,
		Default: defaultFormat,
	}
	if err := askOne(prompt, &format); err != nil {
		return "", err
	}
	return format, nil
}

func promptContinue() (bool, error) {
	const message = "Do you want to download more?"
	if !shared.IsInputTTY() {
		return shared.GetYesNoInput(message+" (y/n)", "n"), nil
	}
	more := false
	if err := askOne(&survey.Confirm{Message: message, Default: false}, &more); err != nil {
		return false, err
	}
	return more, nil
}

// promptCredentials asks for the Spotify app credentials when none are configured.
// Without a terminal it explains where to put them instead.
func promptCredentials(cfg *config.Config) error {
	missing := fmt.Errorf("spotify client credentials are required: set %s and %s or add them to the config file",
		config.EnvSpotifyClientID, config.EnvSpotifyClientSecret)
	if !shared.IsInputTTY() {
		return missing
	}

	shared.ColorInfo.Println("🔑 Spotify API credentials are needed (create an app at https://developer.spotify.com/dashboard).")
	answers := struct {
		ClientID     string
		ClientSecret string
	}{}
	questions := []*survey.Question{
		{
			Name:     "ClientID",
			Prompt:   &survey.Input{Message: "Spotify client ID"},
			Validate: survey.Required,
		},
		{
			Name:     "ClientSecret",
			Prompt:   &survey.Password{Message: "Spotify client secret"},
			Validate: survey.Required,
		},
	}
	if err := survey.Ask(questions, &answers); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return missing
		}
		return err
	}
	cfg.SpotifyClientID = strings.TrimSpace(answers.ClientID)
	cfg.SpotifyClientSecret = strings.TrimSpace(answers.ClientSecret)
	return nil
}
