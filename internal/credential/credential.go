package credential

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"github.com/menta2k/ckd-scanner/internal/config"
)

// KeyPrompt is shown when no API key is configured
const KeyPrompt = "🔑 請輸入 Google API Key: "

// Hint points the user to where a key can be created
const Hint = "免費申請 Key: https://aistudio.google.com/app/apikey"

// PasswordReader reads a line without echoing it
type PasswordReader interface {
	ReadPassword(prompt string) ([]byte, error)
}

// Resolve returns the configured key, or asks for it once through r.
// An empty answer is a hard failure.
func Resolve(configured string, r PasswordReader) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	if r == nil {
		return "", config.ErrMissingAPIKey
	}

	line, err := r.ReadPassword(KeyPrompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", config.ErrMissingAPIKey, err)
	}

	key := strings.TrimSpace(string(line))
	if key == "" {
		return "", config.ErrMissingAPIKey
	}
	return key, nil
}

// NewTerminalReader opens a readline instance on the terminal for masked input.
// The caller must Close it.
func NewTerminalReader() (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:     "> ",
		EnableMask: true,
		MaskRune:   '*',
	})
}
