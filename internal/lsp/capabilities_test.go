package lsp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguagePresence(t *testing.T) {
	presence := DetectLanguagePresence([]string{
		"internal/cli/root.go",
		"web/src/main.ts",
		"README.md",
	})

	assert.True(t, presence["go"])
	assert.True(t, presence["typescript"])
	assert.False(t, presence["rust"])
}

func TestProbeCapabilitiesWithLookPath(t *testing.T) {
	presence := map[string]bool{
		"go":         true,
		"rust":       true,
		"typescript": false,
	}

	capabilities := ProbeCapabilitiesWithLookPath(presence, func(file string) (string, error) {
		if file == "gopls" {
			return "/mock/bin/gopls", nil
		}
		return "", errors.New("not found")
	})

	assert.Equal(t, Capability{Present: true, Server: "gopls", Available: true}, capabilities["go"])
	assert.Equal(t, Capability{Present: true, Server: "rust-analyzer", Reason: "server_not_found"}, capabilities["rust"])
	assert.Equal(t, "language_not_present", capabilities["typescript"].Reason)
}

func TestLanguageForPath(t *testing.T) {
	lang, ok := LanguageForPath("src/lib.RS")
	assert.True(t, ok)
	assert.Equal(t, "rust", lang)

	_, ok = LanguageForPath("notes.txt")
	assert.False(t, ok)
}
