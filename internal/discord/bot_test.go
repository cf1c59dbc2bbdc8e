package discord

import (
	"errors"
	"testing"
)

func TestNewBotRequiresToken(t *testing.T) {
	if _, err := NewBot(BotConfig{}, &fakeBrowser{}, nil); !errors.Is(err, errNoToken) {
		t.Fatalf("err = %v, want errNoToken", err)
	}
}

func TestNewBotWithoutServiceSkipsInteractions(t *testing.T) {
	b, err := NewBot(BotConfig{Token: "t", AppID: "1"}, nil, nil)
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	if b.handler != nil {
		t.Error("registration-only bot should not bind an interaction handler")
	}

	b, err = NewBot(BotConfig{Token: "t", AppID: "1"}, &fakeBrowser{}, nil)
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	if b.handler == nil {
		t.Error("serving bot has no interaction handler")
	}
}
