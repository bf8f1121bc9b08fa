package shop

import (
	"testing"

	tg "github.com/m3rciful/shopbot/core/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_WiresCommandsAndCallbacks(t *testing.T) {
	bot := NewBot(newFixture().engine)
	reg := tg.NewRegistry()

	bot.Register(reg)

	for _, name := range []string{"/start", "/cancel", "/stats"} {
		_, _, ok := reg.LookupCommand(name)
		assert.True(t, ok, name)
	}
	assert.Equal(t, []string{CallbackBack, CallbackCart, CallbackCheckout, CallbackBackToMenu}, reg.ListCallbacks())
}

func TestRegister_StatsIsAdminOnlyAndHidden(t *testing.T) {
	bot := NewBot(newFixture().engine)
	reg := tg.NewRegistry()

	bot.Register(reg)

	_, stats, ok := reg.LookupCommand("/stats")
	require.True(t, ok)
	assert.True(t, stats.AdminOnly)
	assert.True(t, stats.Hidden)

	// The visible command menu never lists it.
	for _, cmd := range reg.ListCommands(true) {
		assert.NotEqual(t, "/stats", cmd.Text)
	}
}

func TestInProgress_OnlyWhileAwaitingEmail(t *testing.T) {
	f := newFixture()
	bot := NewBot(f.engine)

	assert.False(t, bot.InProgress(1))

	f.dispatch(t, 1, Event{Kind: EventStart})
	assert.False(t, bot.InProgress(1))

	f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCart})
	f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCheckout})
	assert.True(t, bot.InProgress(1))

	f.dispatch(t, 1, Event{Kind: EventCancel})
	assert.False(t, bot.InProgress(1))
}
