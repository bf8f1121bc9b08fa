package shop

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/core/buildinfo"
	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	"github.com/m3rciful/shopbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"

	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Bot binds the conversation engine to the Telegram runtime. It converts
// updates into engine events and render instructions into outbound sends;
// no shopping logic lives here.
type Bot struct {
	engine     *Engine
	errorCount func() uint64
}

// NewBot wraps an engine for Telegram delivery.
func NewBot(engine *Engine) *Bot {
	return &Bot{engine: engine, errorCount: func() uint64 { return 0 }}
}

// SetErrorCounter wires the outbound-sender error counter used by /stats.
func (b *Bot) SetErrorCounter(fn func() uint64) {
	if fn != nil {
		b.errorCount = fn
	}
}

// Register wires the shop's commands and fixed-action callbacks into the
// registry. Dynamic callback values (product ids, quantities, cart item
// ids) arrive through the registry's not-found fallback.
func (b *Bot) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "Open the shop",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     b.handleCancel,
		Description: "Leave the shop",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     b.handleStats,
		Description: "Bot status",
		AdminOnly:   true,
		Hidden:      true,
	})

	for _, key := range []string{CallbackCart, CallbackCheckout, CallbackBackToMenu, CallbackBack} {
		value := key
		if err := reg.RegisterCallback(value, func(c tele.Context) error {
			return b.dispatch(c, Event{Kind: EventButton, Data: value})
		}); err != nil {
			logger.TWire.Warn("callback registration failed",
				slog.String("event", "register.callback"),
				slog.String("cb_key", value),
				slog.String("err", err.Error()),
			)
		}
	}
	reg.SetCallbackNotFound(b.dynamicCallback)
}

// InProgress reports whether free text should reach the engine for this
// user: only while their session awaits an email.
func (b *Bot) InProgress(userID int64) bool {
	st, ok := b.engine.Sessions().StateOf(userID)
	return ok && st == StateAwaitingEmail
}

// ManagerHandler routes a stateful text message into the engine.
func (b *Bot) ManagerHandler(c tele.Context) error {
	return b.dispatch(c, Event{Kind: EventText, Data: c.Text(), SenderName: displayName(c)})
}

// UnknownText answers free text outside any stateful flow.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, startHint)
	}
}

// UnknownDocument answers attachments, which the shop never expects.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I can only work with the buttons and plain text here.")
	}
}

// UnknownCallback resolves dynamic callback values through the engine.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return b.dynamicCallback
}

func (b *Bot) handleStart(c tele.Context) error {
	return b.dispatch(c, Event{Kind: EventStart, SenderName: displayName(c)})
}

func (b *Bot) handleCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	renders, err := b.engine.Dispatch(ctx, c.Chat().ID, Event{Kind: EventCancel})
	if err != nil {
		return err
	}
	farewell := "Bye!"
	if len(renders) > 0 {
		farewell = renders[0].Text
	}
	return tghelpers.SendText(c, farewell, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

func (b *Bot) handleStats(c tele.Context) error {
	text := fmt.Sprintf("version: %s (%s)\nsessions: %d\nsend errors: %d",
		buildinfo.Version, buildinfo.Commit,
		b.engine.Sessions().Len(), b.errorCount())
	return tghelpers.SendText(c, text)
}

func (b *Bot) dynamicCallback(c tele.Context) error {
	value := callbacks.CallbackKey(c)
	if value == "" {
		return nil
	}
	return b.dispatch(c, Event{Kind: EventButton, Data: value, SenderName: displayName(c)})
}

func (b *Bot) dispatch(c tele.Context, ev Event) error {
	ctx := tghelpers.BuildContext(c)
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	// Delivery runs under the chat's dispatch lock so sends and prompt
	// bookkeeping of back-to-back events never interleave.
	err := b.engine.DispatchDeliver(ctx, chat.ID, ev, func(renders []Render) error {
		return b.deliver(c, chat.ID, renders)
	})
	if err != nil {
		logger.Error(ctx, "shop", "dispatch",
			slog.String("status", "fail"),
			slog.String("op", ev.Kind.String()),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, genericFailure)
	}
	return nil
}

func (b *Bot) deliver(c tele.Context, chatID int64, renders []Render) error {
	for _, r := range renders {
		switch r.Kind {
		case RenderNotice:
			if err := tghelpers.SendText(c, r.Text); err != nil {
				return err
			}
		case RenderMessage, RenderPhoto:
			if err := b.sendScreen(c, chatID, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// sendScreen delivers a screen render and replaces the previous screen
// message so stale keyboards do not linger. The new screen goes out first;
// the old one is deleted best-effort afterwards.
func (b *Bot) sendScreen(c tele.Context, chatID int64, r Render) error {
	markup := inlineMarkup(r.Buttons)

	var payload interface{} = r.Text
	if r.Kind == RenderPhoto {
		payload = &tele.Photo{File: tele.FromURL(r.ImageURL), Caption: r.Text}
	}

	var (
		msg *tele.Message
		err error
	)
	if markup != nil {
		msg, err = c.Bot().Send(c.Chat(), payload, markup)
	} else {
		msg, err = c.Bot().Send(c.Chat(), payload)
	}
	if err != nil {
		return err
	}

	sessions := b.engine.Sessions()
	if last := sessions.Get(chatID).LastPromptID; last != 0 {
		stored := &tele.StoredMessage{MessageID: strconv.Itoa(last), ChatID: chatID}
		if delErr := c.Bot().Delete(stored); delErr != nil {
			logger.Debug(tghelpers.BuildContext(c), "shop", "prompt.delete",
				slog.String("status", "skip"),
				slog.String("err", delErr.Error()),
			)
		}
	}
	sessions.SetLastPrompt(chatID, msg.ID)
	return nil
}

func inlineMarkup(rows [][]Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	converted := make([][]keyboard.InlineBtn, len(rows))
	for i, row := range rows {
		r := make([]keyboard.InlineBtn, len(row))
		for j, btn := range row {
			r[j] = keyboard.InlineBtn{Text: btn.Label, Data: btn.Value}
		}
		converted[i] = r
	}
	return keyboard.RawInlineRows(converted...)
}

func displayName(c tele.Context) string {
	sender := c.Sender()
	if sender == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(sender.FirstName) + " " + strings.TrimSpace(sender.LastName))
	if name == "" {
		name = sender.Username
	}
	return name
}
