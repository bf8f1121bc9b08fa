// Package shop implements the conversation engine of the storefront bot:
// an explicit finite-state machine that interprets inbound chat events
// against per-chat sessions and produces transport-free render
// instructions. The Telegram binding lives in telegram.go; everything else
// in this package never touches transport types.
package shop

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/cart"
	"github.com/m3rciful/shopbot/internal/catalog"

	"log/slog"
)

// emailPattern must match the entire message body. The local part allows
// word characters and dots; the domain is strictly lowercase, so
// "a@B.com" is rejected.
var emailPattern = regexp.MustCompile(`^[\w.]+@[a-z]+\.[a-z]+$`)

const defaultCallTimeout = 30 * time.Second

// CatalogLoader runs one full catalog aggregation pass.
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// Carts is the cart collaborator surface the engine needs.
type Carts interface {
	Summary(ctx context.Context, cartID string) (cart.Summary, error)
	Add(ctx context.Context, productID, cartID string, quantity int) error
	Remove(ctx context.Context, itemID, cartID string) error
}

// Customers resolves or creates customer records at checkout.
type Customers interface {
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	CreateCustomer(ctx context.Context, name, email string) (string, error)
}

// Config tunes the engine.
type Config struct {
	// CallTimeout bounds each collaborator call made during a transition.
	// Zero selects the default of 30s.
	CallTimeout time.Duration
}

// Engine is the conversation state machine. One Dispatch call handles one
// inbound event: it reads and updates the chat's session and returns the
// renders to deliver. Dispatch serializes per chat; unrelated chats run
// concurrently.
type Engine struct {
	store       *Store
	catalog     CatalogLoader
	carts       Carts
	customers   Customers
	callTimeout time.Duration
}

// NewEngine wires the engine to its session store and collaborators.
func NewEngine(store *Store, loader CatalogLoader, carts Carts, customers Customers, cfg Config) *Engine {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Engine{
		store:       store,
		catalog:     loader,
		carts:       carts,
		customers:   customers,
		callTimeout: timeout,
	}
}

// Sessions exposes the backing session store.
func (e *Engine) Sessions() *Store { return e.store }

// cartID derives the backend cart id from the chat id.
func cartID(chatID int64) string { return strconv.FormatInt(chatID, 10) }

// Dispatch handles one inbound event for one chat. Collaborator failures
// never advance the session state: the user sees a generic failure notice
// and can retry the same action. Events not defined for the current state
// are no-ops.
func (e *Engine) Dispatch(ctx context.Context, chatID int64, ev Event) ([]Render, error) {
	release := e.store.Acquire(chatID)
	defer release()

	return e.dispatchLocked(ctx, chatID, ev)
}

// DispatchDeliver handles one event like Dispatch but invokes deliver with
// the resulting renders while the chat's dispatch lock is still held, so
// outbound sends and prompt bookkeeping of consecutive events on one chat
// never interleave.
func (e *Engine) DispatchDeliver(ctx context.Context, chatID int64, ev Event, deliver func([]Render) error) error {
	release := e.store.Acquire(chatID)
	defer release()

	renders, err := e.dispatchLocked(ctx, chatID, ev)
	if err != nil {
		return err
	}
	if deliver == nil || len(renders) == 0 {
		return nil
	}
	return deliver(renders)
}

func (e *Engine) dispatchLocked(ctx context.Context, chatID int64, ev Event) ([]Render, error) {
	if ev.Kind == EventCancel {
		e.store.Drop(chatID)
		e.logTransition(ctx, chatID, ev, "", "ended")
		return []Render{notice("Bye! See you around.")}, nil
	}

	sess := e.store.Get(chatID)
	from := sess.State

	renders, err := e.handle(ctx, chatID, sess, ev)
	e.logTransition(ctx, chatID, ev, from, sess.State)
	return renders, err
}

func (e *Engine) handle(ctx context.Context, chatID int64, sess *Session, ev Event) ([]Render, error) {
	switch ev.Kind {
	case EventStart:
		return e.enterMenu(ctx, sess)
	case EventButton:
		return e.handleButton(ctx, chatID, sess, ev.Data)
	case EventText:
		if sess.State == StateAwaitingEmail {
			return e.handleEmail(ctx, chatID, sess, ev)
		}
		return nil, nil
	}
	return nil, nil
}

// enterMenu refreshes the catalog snapshot and shows the menu.
func (e *Engine) enterMenu(ctx context.Context, sess *Session) ([]Render, error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	loaded, err := e.catalog.Load(callCtx)
	if err != nil {
		logger.Warn(ctx, "shop", "catalog.load",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return []Render{failure()}, nil
	}

	sess.Catalog = loaded
	sess.CurrentProductID = ""
	sess.State = StateMenu
	return []Render{menuScreen(loaded)}, nil
}

// menuFromSnapshot re-renders the menu from the cached catalog, no re-fetch.
func (e *Engine) menuFromSnapshot(sess *Session) []Render {
	if sess.Catalog == nil {
		return []Render{notice(startHint)}
	}
	sess.CurrentProductID = ""
	sess.State = StateMenu
	return []Render{menuScreen(sess.Catalog)}
}

func (e *Engine) handleButton(ctx context.Context, chatID int64, sess *Session, data string) ([]Render, error) {
	switch sess.State {
	case StateMenu:
		switch {
		case data == CallbackCart:
			return e.showCart(ctx, chatID, sess)
		default:
			return e.showProduct(sess, data), nil
		}

	case StateProductDetail:
		switch {
		case data == CallbackBack:
			return e.menuFromSnapshot(sess), nil
		case data == CallbackCart:
			return e.showCart(ctx, chatID, sess)
		case isQuantity(data):
			return e.addToCart(ctx, chatID, sess, data)
		}
		return nil, nil

	case StateCart:
		switch data {
		case CallbackCheckout:
			sess.State = StateAwaitingEmail
			return []Render{emailScreen()}, nil
		case CallbackBackToMenu:
			return e.menuFromSnapshot(sess), nil
		case CallbackCart, CallbackBack:
			return nil, nil
		default:
			return e.removeFromCart(ctx, chatID, sess, data)
		}

	case StateAwaitingEmail:
		if data == CallbackBackToMenu {
			return e.menuFromSnapshot(sess), nil
		}
		return nil, nil
	}
	return nil, nil
}

// showProduct moves to the detail screen when data names a known product.
// Unknown payloads (stale buttons from a previous process) are no-ops.
func (e *Engine) showProduct(sess *Session, productID string) []Render {
	if sess.Catalog == nil {
		return []Render{notice(startHint)}
	}
	product, ok := sess.Catalog.Products[productID]
	if !ok {
		return nil
	}
	sess.CurrentProductID = productID
	sess.State = StateProductDetail
	return []Render{productScreen(product)}
}

func (e *Engine) showCart(ctx context.Context, chatID int64, sess *Session) ([]Render, error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	summary, err := e.carts.Summary(callCtx, cartID(chatID))
	if err != nil {
		return []Render{failure()}, nil
	}
	sess.State = StateCart
	return []Render{cartScreen(summary)}, nil
}

func (e *Engine) addToCart(ctx context.Context, chatID int64, sess *Session, data string) ([]Render, error) {
	quantity, err := strconv.Atoi(data)
	if err != nil || !supportedQuantity(quantity) {
		// Rejected locally, no collaborator call.
		return []Render{notice(fmt.Sprintf("Quantity %s is not offered here.", data))}, nil
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	if err := e.carts.Add(callCtx, sess.CurrentProductID, cartID(chatID), quantity); err != nil {
		return []Render{failure()}, nil
	}
	// Stay on the detail screen; acknowledgment only.
	return []Render{notice(addedToCart)}, nil
}

func (e *Engine) removeFromCart(ctx context.Context, chatID int64, sess *Session, itemID string) ([]Render, error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	if err := e.carts.Remove(callCtx, itemID, cartID(chatID)); err != nil {
		return []Render{failure()}, nil
	}

	renders, err := e.showCart(ctx, chatID, sess)
	if err != nil {
		return renders, err
	}
	return append([]Render{notice(itemRemoved)}, renders...), nil
}

func (e *Engine) handleEmail(ctx context.Context, chatID int64, sess *Session, ev Event) ([]Render, error) {
	email := ev.Data
	if !emailPattern.MatchString(email) {
		// Local validation only; no collaborator is consulted.
		return []Render{notice(emailRejected)}, nil
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	customerID, err := e.customers.FindCustomerByEmail(callCtx, email)
	if err != nil {
		return []Render{failure()}, nil
	}
	if customerID == "" {
		customerID, err = e.customers.CreateCustomer(callCtx, ev.SenderName, email)
		if err != nil {
			return []Render{failure()}, nil
		}
	}

	logger.Info(ctx, "service.customers", "customer.resolved",
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
	)

	confirmation := notice(fmt.Sprintf("Thanks! We will contact you at %s.", email))
	renders, err := e.showCart(ctx, chatID, sess)
	if err != nil {
		return []Render{confirmation}, err
	}
	return append([]Render{confirmation}, renders...), nil
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.callTimeout)
}

func (e *Engine) logTransition(ctx context.Context, chatID int64, ev Event, from, to State) {
	logger.Debug(ctx, "shop", "fsm.transition",
		slog.Int64("chat_id", chatID),
		slog.String("op", ev.Kind.String()),
		slog.String("state", string(from)),
		slog.String("next_state", string(to)),
	)
}

func isQuantity(data string) bool {
	if data == "" {
		return false
	}
	for _, r := range data {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func supportedQuantity(q int) bool {
	for _, allowed := range quantities {
		if q == allowed {
			return true
		}
	}
	return false
}
