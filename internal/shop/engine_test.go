package shop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/shopbot/internal/cart"
	"github.com/m3rciful/shopbot/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoader implements CatalogLoader with a canned catalog.
type fakeLoader struct {
	cat   *catalog.Catalog
	err   error
	loads int
}

func (f *fakeLoader) Load(context.Context) (*catalog.Catalog, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.cat, nil
}

// fakeCarts implements Carts in memory.
type fakeCarts struct {
	summary cart.Summary
	err     error

	added   []string
	removed []string
}

func (f *fakeCarts) Summary(context.Context, string) (cart.Summary, error) {
	if f.err != nil {
		return cart.Summary{}, f.err
	}
	return f.summary, nil
}

func (f *fakeCarts) Add(_ context.Context, productID, _ string, quantity int) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, productID)
	return nil
}

func (f *fakeCarts) Remove(_ context.Context, itemID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, itemID)
	return nil
}

// fakeCustomers implements Customers with one known email.
type fakeCustomers struct {
	known   map[string]string
	err     error
	created []string
}

func (f *fakeCustomers) FindCustomerByEmail(_ context.Context, email string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.known[email], nil
}

func (f *fakeCustomers) CreateCustomer(_ context.Context, _, email string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, email)
	return "cust-" + email, nil
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Products: map[string]catalog.ProductSummary{
			"p1": {
				ID:        "p1",
				Name:      "Salmon",
				Prices:    []string{"$10.50"},
				OnStock:   "12",
				ImageLink: "https://files.example/img1.png",
			},
		},
		Order: []string{"p1"},
	}
}

type fixture struct {
	engine    *Engine
	loader    *fakeLoader
	carts     *fakeCarts
	customers *fakeCustomers
}

func newFixture() *fixture {
	loader := &fakeLoader{cat: testCatalog()}
	carts := &fakeCarts{}
	customers := &fakeCustomers{known: map[string]string{}}
	engine := NewEngine(NewStore(), loader, carts, customers, Config{})
	return &fixture{engine: engine, loader: loader, carts: carts, customers: customers}
}

func (f *fixture) dispatch(t *testing.T, chatID int64, ev Event) []Render {
	t.Helper()
	renders, err := f.engine.Dispatch(context.Background(), chatID, ev)
	require.NoError(t, err)
	return renders
}

func (f *fixture) stateOf(t *testing.T, chatID int64) State {
	t.Helper()
	st, ok := f.engine.Sessions().StateOf(chatID)
	require.True(t, ok)
	return st
}

func TestDispatch_StartShowsMenu(t *testing.T) {
	f := newFixture()

	renders := f.dispatch(t, 1, Event{Kind: EventStart})

	require.Len(t, renders, 1)
	assert.Equal(t, RenderMessage, renders[0].Kind)
	assert.Equal(t, StateMenu, f.stateOf(t, 1))
	// One product row plus the cart row.
	require.Len(t, renders[0].Buttons, 2)
	assert.Equal(t, "p1", renders[0].Buttons[0][0].Value)
	assert.Equal(t, CallbackCart, renders[0].Buttons[1][0].Value)
}

func TestDispatch_FullPurchaseFlow(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})

	// Menu -> product detail.
	renders := f.dispatch(t, 1, Event{Kind: EventButton, Data: "p1"})
	require.Len(t, renders, 1)
	assert.Equal(t, RenderPhoto, renders[0].Kind)
	assert.Equal(t, StateProductDetail, f.stateOf(t, 1))

	// Pick a quantity; stays on the detail screen.
	renders = f.dispatch(t, 1, Event{Kind: EventButton, Data: "5"})
	require.Len(t, renders, 1)
	assert.Equal(t, RenderNotice, renders[0].Kind)
	assert.Equal(t, StateProductDetail, f.stateOf(t, 1))
	assert.Equal(t, []string{"p1"}, f.carts.added)

	// Open the cart.
	f.carts.summary = cart.Summary{
		Items: []cart.LineItem{{ID: "line-1", ProductID: "p1", Name: "Salmon", Quantity: 5, UnitPrice: "$10.50", Value: "$52.50"}},
		Total: "$52.50",
	}
	renders = f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCart})
	require.Len(t, renders, 1)
	assert.Equal(t, StateCart, f.stateOf(t, 1))
	assert.Contains(t, renders[0].Text, "Total: $52.50")

	// Checkout asks for an email.
	renders = f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCheckout})
	require.Len(t, renders, 1)
	assert.Equal(t, StateAwaitingEmail, f.stateOf(t, 1))

	// A valid email creates a customer and returns to the cart.
	renders = f.dispatch(t, 1, Event{Kind: EventText, Data: "name@example.com", SenderName: "Alice"})
	require.NotEmpty(t, renders)
	assert.Equal(t, RenderNotice, renders[0].Kind)
	assert.Equal(t, []string{"name@example.com"}, f.customers.created)
	assert.Equal(t, StateCart, f.stateOf(t, 1))
}

func TestDispatch_KnownEmailIsNotRecreated(t *testing.T) {
	f := newFixture()
	f.customers.known["name@example.com"] = "cust-existing"
	f.dispatch(t, 1, Event{Kind: EventStart})
	f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCart})
	f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCheckout})

	f.dispatch(t, 1, Event{Kind: EventText, Data: "name@example.com"})

	assert.Empty(t, f.customers.created)
	assert.Equal(t, StateCart, f.stateOf(t, 1))
}

func TestDispatch_EmailValidation(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"name@example.com", true},
		{"a.b@c.org", true},
		{"a@b.co", true},
		{"plainaddress", false},
		{"user@domain", false},
		{"@example.com", false},
		// Uppercase domains stay rejected.
		{"a@B.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			f := newFixture()
			f.dispatch(t, 1, Event{Kind: EventStart})
			f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCart})
			f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCheckout})

			f.dispatch(t, 1, Event{Kind: EventText, Data: tc.email})

			if tc.valid {
				assert.Equal(t, []string{tc.email}, f.customers.created)
				assert.Equal(t, StateCart, f.stateOf(t, 1))
			} else {
				assert.Empty(t, f.customers.created)
				assert.Equal(t, StateAwaitingEmail, f.stateOf(t, 1))
			}
		})
	}
}

func TestDispatch_RejectedEmailKeepsPrompting(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})
	f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCart})
	f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCheckout})

	renders := f.dispatch(t, 1, Event{Kind: EventText, Data: "not-an-email"})

	require.Len(t, renders, 1)
	assert.Equal(t, RenderNotice, renders[0].Kind)
	assert.Equal(t, StateAwaitingEmail, f.stateOf(t, 1))
}

func TestDispatch_BackFromDetailUsesCachedCatalog(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})
	f.dispatch(t, 1, Event{Kind: EventButton, Data: "p1"})
	loadsBefore := f.loader.loads

	renders := f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackBack})

	require.Len(t, renders, 1)
	assert.Equal(t, StateMenu, f.stateOf(t, 1))
	assert.Equal(t, loadsBefore, f.loader.loads)
}

func TestDispatch_StartRefreshesCatalog(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})
	f.dispatch(t, 1, Event{Kind: EventStart})

	assert.Equal(t, 2, f.loader.loads)
}

func TestDispatch_RemoveRerendersCart(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})
	f.carts.summary = cart.Summary{
		Items: []cart.LineItem{{ID: "line-1", Name: "Salmon", Quantity: 5}},
		Total: "$52.50",
	}
	f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCart})

	f.carts.summary = cart.Summary{}
	renders := f.dispatch(t, 1, Event{Kind: EventButton, Data: "line-1"})

	assert.Equal(t, []string{"line-1"}, f.carts.removed)
	require.Len(t, renders, 2)
	assert.Equal(t, RenderNotice, renders[0].Kind)
	assert.Contains(t, renders[1].Text, "empty")
	assert.Equal(t, StateCart, f.stateOf(t, 1))
}

func TestDispatch_UnlistedEventsAreNoOps(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})

	// Free text in the menu state.
	renders := f.dispatch(t, 1, Event{Kind: EventText, Data: "hello"})
	assert.Empty(t, renders)
	assert.Equal(t, StateMenu, f.stateOf(t, 1))

	// Unknown product id (stale button).
	renders = f.dispatch(t, 1, Event{Kind: EventButton, Data: "ghost"})
	assert.Empty(t, renders)
	assert.Equal(t, StateMenu, f.stateOf(t, 1))
}

func TestDispatch_UnsupportedQuantityRejectedLocally(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})
	f.dispatch(t, 1, Event{Kind: EventButton, Data: "p1"})

	renders := f.dispatch(t, 1, Event{Kind: EventButton, Data: "7"})

	require.Len(t, renders, 1)
	assert.Equal(t, RenderNotice, renders[0].Kind)
	assert.Empty(t, f.carts.added)
	assert.Equal(t, StateProductDetail, f.stateOf(t, 1))
}

func TestDispatch_CollaboratorFailureKeepsState(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})

	f.carts.err = errors.New("backend down")
	renders := f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCart})

	require.Len(t, renders, 1)
	assert.Equal(t, RenderNotice, renders[0].Kind)
	assert.Equal(t, StateMenu, f.stateOf(t, 1))

	// Recovery: the same action works once the backend is back.
	f.carts.err = nil
	f.dispatch(t, 1, Event{Kind: EventButton, Data: CallbackCart})
	assert.Equal(t, StateCart, f.stateOf(t, 1))
}

func TestDispatch_CatalogFailureOnStart(t *testing.T) {
	f := newFixture()
	f.loader.err = errors.New("backend down")

	renders := f.dispatch(t, 1, Event{Kind: EventStart})

	require.Len(t, renders, 1)
	assert.Equal(t, RenderNotice, renders[0].Kind)
	// Session exists but carries no catalog snapshot yet.
	assert.Equal(t, StateMenu, f.stateOf(t, 1))
}

func TestDispatch_CancelDropsSession(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})
	require.Equal(t, 1, f.engine.Sessions().Len())

	renders := f.dispatch(t, 1, Event{Kind: EventCancel})

	require.Len(t, renders, 1)
	assert.Equal(t, RenderNotice, renders[0].Kind)
	assert.Zero(t, f.engine.Sessions().Len())

	_, ok := f.engine.Sessions().StateOf(1)
	assert.False(t, ok)
}

func TestDispatchDeliver_HoldsChatLockThroughDelivery(t *testing.T) {
	f := newFixture()

	delivering := make(chan struct{})
	finish := make(chan struct{})
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		err := f.engine.DispatchDeliver(context.Background(), 1, Event{Kind: EventStart}, func([]Render) error {
			close(delivering)
			<-finish
			return nil
		})
		assert.NoError(t, err)
	}()
	<-delivering

	// A second event on the same chat must wait until the first event's
	// delivery has completed.
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, err := f.engine.Dispatch(context.Background(), 1, Event{Kind: EventButton, Data: "p1"})
		assert.NoError(t, err)
	}()

	select {
	case <-secondDone:
		t.Fatal("second event dispatched while the first was still delivering")
	case <-time.After(50 * time.Millisecond):
	}

	close(finish)
	<-firstDone
	select {
	case <-secondDone:
	case <-time.After(time.Second):
		t.Fatal("second event never dispatched after delivery finished")
	}
	assert.Equal(t, StateProductDetail, f.stateOf(t, 1))
}

func TestDispatchDeliver_PassesRendersToCallback(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})

	var delivered [][]Render
	err := f.engine.DispatchDeliver(context.Background(), 1, Event{Kind: EventButton, Data: CallbackCart}, func(r []Render) error {
		delivered = append(delivered, r)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, delivered, 1)
	require.Len(t, delivered[0], 1)
	assert.Equal(t, StateCart, f.stateOf(t, 1))
}

func TestDispatch_ChatsAreIndependent(t *testing.T) {
	f := newFixture()
	f.dispatch(t, 1, Event{Kind: EventStart})
	f.dispatch(t, 2, Event{Kind: EventStart})
	f.dispatch(t, 1, Event{Kind: EventButton, Data: "p1"})

	assert.Equal(t, StateProductDetail, f.stateOf(t, 1))
	assert.Equal(t, StateMenu, f.stateOf(t, 2))
}
