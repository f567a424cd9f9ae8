// Package handlers adapts opaque gateway events (commands, inline-keyboard
// callbacks, payment callbacks) to the workflow engine and renders replies
// the transport can deliver.
package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"shopbot/internal/auth"
	"shopbot/internal/callback"
	"shopbot/internal/intake"
	"shopbot/internal/models"
	"shopbot/internal/pagination"
	"shopbot/internal/services"
)

// ActorRef identifies who sent an event and in which chat.
type ActorRef struct {
	ID     int64  `json:"id"`
	ChatID int64  `json:"chat_id"`
	Name   string `json:"name,omitempty"`
}

func (a ActorRef) actor() auth.Actor {
	return auth.Actor{ID: a.ID, ChatID: a.ChatID}
}

// CommandEvent is an inbound command or free-text message.
type CommandEvent struct {
	From    ActorRef `json:"from"`
	Command string   `json:"command"`
	Text    string   `json:"text,omitempty"`
	Photo   string   `json:"photo,omitempty"`
	Index   int      `json:"index,omitempty"`
}

// CallbackEvent is an inline-keyboard press carrying an encoded callback.
type CallbackEvent struct {
	From ActorRef `json:"from"`
	Data string   `json:"data"`
}

// ShippingQueryEvent is the provider's shipping-address check.
type ShippingQueryEvent struct {
	From    ActorRef         `json:"from"`
	Address services.Address `json:"address"`
}

// PreCheckoutEvent is the provider's final confirmation request.
type PreCheckoutEvent struct {
	From             ActorRef         `json:"from"`
	OrderID          string           `json:"order_id"`
	Currency         string           `json:"currency"`
	TotalAmount      int64            `json:"total_amount"`
	InvoicePayload   string           `json:"invoice_payload"`
	ShippingOptionID string           `json:"shipping_option_id,omitempty"`
	Name             string           `json:"name,omitempty"`
	PhoneNumber      string           `json:"phone_number,omitempty"`
	Email            string           `json:"email,omitempty"`
	Address          services.Address `json:"address"`
}

// PaymentEvent reports a completed payment.
type PaymentEvent struct {
	From        ActorRef `json:"from"`
	Currency    string   `json:"currency"`
	TotalAmount int64    `json:"total_amount"`
}

// Button is one inline-keyboard button; Data carries an encoded callback.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data,omitempty"`
}

// Card is a product rendering: image, caption and keyboard.
type Card struct {
	Image    string     `json:"image"`
	Caption  string     `json:"caption"`
	Keyboard [][]Button `json:"keyboard"`
}

// Reply is what the gateway should deliver back to the chat.
type Reply struct {
	Text    string            `json:"text,omitempty"`
	Alert   string            `json:"alert,omitempty"`
	Card    *Card             `json:"card,omitempty"`
	Invoice *services.Invoice `json:"invoice,omitempty"`
}

// ShippingReply answers a shipping query: options on success, an explicit
// rejection message otherwise.
type ShippingReply struct {
	OK           bool                      `json:"ok"`
	Options      []services.ShippingOption `json:"options,omitempty"`
	ErrorMessage string                    `json:"error_message,omitempty"`
}

// PreCheckoutReply approves or rejects the provider's confirmation request.
type PreCheckoutReply struct {
	OK           bool   `json:"ok"`
	ErrorMessage string `json:"error_message,omitempty"`
}

var prompts = map[intake.State]string{
	intake.StatePhoto:       "Upload a photo",
	intake.StateName:        "Now enter the name",
	intake.StateDescription: "Enter a description",
	intake.StatePrice:       "Now set the price",
}

// GatewayHandler translates gateway events into engine calls.
type GatewayHandler struct {
	catalog    *services.CatalogService
	carts      *services.CartService
	checkout   *services.CheckoutService
	intake     *intake.Machine
	authorizer *auth.StaticAuthorizer
	log        zerolog.Logger
}

// NewGatewayHandler creates a new GatewayHandler.
func NewGatewayHandler(
	catalog *services.CatalogService,
	carts *services.CartService,
	checkout *services.CheckoutService,
	machine *intake.Machine,
	authorizer *auth.StaticAuthorizer,
	log zerolog.Logger,
) *GatewayHandler {
	return &GatewayHandler{
		catalog:    catalog,
		carts:      carts,
		checkout:   checkout,
		intake:     machine,
		authorizer: authorizer,
		log:        log,
	}
}

// RegisterRoutes registers the gateway routes with the Fiber app.
func (h *GatewayHandler) RegisterRoutes(router fiber.Router) {
	g := router.Group("/gateway")
	g.Post("/command", h.HandleCommand)
	g.Post("/callback", h.HandleCallback)
	g.Post("/shipping-query", h.HandleShippingQuery)
	g.Post("/pre-checkout", h.HandlePreCheckout)
	g.Post("/payment", h.HandlePayment)
}

func (h *GatewayHandler) internalError(c *fiber.Ctx, err error, what string) error {
	h.log.Error().Err(err).Msg(what)
	// Generic acknowledgment only; internal detail stays in the log.
	return c.Status(fiber.StatusInternalServerError).JSON(Reply{
		Text: "Something went wrong, please try again later.",
	})
}

// HandleCommand dispatches an inbound command or free-text message.
func (h *GatewayHandler) HandleCommand(c *fiber.Ctx) error {
	var ev CommandEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	switch ev.Command {
	case "start", "help":
		if err := h.carts.EnsureUser(c.Context(), ev.From.ChatID, ev.From.Name); err != nil {
			return h.internalError(c, err, "failed to register user")
		}
		return c.JSON(Reply{Text: fmt.Sprintf("Welcome to our shop, %s.", ev.From.Name)})

	case "shop":
		return h.renderShop(c, ev.From.ChatID, ev.Index)

	case "cart":
		return h.renderCart(c, ev.From.ChatID, ev.Index)

	case "pay":
		invoice, err := h.checkout.AssembleInvoice(c.Context(), ev.From.ChatID)
		if errors.Is(err, services.ErrEmptyCart) {
			return c.JSON(Reply{Text: "Your cart is empty"})
		}
		if errors.Is(err, services.ErrProductUnavailable) {
			return c.JSON(Reply{Text: "An item in your cart is no longer available, please review your cart."})
		}
		if err != nil {
			return h.internalError(c, err, "failed to assemble invoice")
		}
		return c.JSON(Reply{Invoice: invoice})

	case "text":
		return h.handleText(c, ev)
	}

	return c.JSON(Reply{Text: "Unknown command. Try /shop, /cart or /pay."})
}

// handleText routes free text: intake triggers, cancellation, admin
// elevation, and dialogue input.
func (h *GatewayHandler) handleText(c *fiber.Ctx, ev CommandEvent) error {
	ctx := c.Context()
	actor := ev.From.actor()
	text := strings.TrimSpace(ev.Text)

	switch strings.ToLower(text) {
	case "cancel":
		active, err := h.intake.Cancel(ctx, actor)
		if err != nil {
			return h.internalError(c, err, "failed to cancel intake")
		}
		if !active {
			return c.JSON(Reply{Text: "Nothing to cancel."})
		}
		return c.JSON(Reply{Text: "Adding cancelled."})

	case "add":
		if _, err := h.intake.Start(ctx, actor); err != nil {
			if errors.Is(err, intake.ErrNotAuthorized) {
				return c.JSON(Reply{Text: "Only administrators can add products."})
			}
			return h.internalError(c, err, "failed to start intake")
		}
		return c.JSON(Reply{Text: prompts[intake.StatePhoto]})

	case "delete":
		if !h.authorizer.IsAuthorized(actor, auth.ScopeCatalogWrite) {
			return c.JSON(Reply{Text: "Only administrators can delete products."})
		}
		return h.renderDelete(c, ev.Index)
	}

	if pass, ok := strings.CutPrefix(text, "administrator "); ok {
		if h.authorizer.VerifyPassphrase(strings.TrimSpace(pass)) {
			return c.JSON(Reply{Text: "Administrator rights granted."})
		}
		return c.JSON(Reply{Text: "Only administrators can use this command."})
	}

	return h.intakeInput(c, actor, intake.Input{Photo: ev.Photo, Text: ev.Text})
}

func (h *GatewayHandler) intakeInput(c *fiber.Ctx, actor auth.Actor, in intake.Input) error {
	outcome, err := h.intake.Input(c.Context(), actor, in)
	switch {
	case errors.Is(err, intake.ErrNoActiveDialogue):
		return c.JSON(Reply{Text: "I did not understand that. Try /help."})
	case errors.Is(err, intake.ErrInvalidPrice):
		return c.JSON(Reply{Text: "The price must be a positive number. " + prompts[intake.StatePrice]})
	case errors.Is(err, intake.ErrNameTooLong):
		return c.JSON(Reply{Text: fmt.Sprintf("The name must be at most %d characters. %s",
			intake.MaxNameLen, prompts[intake.StateName])})
	case errors.Is(err, intake.ErrDescriptionTooLong):
		return c.JSON(Reply{Text: fmt.Sprintf("The description must be at most %d characters. %s",
			intake.MaxDescriptionLen, prompts[intake.StateDescription])})
	case errors.Is(err, intake.ErrUnexpectedInput):
		state, stateErr := h.intake.Active(c.Context(), actor)
		if stateErr != nil {
			return h.internalError(c, stateErr, "failed to read intake state")
		}
		return c.JSON(Reply{Text: prompts[state]})
	case err != nil:
		return h.internalError(c, err, "intake step failed")
	}

	if outcome.AlreadyExists {
		return c.JSON(Reply{Text: fmt.Sprintf("A product named %q already exists.", outcome.Product.Name)})
	}
	if outcome.Committed {
		return c.JSON(Reply{Text: "Successfully added."})
	}
	return c.JSON(Reply{Text: prompts[outcome.Next]})
}

// HandleCallback decodes an inline-keyboard press and dispatches it.
func (h *GatewayHandler) HandleCallback(c *fiber.Ctx) error {
	var ev CallbackEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	cb, err := callback.Decode(ev.Data)
	if err != nil {
		h.log.Warn().Str("data", ev.Data).Msg("malformed callback payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Malformed callback payload",
		})
	}

	ctx := c.Context()
	actor := ev.From.actor()

	switch v := cb.(type) {
	case callback.NavShop:
		return h.renderShop(c, ev.From.ChatID, v.Index)

	case callback.NavCart:
		return h.renderCart(c, ev.From.ChatID, v.Index)

	case callback.NavDelete:
		if !h.authorizer.IsAuthorized(actor, auth.ScopeCatalogWrite) {
			return c.JSON(Reply{Alert: "Only administrators can delete products."})
		}
		return h.renderDelete(c, v.Index)

	case callback.AddToCart:
		if !actor.SelfDialogue() {
			return c.JSON(Reply{Text: "Talk to the shop in a direct chat to manage your cart."})
		}
		added, err := h.carts.AddToCart(ctx, ev.From.ChatID, v.ProductID)
		if errors.Is(err, services.ErrProductUnavailable) {
			return c.JSON(Reply{Alert: "This item is no longer available."})
		}
		if err != nil {
			return h.internalError(c, err, "failed to add to cart")
		}
		if !added {
			return c.JSON(Reply{Alert: fmt.Sprintf("%q is already in your cart.", v.Name)})
		}
		return c.JSON(Reply{Alert: fmt.Sprintf("%q added to your cart.", v.Name)})

	case callback.DelCartItem:
		if err := h.carts.RemoveItem(ctx, v.CartItemID); err != nil {
			return h.internalError(c, err, "failed to remove cart item")
		}
		next := pagination.AfterDelete(v.Index, v.Pages)
		return h.renderCart(c, ev.From.ChatID, next)

	case callback.DelProduct:
		if !h.authorizer.IsAuthorized(actor, auth.ScopeCatalogWrite) {
			return c.JSON(Reply{Alert: "Only administrators can delete products."})
		}
		if err := h.catalog.DeleteProduct(ctx, v.ProductID); err != nil {
			return h.internalError(c, err, "failed to delete product")
		}
		next := pagination.AfterDelete(v.Index, v.Pages)
		return h.renderDelete(c, next)
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Unsupported callback",
	})
}

// HandleShippingQuery answers the provider's address check.
func (h *GatewayHandler) HandleShippingQuery(c *fiber.Ctx) error {
	var ev ShippingQueryEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	options, err := h.checkout.ShippingOptions(ev.Address)
	if errors.Is(err, services.ErrShippingUnavailable) {
		return c.JSON(ShippingReply{OK: false, ErrorMessage: err.Error()})
	}
	if err != nil {
		return h.internalError(c, err, "failed to resolve shipping options")
	}
	return c.JSON(ShippingReply{OK: true, Options: options})
}

// HandlePreCheckout persists the order snapshot and approves the
// transaction. Duplicate confirmations approve without writing a second row.
func (h *GatewayHandler) HandlePreCheckout(c *fiber.Ctx) error {
	var ev PreCheckoutEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	_, err := h.checkout.ConfirmPreCheckout(c.Context(), services.PreCheckout{
		OrderID: ev.OrderID,
		ChatID:  ev.From.ChatID,
		Snapshot: models.OrderSnapshot{
			Username:         ev.From.Name,
			Currency:         ev.Currency,
			TotalAmount:      ev.TotalAmount,
			InvoicePayload:   ev.InvoicePayload,
			ShippingOptionID: ev.ShippingOptionID,
			Name:             ev.Name,
			PhoneNumber:      ev.PhoneNumber,
			Email:            ev.Email,
			CountryCode:      ev.Address.CountryCode,
			State:            ev.Address.State,
			City:             ev.Address.City,
			StreetLine1:      ev.Address.StreetLine1,
			StreetLine2:      ev.Address.StreetLine2,
			PostCode:         ev.Address.PostCode,
		},
	})
	if err != nil {
		h.log.Error().Err(err).Str("order_id", ev.OrderID).Msg("failed to persist order")
		return c.JSON(PreCheckoutReply{OK: false, ErrorMessage: "The order could not be recorded, please try again."})
	}
	return c.JSON(PreCheckoutReply{OK: true})
}

// HandlePayment settles a successful payment: the cart is cleared and the
// settled amount is reported in major units.
func (h *GatewayHandler) HandlePayment(c *fiber.Ctx) error {
	var ev PaymentEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	major, err := h.checkout.Settle(c.Context(), ev.From.ChatID, ev.TotalAmount)
	if err != nil {
		return h.internalError(c, err, "failed to settle payment")
	}
	return c.JSON(Reply{
		Text: fmt.Sprintf("Payment of %d %s completed successfully!", major, ev.Currency),
	})
}

func productCaption(p models.Product) string {
	return fmt.Sprintf("Name: %s\nDescription: %s\nPrice: %s", p.Name, p.Description, p.Price.String())
}

func navRow(index, pages int, prev, next callback.Callback) []Button {
	return []Button{
		{Text: "←", Data: callback.Encode(prev)},
		{Text: fmt.Sprintf("%d/%d", index, pages)},
		{Text: "→", Data: callback.Encode(next)},
	}
}

// renderShop shows one catalog product with circular navigation and an
// add-to-cart button.
func (h *GatewayHandler) renderShop(c *fiber.Ctx, chatID int64, index int) error {
	products, err := h.catalog.Products(c.Context())
	if err != nil {
		return h.internalError(c, err, "failed to read catalog")
	}
	n := len(products)
	if pagination.Empty(n) {
		return c.JSON(Reply{Text: "The shop is empty for now."})
	}

	i := pagination.Clamp(index, n)
	p := products[i-1]
	return c.JSON(Reply{Card: &Card{
		Image:   p.Image,
		Caption: productCaption(p),
		Keyboard: [][]Button{
			navRow(i, n,
				callback.NavShop{Index: pagination.Prev(i, n)},
				callback.NavShop{Index: pagination.Next(i, n)}),
			{{
				Text: fmt.Sprintf("Add %q to cart", p.Name),
				Data: callback.Encode(callback.AddToCart{ChatID: chatID, ProductID: p.ID, Name: p.Name}),
			}},
		},
	}})
}

// renderCart shows one cart entry with circular navigation and a remove
// button.
func (h *GatewayHandler) renderCart(c *fiber.Ctx, chatID int64, index int) error {
	entries, err := h.carts.Entries(c.Context(), chatID)
	if err != nil {
		return h.internalError(c, err, "failed to read cart")
	}
	n := len(entries)
	if pagination.Empty(n) {
		return c.JSON(Reply{Text: "Your cart is empty"})
	}

	i := pagination.Clamp(index, n)
	entry := entries[i-1]
	return c.JSON(Reply{Card: &Card{
		Image:   entry.Product.Image,
		Caption: productCaption(entry.Product),
		Keyboard: [][]Button{
			navRow(i, n,
				callback.NavCart{Index: pagination.Prev(i, n)},
				callback.NavCart{Index: pagination.Next(i, n)}),
			{{
				Text: fmt.Sprintf("Remove %q from cart", entry.Product.Name),
				Data: callback.Encode(callback.DelCartItem{
					CartItemID: entry.CartItemID, Index: i, Pages: n, Name: entry.Product.Name,
				}),
			}},
		},
	}})
}

// renderDelete shows one catalog product with a delete button for admin
// browsing.
func (h *GatewayHandler) renderDelete(c *fiber.Ctx, index int) error {
	products, err := h.catalog.Products(c.Context())
	if err != nil {
		return h.internalError(c, err, "failed to read catalog")
	}
	n := len(products)
	if pagination.Empty(n) {
		return c.JSON(Reply{Text: "The shop is empty, nothing to delete."})
	}

	i := pagination.Clamp(index, n)
	p := products[i-1]
	return c.JSON(Reply{Card: &Card{
		Image:   p.Image,
		Caption: productCaption(p),
		Keyboard: [][]Button{
			navRow(i, n,
				callback.NavDelete{Index: pagination.Prev(i, n)},
				callback.NavDelete{Index: pagination.Next(i, n)}),
			{{
				Text: fmt.Sprintf("Delete product %q", p.Name),
				Data: callback.Encode(callback.DelProduct{
					ProductID: p.ID, Index: i, Pages: n, Name: p.Name,
				}),
			}},
		},
	}})
}
