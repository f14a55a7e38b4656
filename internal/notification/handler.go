package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/ec-shop/internal/email"
	"github.com/example/ec-shop/internal/event"
	"github.com/example/ec-shop/internal/infrastructure/store"
)

// Handler turns order lifecycle events into customer emails.
type Handler struct {
	emailService *email.Service
	accounts     store.AccountStore
	products     store.ProductStore
}

func NewHandler(emailSvc *email.Service, accounts store.AccountStore, products store.ProductStore) *Handler {
	return &Handler{
		emailService: emailSvc,
		accounts:     accounts,
		products:     products,
	}
}

// HandleEvent processes a message from Kafka.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var e event.OrderEvent
	if err := json.Unmarshal(value, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch e.Type {
	case event.TypeOrderCreated:
		return h.handleOrderCreated(ctx, e)
	case event.TypeOrderPaid:
		return h.handleOrderPaid(ctx, e)
	}

	return nil
}

func (h *Handler) handleOrderCreated(ctx context.Context, e event.OrderEvent) error {
	log.Printf("[Notifier] Processing %s for order %s, user %s", e.Type, e.OrderNumber, e.UserID)

	u, err := h.accounts.FindUser(ctx, e.UserID)
	if err != nil {
		log.Printf("[Notifier] User lookup failed for %s: %v", e.UserID, err)
		return nil
	}

	emailItems := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		name := item.ProductID
		if p, err := h.products.Find(ctx, item.ProductID); err == nil {
			name = p.Name
		}
		emailItems[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	if err := h.emailService.SendOrderConfirmation(u.Email, e.OrderNumber, e.Total, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send confirmation to %s: %v", u.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", u.Email, e.OrderNumber)
	return nil
}

func (h *Handler) handleOrderPaid(ctx context.Context, e event.OrderEvent) error {
	log.Printf("[Notifier] Processing %s for order %s, user %s", e.Type, e.OrderNumber, e.UserID)

	u, err := h.accounts.FindUser(ctx, e.UserID)
	if err != nil {
		log.Printf("[Notifier] User lookup failed for %s: %v", e.UserID, err)
		return nil
	}

	if err := h.emailService.SendPaymentReceipt(u.Email, e.OrderNumber, e.Total); err != nil {
		log.Printf("[Notifier] Failed to send receipt to %s: %v", u.Email, err)
		return err
	}

	log.Printf("[Notifier] Payment receipt email sent to %s for order %s", u.Email, e.OrderNumber)
	return nil
}
