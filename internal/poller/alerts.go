package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultAlertInterval = 15 * time.Minute

type AlertSource interface {
	ItemsOnSale(ctx context.Context) ([]domain.WishlistAlert, error)
	ItemsBackInStock(ctx context.Context) ([]domain.WishlistAlert, error)
	AcknowledgeAlert(ctx context.Context, a domain.WishlistAlert) error
}

type AlertNotifier interface {
	WishlistAlert(ctx context.Context, to domain.Contact, a domain.WishlistAlert) notify.Result
}

type CustomerFinder interface {
	Customer(ctx context.Context, id primitive.ObjectID) (domain.Contact, error)
}

// AlertPoller periodically scans wishlists for sale and restock alerts and
// sends them out. An alert is acknowledged only after some channel delivered
// it, otherwise it is retried on the next tick.
type AlertPoller struct {
	interval  time.Duration
	source    AlertSource
	notifier  AlertNotifier
	customers CustomerFinder
}

func NewAlertPoller(source AlertSource, notifier AlertNotifier, customers CustomerFinder, interval time.Duration) *AlertPoller {
	if interval <= 0 {
		interval = DefaultAlertInterval
	}
	return &AlertPoller{
		interval:  interval,
		source:    source,
		notifier:  notifier,
		customers: customers,
	}
}

func (p *AlertPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processAlerts(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *AlertPoller) processAlerts(ctx context.Context) {
	sale, err := p.source.ItemsOnSale(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to scan sale alerts", "error", err)
	}
	restock, err := p.source.ItemsBackInStock(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to scan restock alerts", "error", err)
	}

	alerts := make([]domain.WishlistAlert, 0, len(sale)+len(restock))
	alerts = append(alerts, sale...)
	alerts = append(alerts, restock...)
	if len(alerts) == 0 {
		return
	}

	sent := 0
	contacts := map[primitive.ObjectID]domain.Contact{}
	for _, a := range alerts {
		if ctx.Err() != nil {
			return
		}

		to, ok := contacts[a.CustomerID]
		if !ok {
			to = p.contact(ctx, a.CustomerID)
			contacts[a.CustomerID] = to
		}

		if !p.notifier.WishlistAlert(ctx, to, a).Delivered() {
			slog.WarnContext(ctx, "wishlist alert not delivered", "kind", a.Kind, "customer_id", a.CustomerID.Hex(), "product_id", a.ProductID.Hex())
			continue
		}

		if errAck := p.source.AcknowledgeAlert(ctx, a); errAck != nil {
			slog.ErrorContext(ctx, "failed to acknowledge alert", "kind", a.Kind, "customer_id", a.CustomerID.Hex(), "product_id", a.ProductID.Hex(), "error", errAck)
			continue
		}
		sent++
	}

	slog.InfoContext(ctx, "wishlist alerts processed", "found", len(alerts), "sent", sent)
}

func (p *AlertPoller) contact(ctx context.Context, id primitive.ObjectID) domain.Contact {
	c, err := p.customers.Customer(ctx, id)
	if err != nil {
		slog.DebugContext(ctx, "customer contact unavailable", "customer_id", id.Hex(), "error", err)
		return domain.Contact{ID: id}
	}
	return c
}
