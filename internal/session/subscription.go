package session

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	"golang.org/x/sync/errgroup"
)

// commerceSlots holds the three subscription reads. A failed read leaves its slot nil.
type commerceSlots struct {
	subscription *models.Subscription
	transactions []models.Transaction
	payment      *models.PaymentDetails
}

func (s commerceSlots) apply(st *State) {
	st.Subscription = s.subscription
	st.Transactions = s.transactions
	st.ActivePayment = s.payment
}

func (c *Controller) loadCommerce(ctx context.Context, g *errgroup.Group, jwt, customerID string, slots *commerceSlots) {
	g.Go(func() error {
		items, err := c.commerce.GetSubscriptions(ctx, customerID, jwt)
		if err != nil {
			c.logger.Warn("failed to load subscriptions", "error", err)
			return nil
		}
		slots.subscription = ActiveSubscription(items)
		return nil
	})
	g.Go(func() error {
		items, err := c.commerce.GetTransactions(ctx, customerID, jwt)
		if err != nil {
			c.logger.Warn("failed to load transactions", "error", err)
			return nil
		}
		if items == nil {
			items = []models.Transaction{}
		}
		slots.transactions = items
		return nil
	})
	g.Go(func() error {
		items, err := c.commerce.GetPaymentDetails(ctx, customerID, jwt)
		if err != nil {
			c.logger.Warn("failed to load payment details", "error", err)
			return nil
		}
		slots.payment = ActivePayment(items)
		return nil
	})
}

// ActiveSubscription returns the first subscription that is active or cancelled.
func ActiveSubscription(items []models.Subscription) *models.Subscription {
	for _, s := range items {
		if s.Current() {
			return &s
		}
	}
	return nil
}

// ActivePayment returns the first payment method flagged active.
func ActivePayment(items []models.PaymentDetails) *models.PaymentDetails {
	for _, p := range items {
		if p.Active {
			return &p
		}
	}
	return nil
}

// ReloadActiveSubscription re-reads subscription, transactions and payment method.
// A positive delay waits first, since new purchases take a moment to show up.
func (c *Controller) ReloadActiveSubscription(ctx context.Context, delay time.Duration) error {
	st, epoch, err := c.loginContext()
	if err != nil {
		return err
	}

	c.setLoading(true)
	if delay > 0 {
		if err := c.sleep(ctx, delay); err != nil {
			c.setLoading(false)
			return err
		}
	}

	var (
		g     errgroup.Group
		slots commerceSlots
	)
	c.loadCommerce(ctx, &g, st.Auth.JWT, st.CustomerID(), &slots)
	_ = g.Wait()

	c.invalidateEntitlements()

	if !c.store.UpdateIf(epoch, func(s *State) {
		slots.apply(s)
		s.Loading = false
	}) {
		c.setLoading(false)
		return shared.ErrStaleSession
	}
	return nil
}

// UpdateSubscription sets the current subscription's status to active or cancelled and reloads it.
func (c *Controller) UpdateSubscription(ctx context.Context, status string) error {
	st, _, err := c.loginContext()
	if err != nil {
		return err
	}
	if st.Subscription == nil {
		return shared.ErrNoSubscription
	}
	if status != models.SubscriptionActive && status != models.SubscriptionCancelled {
		return fmt.Errorf("%w: status must be %q or %q", shared.ErrInvalidArgument, models.SubscriptionActive, models.SubscriptionCancelled)
	}

	err = c.commerce.UpdateSubscription(ctx, models.UpdateSubscriptionPayload{
		CustomerID: st.CustomerID(),
		OfferID:    st.Subscription.OfferID,
		Status:     status,
	}, st.Auth.JWT)
	if err != nil {
		return err
	}

	return c.ReloadActiveSubscription(ctx, 0)
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	done := make(chan struct{})
	t := c.clock.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}
