package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ottx/internal/formatter"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/session"
	"github.com/urfave/cli/v3"
)

// SubscriptionShow renders the current subscription and payment method.
func (r *Runner) SubscriptionShow(ctx context.Context, cmd *cli.Command) error {
	_, st, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	summary := r.summary(st)
	summary.Consents = nil
	summary.Transactions = nil

	data, err := formatter.Render(summary, cmd.String("format"))
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// SubscriptionCancel stops renewal of the current subscription.
func (r *Runner) SubscriptionCancel(ctx context.Context, cmd *cli.Command) error {
	return r.setSubscriptionStatus(ctx, models.SubscriptionCancelled, "✓ Subscription cancelled")
}

// SubscriptionResume re-activates a cancelled subscription.
func (r *Runner) SubscriptionResume(ctx context.Context, cmd *cli.Command) error {
	return r.setSubscriptionStatus(ctx, models.SubscriptionActive, "✓ Subscription resumed")
}

func (r *Runner) setSubscriptionStatus(ctx context.Context, status, done string) error {
	ctrl, _, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.UpdateSubscription(ctx, status); err != nil {
		return r.reportFormErrors(err)
	}
	return r.printSubscription(ctrl, done)
}

// SubscriptionReload reloads subscription, transactions and payment method.
func (r *Runner) SubscriptionReload(ctx context.Context, cmd *cli.Command) error {
	ctrl, _, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	if delay := cmd.Duration("delay"); delay > 0 {
		r.writePlain("→ Waiting %s before reloading...\n", delay)
	}
	if err := ctrl.ReloadActiveSubscription(ctx, cmd.Duration("delay")); err != nil {
		return err
	}
	return r.printSubscription(ctrl, "✓ Subscription reloaded")
}

func (r *Runner) printSubscription(ctrl *session.Controller, title string) error {
	st := ctrl.Store().State()
	if st.Subscription == nil {
		return r.writePlain("%s: no current subscription\n", title)
	}
	s := st.Subscription
	return r.writePlain("%s: %s (%s, expires %s)\n", title, s.OfferTitle, s.Status, formatter.FormatDate(s.ExpiresAt))
}

// SubscriptionTransactions lists transactions, or writes them as CSV with --output.
func (r *Runner) SubscriptionTransactions(ctx context.Context, cmd *cli.Command) error {
	_, st, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	if cmd.IsSet("output") {
		path, err := formatter.WriteTransactionsCSV(st.Transactions, cmd.String("output"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d transactions to %s\n", len(st.Transactions), path)
	}

	r.writePlainHeader(fmt.Sprintf("Transactions (%d)", len(st.Transactions)))
	for _, tx := range st.Transactions {
		r.writePlain("%s  %-30s %10s  %s\n",
			formatter.FormatDate(tx.TransactionDate),
			tx.OfferTitle,
			formatter.FormatPrice(tx.TransactionPriceExclTax, tx.TransactionCurrency),
			tx.PaymentMethod,
		)
	}
	return nil
}
