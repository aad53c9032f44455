// package formatter renders account state for the terminal (plain text, Markdown, JSON, CSV)
// and translates backend error strings into display keys.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	"golang.org/x/text/currency"
)

// AccountSummary is the account view shared by all output formats.
type AccountSummary struct {
	Customer     *models.Customer         `json:"customer,omitempty"`
	Subscription *models.Subscription     `json:"subscription,omitempty"`
	Payment      *models.PaymentDetails   `json:"activePayment,omitempty"`
	Transactions []models.Transaction     `json:"transactions,omitempty"`
	Consents     []models.CustomerConsent `json:"consents,omitempty"`
	TokenExpiry  time.Time                `json:"tokenExpiry,omitzero"`
}

// LoggedIn reports whether the summary describes a signed-in customer.
func (a AccountSummary) LoggedIn() bool {
	return a.Customer != nil
}

// FormatPrice renders amount in the ISO 4217 currency code. Unknown codes fall back to "<amount> <code>".
func FormatPrice(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	return fmt.Sprint(currency.Symbol(unit.Amount(amount)))
}

// FormatDate renders a unix timestamp as a date, or "-" for zero.
func FormatDate(unix int64) string {
	if unix <= 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}

func subscriptionLine(s *models.Subscription) string {
	if s == nil {
		return "none"
	}

	title := s.OfferTitle
	if title == "" {
		title = s.OfferID
	}
	switch s.Status {
	case models.SubscriptionCancelled:
		return fmt.Sprintf("%s (cancelled, access until %s)", title, FormatDate(s.ExpiresAt))
	default:
		return fmt.Sprintf("%s (%s, renews %s for %s)", title, s.Status, FormatDate(s.ExpiresAt),
			FormatPrice(s.NextPaymentPrice, s.NextPaymentCurrency))
	}
}

func paymentLine(p *models.PaymentDetails) string {
	if p == nil {
		return "none"
	}
	if p.PaymentMethod == "" {
		return p.PaymentGateway
	}
	return fmt.Sprintf("%s (%s)", p.PaymentMethod, p.PaymentGateway)
}

// ExportToText renders the summary as plain text.
func ExportToText(a AccountSummary) ([]byte, error) {
	var buf bytes.Buffer

	if !a.LoggedIn() {
		buf.WriteString("Not logged in\n")
		return buf.Bytes(), nil
	}

	c := a.Customer
	buf.WriteString(fmt.Sprintf("Account: %s\n", c.Email))
	if name := c.FullName(); name != "" {
		buf.WriteString(fmt.Sprintf("Name: %s\n", name))
	}
	buf.WriteString(fmt.Sprintf("Customer ID: %s\n", c.ID))
	if !a.TokenExpiry.IsZero() {
		buf.WriteString(fmt.Sprintf("Session expires: %s\n", a.TokenExpiry.UTC().Format(time.RFC3339)))
	}
	buf.WriteString(fmt.Sprintf("Subscription: %s\n", subscriptionLine(a.Subscription)))
	buf.WriteString(fmt.Sprintf("Payment method: %s\n", paymentLine(a.Payment)))

	if len(a.Consents) > 0 {
		buf.WriteString("\nConsents:\n")
		for _, consent := range a.Consents {
			buf.WriteString(fmt.Sprintf("  [%s] %s\n", checkmark(consent.Accepted()), consent.Name))
		}
	}

	if len(a.Transactions) > 0 {
		buf.WriteString(fmt.Sprintf("\nTransactions: %d\n", len(a.Transactions)))
		for i, tx := range a.Transactions {
			buf.WriteString(fmt.Sprintf("%d. %s %s %s\n", i+1, FormatDate(tx.TransactionDate), tx.OfferTitle,
				FormatPrice(tx.TransactionPriceExclTax, tx.TransactionCurrency)))
		}
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the summary as a Markdown document.
func ExportToMarkdown(a AccountSummary) ([]byte, error) {
	var buf bytes.Buffer

	if !a.LoggedIn() {
		buf.WriteString("# Account\n\n_Not logged in_\n")
		return buf.Bytes(), nil
	}

	c := a.Customer
	buf.WriteString(fmt.Sprintf("# %s\n\n", c.Email))
	if name := c.FullName(); name != "" {
		buf.WriteString(fmt.Sprintf("**Name**: %s\n", name))
	}
	buf.WriteString(fmt.Sprintf("**Subscription**: %s\n", subscriptionLine(a.Subscription)))
	buf.WriteString(fmt.Sprintf("**Payment method**: %s\n\n", paymentLine(a.Payment)))

	if len(a.Consents) > 0 {
		buf.WriteString("## Consents\n\n")
		for _, consent := range a.Consents {
			buf.WriteString(fmt.Sprintf("- [%s] %s\n", checkmark(consent.Accepted()), consent.Name))
		}
		buf.WriteString("\n")
	}

	if len(a.Transactions) > 0 {
		buf.WriteString("## Transactions\n\n")
		buf.WriteString("| Date | Offer | Price | Method |\n|---|---|---|---|\n")
		for _, tx := range a.Transactions {
			buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", FormatDate(tx.TransactionDate), tx.OfferTitle,
				FormatPrice(tx.TransactionPriceExclTax, tx.TransactionCurrency), tx.PaymentMethod))
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the summary as indented JSON.
func ExportToJSON(a AccountSummary) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account summary: %w", err)
	}
	return append(data, '\n'), nil
}

// TransactionsToCSV converts transactions to CSV with columns: ID, Date, Offer, Title, Price, Currency, Method
func TransactionsToCSV(txs []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Date", "Offer", "Title", "Price", "Currency", "Method"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			tx.TransactionID,
			FormatDate(tx.TransactionDate),
			tx.OfferID,
			tx.OfferTitle,
			strconv.FormatFloat(tx.TransactionPriceExclTax, 'f', 2, 64),
			tx.TransactionCurrency,
			tx.PaymentMethod,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteTransactionsCSV writes transactions to path, defaulting to transactions.csv.
func WriteTransactionsCSV(txs []models.Transaction, path string) (string, error) {
	if path == "" {
		path = "transactions.csv"
	}

	data, err := TransactionsToCSV(txs)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// Render dispatches on format: text, markdown (md) or json.
func Render(a AccountSummary, format string) ([]byte, error) {
	switch format {
	case "", "text", "txt":
		return ExportToText(a)
	case "markdown", "md":
		return ExportToMarkdown(a)
	case "json":
		return ExportToJSON(a)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (use text, markdown or json)", shared.ErrInvalidArgument, format)
	}
}

func checkmark(ok bool) string {
	if ok {
		return "x"
	}
	return " "
}
