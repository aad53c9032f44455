package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ottx/internal/formatter"
	"github.com/desertthunder/ottx/internal/models"
)

var (
	_ list.Item = transactionItem{}
)

// transactionItem wraps [models.Transaction] to implement [list.Item].
type transactionItem struct {
	tx models.Transaction
}

func (i transactionItem) FilterValue() string { return i.tx.OfferTitle }
func (i transactionItem) Title() string {
	if i.tx.OfferTitle == "" {
		return i.tx.OfferID
	}
	return i.tx.OfferTitle
}
func (i transactionItem) Description() string {
	desc := fmt.Sprintf("%s • %s", formatter.FormatDate(i.tx.TransactionDate),
		formatter.FormatPrice(i.tx.TransactionPriceExclTax, i.tx.TransactionCurrency))
	if i.tx.PaymentMethod != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.tx.PaymentMethod)
	}
	return desc
}

func transactionItems(txs []models.Transaction) []list.Item {
	items := make([]list.Item, len(txs))
	for i, tx := range txs {
		items[i] = transactionItem{tx: tx}
	}
	return items
}
