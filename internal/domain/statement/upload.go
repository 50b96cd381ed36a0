package statement

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BuildUpload orders the document's transactions newest first and attaches a
// running balance walked backwards from the ledger balance.
//
// Each row carries the balance before its own amount is taken out, so the
// newest row shows the ledger balance itself. Rows with equal dates keep
// their document order.
func BuildUpload(doc *Document) []UploadRow {
	if doc == nil {
		return nil
	}

	txs := make([]Transaction, len(doc.Transactions))
	copy(txs, doc.Transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].PostedDate > txs[j].PostedDate
	})

	balance := decimal.NewFromFloat(doc.LedgerBalance)
	rows := make([]UploadRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, UploadRow{
			BankID:      doc.BankID,
			AccountID:   doc.AccountID,
			Type:        tx.Type,
			PostedDate:  tx.PostedDate,
			Amount:      tx.Amount,
			FitID:       tx.FitID,
			CheckNumber: tx.CheckNumber,
			Memo:        tx.Memo,
			Balance:     balance.InexactFloat64(),
		})
		balance = balance.Sub(decimal.NewFromFloat(tx.Amount))
	}

	return rows
}
