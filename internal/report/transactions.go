package report

import (
	"fmt"
	"io"
	"math/big"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/xuri/excelize/v2"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
	timeLayout        = "2006-01-02 15:04:05"
)

var transactionHeaders = []string{
	"Date (UTC)", "Type", "Status", "Wallet", "Amount (ETH)", "Amount (wei)",
	"Currency", "Transaction Hash", "Block", "Description",
}

// ExportFilename is the download name for a business export.
func ExportFilename(businessID string) string {
	return fmt.Sprintf("localbase-%s-transactions.xlsx", businessID)
}

// WriteTransactions renders a workbook with one row per transaction and a
// summary sheet of completed totals.
func WriteTransactions(w io.Writer, business *model.Business, txns []model.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return err
	}

	for i, header := range transactionHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(transactionsSheet, cell, header); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(transactionsSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	received := new(big.Int)
	withdrawn := new(big.Int)
	completed := 0

	for i, txn := range txns {
		wei, err := chain.ParseWei(txn.AmountWei)
		if err != nil {
			wei = new(big.Int)
		}
		row := []interface{}{
			txn.CreatedAt.UTC().Format(timeLayout),
			string(txn.Type),
			string(txn.Status),
			txn.UserAddress,
			chain.FormatEther(wei),
			wei.String(),
			txn.Currency,
			txn.TransactionHash,
			txn.BlockNumber,
			txn.Description,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return err
		}

		if txn.Status != model.TransactionCompleted {
			continue
		}
		completed++
		switch txn.Type {
		case model.TransactionPayment:
			received.Add(received, wei)
		case model.TransactionWithdrawal:
			withdrawn.Add(withdrawn, wei)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Business", business.Name},
		{"Business ID", business.ID},
		{"Owner", business.Owner},
		{"Completed transactions", completed},
		{"Received (ETH)", chain.FormatEther(received)},
		{"Withdrawn (ETH)", chain.FormatEther(withdrawn)},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
