package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const ownerWallet = "0x00000000000000000000000000000000000000aa"

func TestWriteTransactions(t *testing.T) {
	business := &model.Business{ID: "cafe-one", Name: "Cafe One", Owner: ownerWallet}
	at := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	txns := []model.Transaction{
		{CreatedAt: at, Type: model.TransactionPayment, Status: model.TransactionCompleted, UserAddress: "0xbb", AmountWei: "1500000000000000000", Currency: "ETH", TransactionHash: "0x01", BlockNumber: 10},
		{CreatedAt: at, Type: model.TransactionPayment, Status: model.TransactionFailed, UserAddress: "0xcc", AmountWei: "2000000000000000000", Currency: "ETH", TransactionHash: "0x02"},
		{CreatedAt: at, Type: model.TransactionWithdrawal, Status: model.TransactionCompleted, UserAddress: ownerWallet, AmountWei: "500000000000000000", Currency: "ETH", TransactionHash: "0x03"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, business, txns))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, transactionHeaders, rows[0])
	assert.Equal(t, "2026-03-01 14:30:00", rows[1][0])
	assert.Equal(t, "1.5", rows[1][4])
	assert.Equal(t, "failed", rows[2][2])

	received, err := f.GetCellValue(summarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "1.5", received)
	withdrawn, err := f.GetCellValue(summarySheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "0.5", withdrawn)
	completed, err := f.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "2", completed)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestReadBusinesses(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Name", "Category", "Address", "Owner", "Email", "Latitude", "Longitude", "Specialties"},
		{"Cafe One", "food", "123 Main Street, Springfield", "", "hello@cafe.one", "40.71", "-74.0", "espresso; pastries"},
		{"Ab", "food", "123 Main Street, Springfield"},
		{"Gym Two", "sports", "45 Harbor Road, Springfield"},
		{"Book Nook", "shopping", "9 Elm St, Springfield", "0x00000000000000000000000000000000000000CC", "not-an-email"},
		{"Cafe One", "food", "123 Main Street, Springfield"},
		{},
	})

	items, summary, err := ReadBusinesses(buf, ownerWallet)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, summary.Rows)
	assert.Equal(t, 1, summary.Valid)
	assert.Equal(t, 4, summary.Skipped)
	assert.Len(t, summary.Reasons, 4)

	got := items[0]
	assert.Equal(t, 2, got.Row)
	assert.Equal(t, ownerWallet, got.Owner)
	assert.Equal(t, model.CategoryFood, got.Request.Category)
	assert.Equal(t, 40.71, got.Request.Latitude)
	assert.Equal(t, []string{"espresso", "pastries"}, got.Request.Specialties)
}

func TestReadBusinesses_MissingColumns(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{{"Name", "Address"}, {"Cafe One", "123 Main Street"}})
	_, _, err := ReadBusinesses(buf, ownerWallet)
	assert.Error(t, err)

	_, _, err = ReadBusinesses(bytes.NewReader([]byte("not a workbook")), ownerWallet)
	assert.Error(t, err)
}
