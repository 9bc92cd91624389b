package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderPDF(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "orders")
	order := &model.B2BOrder{
		OrderNumber:     "B2B-LOYW3V28",
		Subtotal:        decimal.NewFromInt(40),
		DiscountPercent: decimal.NewFromInt(20),
		DiscountAmount:  decimal.NewFromInt(8),
		TotalAmount:     decimal.NewFromInt(32),
		Notes:           "Leave at the loading dock",
		CreatedAt:       time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Items: []model.B2BOrderItem{
			{ProductName: "Hydrangea", Quantity: 3, PriceUnit: "piece", UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(30)},
			{ProductName: "Begonia", Quantity: 2, PriceUnit: "piece", UnitPrice: decimal.NewFromInt(5), TotalPrice: decimal.NewFromInt(10)},
		},
	}
	company := &model.Company{Name: "Green Leaf Ltd", IdentificationNumber: "BG123456789", PaymentTermsDays: 30}

	path, err := GenerateOrderPDF(order, company, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "order_B2B-LOYW3V28.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "B2B-AB_C_", safeFileName("B2B-AB/C."))
}
