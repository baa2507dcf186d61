package mutation

import (
	"testing"
	"time"

	"github.com/smallbiznis/scanprice/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int64) *int64       { return &v }

func seed() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Apple", Price: 1.5, Stock: 10},
		{ID: "p2", Name: "Bread", Price: 3, Stock: 4},
		{ID: "p3", Name: "Milk", Price: 2, Stock: 0},
	}
}

func TestAddProduct_Defaults(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	next, created := AddProduct(seed(), domain.Draft{Name: "Cheese", Price: 7}, "p9", now)

	require.Len(t, next, 4)
	assert.Equal(t, created, next[3])
	assert.Equal(t, "p9", created.ID)
	assert.Equal(t, int64(domain.DefaultStock), created.Stock)
	assert.Zero(t, created.Discount)
	assert.Zero(t, created.Scans)
	assert.Zero(t, created.Sales)
	assert.Equal(t, PlaceholderImage("1740823200000"), created.ImageURL)
}

func TestAddProduct_KeepsSuppliedValues(t *testing.T) {
	draft := domain.Draft{Name: "Cheese", Price: 7, Discount: ptrFloat(15), Stock: ptrInt(3), ImageURL: "https://img/cheese.png"}

	_, created := AddProduct(nil, draft, "p9", time.Now())

	assert.Equal(t, 15.0, created.Discount)
	assert.Equal(t, int64(3), created.Stock)
	assert.Equal(t, "https://img/cheese.png", created.ImageURL)
}

func TestEditProduct_ReplacesWholesale(t *testing.T) {
	products := seed()
	products[0].Scans = 40

	next, changed := EditProduct(products, domain.Product{ID: "p1", Name: "Green apple", Price: 2})

	require.True(t, changed)
	assert.Equal(t, domain.Product{ID: "p1", Name: "Green apple", Price: 2}, next[0])
	assert.Equal(t, int64(40), products[0].Scans, "input must not be modified")
}

func TestEditProduct_UnknownIDIsNoop(t *testing.T) {
	next, changed := EditProduct(seed(), domain.Product{ID: "nope", Name: "x"})

	assert.False(t, changed)
	assert.Equal(t, seed(), next)
}

func TestDeleteProduct(t *testing.T) {
	next, changed := DeleteProduct(seed(), "p2")
	require.True(t, changed)
	assert.Equal(t, []string{"p1", "p3"}, ids(next))

	_, changed = DeleteProduct(seed(), "nope")
	assert.False(t, changed)
}

func TestBulkIncrementScan_OnlyMatchedIDsShareTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	next, changed := BulkIncrementScan(seed(), []string{"p1", "p3", "missing"}, now)

	require.True(t, changed)
	assert.Equal(t, int64(1), next[0].Scans)
	assert.Equal(t, int64(1), next[2].Scans)
	require.NotNil(t, next[0].LastScanned)
	require.NotNil(t, next[2].LastScanned)
	assert.Equal(t, now, *next[0].LastScanned)
	assert.Equal(t, *next[0].LastScanned, *next[2].LastScanned)

	assert.Zero(t, next[1].Scans)
	assert.Nil(t, next[1].LastScanned)
}

func TestIncrementScan_UnknownIDIsNoop(t *testing.T) {
	next, changed := IncrementScan(seed(), "missing", time.Now())

	assert.False(t, changed)
	assert.Equal(t, seed(), next)
}

func TestDecrementStock_ClampsAtZero(t *testing.T) {
	products := seed()
	for _, qty := range []int64{1, 3, 50, 1} {
		products, _ = DecrementStock(products, "p2", qty)
		assert.GreaterOrEqual(t, products[1].Stock, int64(0))
	}
	assert.Zero(t, products[1].Stock)

	_, changed := DecrementStock(seed(), "p1", 0)
	assert.False(t, changed)
}

func TestProcessSales_SalesUnclampedStockClamped(t *testing.T) {
	next, changed := ProcessSales(seed(), []domain.SaleEntry{{ProductID: "p1", Quantity: 1000}})

	require.True(t, changed)
	assert.Zero(t, next[0].Stock)
	assert.Equal(t, int64(1000), next[0].Sales)
}

func TestProcessSales_AccumulatesInOrderAndDropsUnknown(t *testing.T) {
	next, changed := ProcessSales(seed(), []domain.SaleEntry{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "ghost", Quantity: 5},
		{ProductID: "p1", Quantity: 4},
		{ProductID: "p2", Quantity: -2},
	})

	require.True(t, changed)
	assert.Equal(t, int64(7), next[0].Sales)
	assert.Equal(t, int64(3), next[0].Stock)
	assert.Equal(t, seed()[1], next[1])
}

func TestAddProductsBatch_MergeKeepsOmittedFields(t *testing.T) {
	scanned := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	existing := []domain.Product{{
		ID: "p1", Name: "Old", Price: 1, Stock: 50, Discount: 10, Scans: 12,
		Description: "keep", ImageURL: "keep.png", LastScanned: &scanned,
	}}

	next, changed := AddProductsBatch(existing, []domain.UploadRow{{ID: "p1", Name: "X", Price: 9.99}})

	require.True(t, changed)
	require.Len(t, next, 1)
	got := next[0]
	assert.Equal(t, "X", got.Name)
	assert.Equal(t, 9.99, got.Price)
	assert.Equal(t, int64(50), got.Stock)
	assert.Equal(t, 10.0, got.Discount)
	assert.Equal(t, int64(12), got.Scans)
	assert.Equal(t, "keep", got.Description)
	assert.Equal(t, "keep.png", got.ImageURL)
	assert.Equal(t, scanned, *got.LastScanned)
}

func TestAddProductsBatch_CreatesUnknownIDs(t *testing.T) {
	next, _ := AddProductsBatch(seed(), []domain.UploadRow{{ID: "new1", Name: "Widget", Price: 5}})

	require.Len(t, next, 4)
	assert.Equal(t, domain.Product{
		ID:          "new1",
		Name:        "Widget",
		Price:       5,
		Stock:       100,
		Description: "Product description for Widget",
		ImageURL:    "https://picsum.photos/seed/new1/400/400",
	}, next[3])
}

func TestAddProductsBatch_LaterDuplicateRowWins(t *testing.T) {
	rows := []domain.UploadRow{
		{ID: "n1", Name: "First", Price: 1, Stock: ptrInt(5)},
		{ID: "n2", Name: "Other", Price: 2},
		{ID: "n1", Name: "Second", Price: 3},
	}

	next, _ := AddProductsBatch(nil, rows)

	require.Equal(t, []string{"n1", "n2"}, ids(next))
	assert.Equal(t, "Second", next[0].Name)
	assert.Equal(t, 3.0, next[0].Price)
	assert.Equal(t, int64(5), next[0].Stock)
}

func TestMutations_DoNotAliasInput(t *testing.T) {
	products := seed()
	when := time.Now()
	products[0].LastScanned = &when

	next, _ := IncrementScan(products, "p1", when.Add(time.Hour))

	assert.Equal(t, when, *products[0].LastScanned)
	assert.NotSame(t, products[0].LastScanned, next[0].LastScanned)
}

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}
