package metricspush

import (
	"github.com/prometheus/client_golang/prometheus"
	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
)

// Snapshotter is the read side of the product store.
type Snapshotter interface {
	Snapshot() []productdomain.Product
}

// CatalogCollector reports catalog gauges computed from the last published
// snapshot on every gather.
type CatalogCollector struct {
	source Snapshotter

	products   *prometheus.Desc
	stock      *prometheus.Desc
	scans      *prometheus.Desc
	sales      *prometheus.Desc
	promotions *prometheus.Desc
}

func NewCatalogCollector(source Snapshotter, constLabels prometheus.Labels) *CatalogCollector {
	return &CatalogCollector{
		source: source,
		products: prometheus.NewDesc(
			"scanprice_catalog_products",
			"Products in the catalog by derived status.",
			[]string{"status"}, constLabels,
		),
		stock: prometheus.NewDesc(
			"scanprice_catalog_stock_units",
			"Units in stock across the catalog.",
			nil, constLabels,
		),
		scans: prometheus.NewDesc(
			"scanprice_catalog_scans",
			"Recorded scans across the catalog.",
			nil, constLabels,
		),
		sales: prometheus.NewDesc(
			"scanprice_catalog_sales",
			"Recorded sales across the catalog.",
			nil, constLabels,
		),
		promotions: prometheus.NewDesc(
			"scanprice_catalog_promotions",
			"Products with a discount set.",
			nil, constLabels,
		),
	}
}

func (c *CatalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.products
	ch <- c.stock
	ch <- c.scans
	ch <- c.sales
	ch <- c.promotions
}

func (c *CatalogCollector) Collect(ch chan<- prometheus.Metric) {
	var products []productdomain.Product
	if c.source != nil {
		products = c.source.Snapshot()
	}

	byStatus := make(map[productdomain.Status]int, len(productdomain.Statuses))
	var stock, scans, sales, promotions float64
	for _, p := range products {
		byStatus[productdomain.DeriveStatus(p)]++
		stock += float64(p.Stock)
		scans += float64(p.Scans)
		sales += float64(p.Sales)
		if p.OnPromotion() {
			promotions++
		}
	}

	for _, status := range productdomain.Statuses {
		ch <- prometheus.MustNewConstMetric(c.products, prometheus.GaugeValue, float64(byStatus[status]), string(status))
	}
	ch <- prometheus.MustNewConstMetric(c.stock, prometheus.GaugeValue, stock)
	ch <- prometheus.MustNewConstMetric(c.scans, prometheus.GaugeValue, scans)
	ch <- prometheus.MustNewConstMetric(c.sales, prometheus.GaugeValue, sales)
	ch <- prometheus.MustNewConstMetric(c.promotions, prometheus.GaugeValue, promotions)
}
