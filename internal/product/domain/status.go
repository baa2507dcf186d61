package domain

type Status string

const (
	StatusHot         Status = "hot"
	StatusInteresting Status = "interesting"
	StatusCold        Status = "cold"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusHot, StatusInteresting, StatusCold}

// Badge is the presentation mapping for a status.
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var badges = map[Status]Badge{
	StatusHot:         {Label: "🔥 In demand", Color: "red"},
	StatusInteresting: {Label: "👀 Interesting", Color: "yellow"},
	StatusCold:        {Label: "💸 Low engagement", Color: "blue"},
}

func (s Status) Badge() Badge {
	if b, ok := badges[s]; ok {
		return b
	}
	return badges[StatusCold]
}

// ConversionRate is sales per scan as a percentage, 0 when never scanned.
func ConversionRate(p Product) float64 {
	if p.Scans <= 0 {
		return 0
	}
	return float64(p.Sales) / float64(p.Scans) * 100
}

// DeriveStatus classifies a product from its counters alone.
func DeriveStatus(p Product) Status {
	rate := ConversionRate(p)
	switch {
	case rate > 25 && p.Scans > 100:
		return StatusHot
	case rate > 10 || p.Scans > 150:
		return StatusInteresting
	default:
		return StatusCold
	}
}

func Annotate(products []Product) []WithStatus {
	out := make([]WithStatus, len(products))
	for i, p := range products {
		out[i] = WithStatus{Product: p, Status: DeriveStatus(p)}
	}
	return out
}
