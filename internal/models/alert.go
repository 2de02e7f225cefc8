package models

// Alert is one row of the high_risk_flows relation.
type Alert struct {
	ID        int64   `json:"id"`
	SrcIP     string  `json:"src_ip"`
	DstIP     string  `json:"dst_ip"`
	SrcPort   int     `json:"src_port"`
	DstPort   int     `json:"dst_port"`
	Proto     string  `json:"proto"`
	Score     float64 `json:"score"`
	Timestamp string  `json:"timestamp"`
}

// AlertColumns is the fixed column order every store selects and scans in.
var AlertColumns = []string{
	"id", "src_ip", "dst_ip", "src_port", "dst_port", "proto", "score", "timestamp",
}

// AlertPage is the response body of a paginated listing.
type AlertPage struct {
	Data   []Alert `json:"data"`
	Count  int     `json:"count"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// NewAlertPage wraps rows so that Data is never null and Count matches it.
func NewAlertPage(alerts []Alert, req PageRequest) AlertPage {
	if alerts == nil {
		alerts = []Alert{}
	}
	return AlertPage{
		Data:   alerts,
		Count:  len(alerts),
		Limit:  req.Limit,
		Offset: req.Offset,
	}
}

type AlertStats struct {
	TotalAlerts int64   `json:"total_alerts"`
	MaxScore    float64 `json:"max_score"`
	AvgScore    float64 `json:"avg_score"`
}

type ClearResult struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
