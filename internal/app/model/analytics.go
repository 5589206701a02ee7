package model

// AnalyticsPeriod is the look-back window for business analytics.
type AnalyticsPeriod string

const (
	PeriodDay   AnalyticsPeriod = "day"
	PeriodWeek  AnalyticsPeriod = "week"
	PeriodMonth AnalyticsPeriod = "month"
	PeriodYear  AnalyticsPeriod = "year"
)

type HourBucket struct {
	Hour         int   `json:"hour"`
	Transactions int64 `json:"transactions"`
}

type MethodCount struct {
	Method string `json:"method"`
	Count  int64  `json:"count"`
}

type LocationCount struct {
	Location  string `json:"location"`
	Customers int64  `json:"customers"`
}

// BusinessAnalytics is computed from completed payments in the period.
type BusinessAnalytics struct {
	BusinessID              string          `json:"business_id"`
	Period                  AnalyticsPeriod `json:"period"`
	TotalRevenue            string          `json:"total_revenue"`
	TotalRevenueWei         string          `json:"total_revenue_wei"`
	TotalTransactions       int64           `json:"total_transactions"`
	AverageTransactionValue string          `json:"average_transaction_value"`
	UniqueCustomers         int64           `json:"unique_customers"`
	ReturningCustomers      int64           `json:"returning_customers"`
	PeakHours               []HourBucket    `json:"peak_hours"`
	TopPaymentMethods       []MethodCount   `json:"top_payment_methods"`
	ReviewStats             RatingStats     `json:"review_stats"`
	GeographicData          []LocationCount `json:"geographic_data"`
}
