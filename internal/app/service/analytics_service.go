package service

import (
	"errors"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrInvalidPeriod = errors.New("invalid analytics period")

const peakHourCount = 5

type AnalyticsService interface {
	GetBusinessAnalytics(owner, businessID string, period model.AnalyticsPeriod) (*model.BusinessAnalytics, error)
}

type analyticsService struct {
	businessRepo    repository.BusinessRepository
	transactionRepo repository.TransactionRepository
	reviewRepo      repository.ReviewRepository
	now             func() time.Time
}

func NewAnalyticsService(
	businessRepo repository.BusinessRepository,
	transactionRepo repository.TransactionRepository,
	reviewRepo repository.ReviewRepository,
) AnalyticsService {
	return &analyticsService{
		businessRepo:    businessRepo,
		transactionRepo: transactionRepo,
		reviewRepo:      reviewRepo,
		now:             time.Now,
	}
}

// PeriodStart returns the beginning of the reporting window ending at now.
func PeriodStart(period model.AnalyticsPeriod, now time.Time) (time.Time, error) {
	switch period {
	case model.PeriodDay:
		return now.AddDate(0, 0, -1), nil
	case model.PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case model.PeriodMonth:
		return now.AddDate(0, -1, 0), nil
	case model.PeriodYear:
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, ErrInvalidPeriod
}

func (s *analyticsService) GetBusinessAnalytics(owner, businessID string, period model.AnalyticsPeriod) (*model.BusinessAnalytics, error) {
	if period == "" {
		period = model.PeriodMonth
	}
	since, err := PeriodStart(period, s.now())
	if err != nil {
		return nil, err
	}

	business, err := s.businessRepo.FindByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if !strings.EqualFold(business.Owner, owner) {
		return nil, ErrNotBusinessOwner
	}

	payments, err := s.transactionRepo.List(repository.TransactionFilter{
		BusinessID: businessID,
		Type:       model.TransactionPayment,
		Status:     model.TransactionCompleted,
		Since:      since,
	})
	if err != nil {
		logger.Error("Failed to load payments for analytics", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}

	stats, err := s.reviewRepo.Stats(businessID)
	if err != nil {
		return nil, err
	}

	analytics := summarizePayments(payments)
	analytics.BusinessID = businessID
	analytics.Period = period
	analytics.ReviewStats = *stats
	analytics.GeographicData = []model.LocationCount{}
	if analytics.UniqueCustomers > 0 {
		analytics.GeographicData = append(analytics.GeographicData, model.LocationCount{
			Location:  business.Address,
			Customers: analytics.UniqueCustomers,
		})
	}
	return analytics, nil
}

// summarizePayments aggregates completed payments. A returning customer paid
// at least twice inside the window.
func summarizePayments(payments []model.Transaction) *model.BusinessAnalytics {
	total := new(big.Int)
	perCustomer := make(map[string]int)
	perHour := make(map[int]int64)
	perMethod := make(map[string]int64)

	for _, p := range payments {
		if wei, err := chain.ParseWei(p.AmountWei); err == nil {
			total.Add(total, wei)
		}
		perCustomer[strings.ToLower(p.UserAddress)]++
		perHour[p.CreatedAt.UTC().Hour()]++
		currency := p.Currency
		if currency == "" {
			currency = "ETH"
		}
		perMethod[currency]++
	}

	returning := int64(0)
	for _, n := range perCustomer {
		if n > 1 {
			returning++
		}
	}

	average := new(big.Int)
	if len(payments) > 0 {
		average.Quo(total, big.NewInt(int64(len(payments))))
	}

	return &model.BusinessAnalytics{
		TotalRevenue:            chain.FormatEther(total),
		TotalRevenueWei:         total.String(),
		TotalTransactions:       int64(len(payments)),
		AverageTransactionValue: chain.FormatEther(average),
		UniqueCustomers:         int64(len(perCustomer)),
		ReturningCustomers:      returning,
		PeakHours:               topHours(perHour, peakHourCount),
		TopPaymentMethods:       methodCounts(perMethod),
	}
}

func topHours(perHour map[int]int64, n int) []model.HourBucket {
	buckets := make([]model.HourBucket, 0, len(perHour))
	for hour, count := range perHour {
		buckets = append(buckets, model.HourBucket{Hour: hour, Transactions: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Transactions != buckets[j].Transactions {
			return buckets[i].Transactions > buckets[j].Transactions
		}
		return buckets[i].Hour < buckets[j].Hour
	})
	if len(buckets) > n {
		buckets = buckets[:n]
	}
	return buckets
}

func methodCounts(perMethod map[string]int64) []model.MethodCount {
	methods := make([]model.MethodCount, 0, len(perMethod))
	for method, count := range perMethod {
		methods = append(methods, model.MethodCount{Method: method, Count: count})
	}
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].Count != methods[j].Count {
			return methods[i].Count > methods[j].Count
		}
		return methods[i].Method < methods[j].Method
	})
	return methods
}
