package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/redis"
	"github.com/localbase/localbase-backend/pkg/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrBusinessNotFound = errors.New("business not found")
	ErrNotBusinessOwner = errors.New("only the business owner can do this")
	ErrBusinessIDTaken  = errors.New("business id is already taken")
	ErrInvalidBusiness  = errors.New("invalid business data")
	ErrInvalidAddress   = errors.New("invalid wallet address")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	popularBadgeMin = 5
)

type categoryDefault struct {
	Description string
	Open        string
	Close       string
	PriceRange  string
}

// Defaults applied to empty registration fields, per category.
var categoryDefaults = map[model.Category]categoryDefault{
	model.CategoryFood:     {"Delicious food and great service in a welcoming atmosphere.", "08:00", "22:00", "$$"},
	model.CategoryShopping: {"Quality products with excellent customer service.", "10:00", "20:00", "$$$"},
	model.CategoryServices: {"Professional services tailored to your needs.", "09:00", "18:00", "$$"},
	model.CategoryHealth:   {"Professional healthcare services in a comfortable environment.", "08:00", "17:00", "$$$"},
	model.CategoryBeauty:   {"Premium beauty services to help you look and feel your best.", "09:00", "19:00", "$$"},
	model.CategoryFun:      {"Entertainment and activities for an unforgettable experience.", "10:00", "23:00", "$$"},
}

type BusinessListOptions struct {
	Category  string
	Search    string
	Owner     string
	Latitude  *float64
	Longitude *float64
	RadiusKm  float64
	Page      int
	PageSize  int
}

type BusinessListResult struct {
	Businesses []model.Business `json:"businesses"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

type BusinessService interface {
	ListBusinesses(opts BusinessListOptions) (*BusinessListResult, error)
	GetBusinesses(category string) ([]model.Business, error)
	SearchBusinesses(query string) ([]model.Business, error)
	GetBusinessByID(id string) (*model.Business, error)
	GetMyBusinesses(owner string) ([]model.Business, error)
	AddBusiness(ctx context.Context, owner string, req model.CreateBusinessRequest) (*model.Business, error)
	UpdateBusiness(owner, id string, req model.UpdateBusinessRequest) (*model.Business, error)
	DeleteBusiness(owner, id string) error
	ToggleBusinessStatus(ctx context.Context, owner, id string) (*model.Business, error)
	IncrementBusinessTransactions(id string) error
	GetOnChainInfo(ctx context.Context, id string) (*model.OnChainBusiness, error)
}

type businessService struct {
	businessRepo repository.BusinessRepository
	chain        chain.Client
	cache        redis.Store
	events       EventPublisher
	cacheTTL     time.Duration
}

func NewBusinessService(
	businessRepo repository.BusinessRepository,
	chainClient chain.Client,
	cache redis.Store,
	events EventPublisher,
	cacheTTL time.Duration,
) BusinessService {
	return &businessService{
		businessRepo: businessRepo,
		chain:        chainClient,
		cache:        cache,
		events:       publisherOrNop(events),
		cacheTTL:     cacheTTL,
	}
}

// GetBusinessBadges derives display badges from business state.
func GetBusinessBadges(b *model.Business) []model.Badge {
	badges := []model.Badge{}
	if b.Verified {
		badges = append(badges, model.Badge{Label: "Base Verified", Kind: "verified"})
	}
	if b.TotalTransactions >= popularBadgeMin {
		badges = append(badges, model.Badge{Label: "Popular", Kind: "popular"})
	}
	return badges
}

func decorate(businesses []model.Business) {
	for i := range businesses {
		businesses[i].Badges = GetBusinessBadges(&businesses[i])
	}
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func categoryFilter(category string) string {
	category = strings.TrimSpace(category)
	if category == "all" {
		return ""
	}
	return category
}

func (s *businessService) ListBusinesses(opts BusinessListOptions) (*BusinessListResult, error) {
	page, pageSize := normalizePaging(opts.Page, opts.PageSize)
	filter := repository.BusinessFilter{
		Category: categoryFilter(opts.Category),
		Search:   opts.Search,
		Owner:    opts.Owner,
	}

	nearby := opts.Latitude != nil && opts.Longitude != nil
	if !nearby {
		filter.Offset = (page - 1) * pageSize
		filter.Limit = pageSize
	}

	businesses, total, err := s.businessRepo.FindAll(filter)
	if err != nil {
		logger.Error("Failed to list businesses", err)
		return nil, err
	}

	if nearby {
		businesses = s.filterNearby(businesses, *opts.Latitude, *opts.Longitude, opts.RadiusKm)
		total = int64(len(businesses))
		start := (page - 1) * pageSize
		if start > len(businesses) {
			start = len(businesses)
		}
		end := start + pageSize
		if end > len(businesses) {
			end = len(businesses)
		}
		businesses = businesses[start:end]
	}

	decorate(businesses)
	logger.Debug("Businesses listed", map[string]interface{}{
		"category": filter.Category,
		"search":   filter.Search,
		"count":    len(businesses),
		"total":    total,
	})
	return &BusinessListResult{
		Businesses: businesses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// filterNearby keeps businesses with usable coordinates inside radiusKm (any
// distance when radiusKm is 0) and sorts them nearest first.
func (s *businessService) filterNearby(in []model.Business, lat, lng, radiusKm float64) []model.Business {
	out := make([]model.Business, 0, len(in))
	for _, b := range in {
		if b.Latitude == 0 && b.Longitude == 0 {
			continue
		}
		d := util.DistanceKm(lat, lng, b.Latitude, b.Longitude)
		if radiusKm > 0 && d > radiusKm {
			continue
		}
		b.DistanceKm = &d
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].DistanceKm < *out[j].DistanceKm
	})
	return out
}

func (s *businessService) GetBusinesses(category string) ([]model.Business, error) {
	businesses, _, err := s.businessRepo.FindAll(repository.BusinessFilter{Category: categoryFilter(category)})
	if err != nil {
		return nil, err
	}
	decorate(businesses)
	return businesses, nil
}

func (s *businessService) SearchBusinesses(query string) ([]model.Business, error) {
	businesses, _, err := s.businessRepo.FindAll(repository.BusinessFilter{Search: query})
	if err != nil {
		return nil, err
	}
	decorate(businesses)
	return businesses, nil
}

func (s *businessService) GetBusinessByID(id string) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Business not found", map[string]interface{}{
				"business_id": id,
			})
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	business.Badges = GetBusinessBadges(business)
	return business, nil
}

func (s *businessService) GetMyBusinesses(owner string) ([]model.Business, error) {
	owner = chain.NormalizeAddress(owner)
	if owner == "" {
		return nil, ErrInvalidAddress
	}
	businesses, _, err := s.businessRepo.FindAll(repository.BusinessFilter{Owner: owner})
	if err != nil {
		return nil, err
	}
	decorate(businesses)
	return businesses, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidBusiness, fmt.Sprintf(format, args...))
}

func validateBusiness(b *model.Business) error {
	name := strings.TrimSpace(b.Name)
	if n := utf8.RuneCountInString(name); n < 3 || n > 50 {
		return invalid("name must be 3 to 50 characters")
	}
	if len(strings.TrimSpace(b.Address)) < 10 {
		return invalid("please enter a complete address")
	}
	if !b.Category.Valid() {
		return invalid("unknown category %q", b.Category)
	}
	if b.Email != "" && !util.IsValidEmail(b.Email) {
		return invalid("invalid email address")
	}
	if b.Website != "" && !util.IsValidWebsite(b.Website) {
		return invalid("invalid website URL")
	}
	if b.PhoneNumber != "" && !util.IsValidPhone(b.PhoneNumber) {
		return invalid("invalid phone number")
	}
	if (b.Latitude != 0 || b.Longitude != 0) && !util.ValidCoordinates(b.Latitude, b.Longitude) {
		return invalid("invalid coordinates")
	}
	for day, h := range b.Hours.Data() {
		if h.Closed {
			continue
		}
		if !util.IsValidClock(h.Open) || !util.IsValidClock(h.Close) {
			return invalid("invalid hours for %s", day)
		}
	}
	return nil
}

func (s *businessService) AddBusiness(ctx context.Context, owner string, req model.CreateBusinessRequest) (*model.Business, error) {
	owner = chain.NormalizeAddress(owner)
	if owner == "" {
		return nil, ErrInvalidAddress
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = util.GenerateBusinessID(req.Name)
	}
	exists, err := s.businessRepo.Exists(id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBusinessIDTaken
	}

	defaults, ok := categoryDefaults[req.Category]
	if !ok {
		defaults = categoryDefaults[model.CategoryServices]
	}

	business := &model.Business{
		ID:               id,
		Owner:            owner,
		Name:             strings.TrimSpace(req.Name),
		Description:      strings.TrimSpace(req.Description),
		Category:         req.Category,
		Address:          strings.TrimSpace(req.Address),
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		IsActive:         true,
		AcceptsBasePay:   true,
		AvatarURL:        req.AvatarURL,
		CoverURL:         req.CoverURL,
		PhoneNumber:      strings.TrimSpace(req.PhoneNumber),
		Website:          strings.TrimSpace(req.Website),
		Email:            strings.TrimSpace(req.Email),
		Photos:           util.UniqueStrings(req.Photos),
		Videos:           []string{},
		Specialties:      util.UniqueStrings(req.Specialties),
		PriceRange:       req.PriceRange,
		TotalReceivedWei: "0",
	}
	if req.AcceptsBasePay != nil {
		business.AcceptsBasePay = *req.AcceptsBasePay
	}
	if business.Description == "" {
		business.Description = defaults.Description
	}
	if business.PriceRange == "" {
		business.PriceRange = defaults.PriceRange
	}

	hours := req.Hours
	if len(hours) == 0 {
		open, close := req.OpenTime, req.CloseTime
		if open == "" {
			open = defaults.Open
		}
		if close == "" {
			close = defaults.Close
		}
		hours = model.UniformHours(open, close)
	}
	business.Hours = datatypes.NewJSONType(hours.Normalize())

	links := model.SocialLinks{}
	if req.SocialLinks != nil {
		links = *req.SocialLinks
	}
	business.SocialLinks = datatypes.NewJSONType(links)

	if err := validateBusiness(business); err != nil {
		return nil, err
	}

	s.registerOnChain(ctx, business)

	if err := s.businessRepo.Create(business); err != nil {
		return nil, err
	}
	business.Badges = GetBusinessBadges(business)

	logger.Info("Business registered", map[string]interface{}{
		"business_id": business.ID,
		"owner":       business.Owner,
		"on_chain":    business.OnChainRegistered,
	})
	s.events.Publish(TopicFeed, EventBusinessCreated, business)
	return business, nil
}

// registerOnChain relays registerBusiness when the client can sign. Failure is
// logged and the business is kept local; the sync job picks up a later
// wallet-signed registration.
func (s *businessService) registerOnChain(ctx context.Context, business *model.Business) {
	if s.chain == nil || !s.chain.CanRelay() {
		return
	}
	receipt, err := s.chain.RegisterBusiness(ctx, business.ID, business.Name)
	if err != nil {
		logger.Warn("On-chain registration failed, continuing with local record", map[string]interface{}{
			"business_id": business.ID,
			"error":       err.Error(),
		})
		return
	}
	business.RegistrationTxHash = receipt.TxHash
	business.OnChainRegistered = receipt.Status == chain.TxSuccess
}

func (s *businessService) loadOwned(owner, id string) (*model.Business, error) {
	business, err := s.GetBusinessByID(id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(business.Owner, owner) {
		logger.Warn("Business access denied", map[string]interface{}{
			"business_id": id,
			"owner":       business.Owner,
			"caller":      owner,
		})
		return nil, ErrNotBusinessOwner
	}
	return business, nil
}

func (s *businessService) UpdateBusiness(owner, id string, req model.UpdateBusinessRequest) (*model.Business, error) {
	business, err := s.loadOwned(owner, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		business.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		business.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		business.Category = *req.Category
	}
	if req.Address != nil {
		business.Address = strings.TrimSpace(*req.Address)
	}
	if req.Latitude != nil {
		business.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		business.Longitude = *req.Longitude
	}
	if req.PhoneNumber != nil {
		business.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Website != nil {
		business.Website = strings.TrimSpace(*req.Website)
	}
	if req.Email != nil {
		business.Email = strings.TrimSpace(*req.Email)
	}
	if req.AvatarURL != nil {
		business.AvatarURL = *req.AvatarURL
	}
	if req.CoverURL != nil {
		business.CoverURL = *req.CoverURL
	}
	if len(req.Hours) > 0 {
		business.Hours = datatypes.NewJSONType(req.Hours.Normalize())
	}
	if req.Photos != nil {
		business.Photos = util.UniqueStrings(req.Photos)
	}
	if req.Videos != nil {
		business.Videos = util.UniqueStrings(req.Videos)
	}
	if req.Specialties != nil {
		business.Specialties = util.UniqueStrings(req.Specialties)
	}
	if req.PriceRange != nil {
		business.PriceRange = *req.PriceRange
	}
	if req.ResponseTime != nil {
		business.ResponseTime = *req.ResponseTime
	}
	if req.EstablishedYear != nil {
		business.EstablishedYear = *req.EstablishedYear
	}
	if req.SocialLinks != nil {
		business.SocialLinks = datatypes.NewJSONType(*req.SocialLinks)
	}
	if req.AcceptsBasePay != nil {
		business.AcceptsBasePay = *req.AcceptsBasePay
	}

	if err := validateBusiness(business); err != nil {
		return nil, err
	}
	if err := s.businessRepo.Update(business); err != nil {
		return nil, err
	}
	business.Badges = GetBusinessBadges(business)

	s.events.Publish(BusinessTopic(id), EventBusinessUpdated, business)
	return business, nil
}

func (s *businessService) DeleteBusiness(owner, id string) error {
	if _, err := s.loadOwned(owner, id); err != nil {
		return err
	}
	if err := s.businessRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBusinessNotFound
		}
		return err
	}
	_ = s.cache.Delete(context.Background(), onChainCacheKey(id))

	logger.Info("Business deleted", map[string]interface{}{
		"business_id": id,
		"owner":       owner,
	})
	s.events.Publish(TopicFeed, EventBusinessDeleted, map[string]string{"business_id": id})
	return nil
}

// ToggleBusinessStatus flips IsActive. Registered businesses are toggled
// on-chain first when the server can relay; a chain failure leaves the local
// state unchanged.
func (s *businessService) ToggleBusinessStatus(ctx context.Context, owner, id string) (*model.Business, error) {
	business, err := s.loadOwned(owner, id)
	if err != nil {
		return nil, err
	}

	if business.OnChainRegistered && s.chain != nil && s.chain.CanRelay() {
		if _, err := s.chain.ToggleBusinessStatus(ctx, id); err != nil {
			logger.Error("Failed to toggle business status on-chain", err, map[string]interface{}{
				"business_id": id,
			})
			return nil, err
		}
		_ = s.cache.Delete(ctx, onChainCacheKey(id))
	}

	business.IsActive = !business.IsActive
	if err := s.businessRepo.SetActive(id, business.IsActive); err != nil {
		return nil, err
	}

	s.events.Publish(BusinessTopic(id), EventBusinessUpdated, business)
	return business, nil
}

func (s *businessService) IncrementBusinessTransactions(id string) error {
	if err := s.businessRepo.IncrementTransactions(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBusinessNotFound
		}
		return err
	}
	return nil
}

func onChainCacheKey(id string) string { return "chain:business:" + id }

// GetOnChainInfo serves the contract's view of a business from cache, reading
// through to the contract on a miss.
func (s *businessService) GetOnChainInfo(ctx context.Context, id string) (*model.OnChainBusiness, error) {
	if _, err := s.GetBusinessByID(id); err != nil {
		return nil, err
	}

	var cached model.OnChainBusiness
	if hit, err := s.cache.GetJSON(ctx, onChainCacheKey(id), &cached); err == nil && hit {
		return &cached, nil
	}

	view, err := fetchOnChainBusiness(ctx, s.chain, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, onChainCacheKey(id), view, s.cacheTTL); err != nil {
		logger.Warn("Failed to cache on-chain business", map[string]interface{}{
			"business_id": id,
			"error":       err.Error(),
		})
	}
	return view, nil
}

func fetchOnChainBusiness(ctx context.Context, client chain.Client, id string) (*model.OnChainBusiness, error) {
	if client == nil {
		return nil, chain.ErrDisabled
	}
	view := &model.OnChainBusiness{
		BusinessID:       id,
		TotalReceivedWei: "0",
		TotalReceived:    "0",
		Mode:             client.Mode(),
		FetchedAt:        time.Now(),
	}

	info, err := client.GetBusinessInfo(ctx, id)
	if errors.Is(err, chain.ErrBusinessNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	view.Registered = true
	view.Owner = info.Owner
	view.Name = info.Name
	view.IsActive = info.IsActive
	view.TransactionCount = info.TransactionCount
	if info.TotalReceived != nil {
		view.TotalReceivedWei = info.TotalReceived.String()
		view.TotalReceived = info.TotalReceivedEther()
	}
	return view, nil
}
