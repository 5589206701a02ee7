package model

import (
	"time"

	"gorm.io/datatypes"
)

// Category is the fixed business category set.
type Category string

const (
	CategoryFood     Category = "food"
	CategoryShopping Category = "shopping"
	CategoryServices Category = "services"
	CategoryFun      Category = "fun"
	CategoryHealth   Category = "health"
	CategoryBeauty   Category = "beauty"
)

var Categories = []Category{
	CategoryFood, CategoryShopping, CategoryServices,
	CategoryFun, CategoryHealth, CategoryBeauty,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Weekdays in display order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// BusinessHours maps a lower-case weekday to its opening hours.
type BusinessHours map[string]DayHours

// UniformHours returns the same hours for all seven days.
func UniformHours(open, close string) BusinessHours {
	hours := make(BusinessHours, len(Weekdays))
	for _, day := range Weekdays {
		hours[day] = DayHours{Open: open, Close: close}
	}
	return hours
}

// Normalize fills missing days with 09:00-18:00.
func (h BusinessHours) Normalize() BusinessHours {
	out := make(BusinessHours, len(Weekdays))
	for _, day := range Weekdays {
		if v, ok := h[day]; ok {
			out[day] = v
			continue
		}
		out[day] = DayHours{Open: "09:00", Close: "18:00"}
	}
	return out
}

type SocialLinks struct {
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Farcaster string `json:"farcaster,omitempty"`
}

// Business is a registered merchant. ID doubles as the on-chain businessId.
type Business struct {
	ID        string    `gorm:"primaryKey;type:varchar(80)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner       string   `gorm:"type:varchar(42);not null;index" json:"owner"`
	Name        string   `gorm:"type:varchar(50);not null" json:"name"`
	Description string   `gorm:"type:text" json:"description"`
	Category    Category `gorm:"type:varchar(20);not null;index" json:"category"`
	Address     string   `gorm:"type:varchar(255);not null" json:"address"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`

	IsActive       bool `gorm:"not null" json:"is_active"`
	AcceptsBasePay bool `gorm:"not null" json:"accepts_base_pay"`

	AvatarURL   string `gorm:"type:text" json:"avatar_url,omitempty"`
	CoverURL    string `gorm:"type:text" json:"cover_url,omitempty"`
	PhoneNumber string `gorm:"type:varchar(30)" json:"phone_number,omitempty"`
	Website     string `gorm:"type:varchar(255)" json:"website,omitempty"`
	Email       string `gorm:"type:varchar(255)" json:"email,omitempty"`

	Hours       datatypes.JSONType[BusinessHours] `json:"hours"`
	Photos      []string                          `gorm:"serializer:json" json:"photos"`
	Videos      []string                          `gorm:"serializer:json" json:"videos"`
	Specialties []string                          `gorm:"serializer:json" json:"specialties"`
	SocialLinks datatypes.JSONType[SocialLinks]   `json:"social_links"`

	PriceRange       string     `gorm:"type:varchar(4)" json:"price_range,omitempty"`
	Verified         bool       `json:"verified"`
	VerificationDate *time.Time `json:"verification_date,omitempty"`
	ResponseTime     string     `gorm:"type:varchar(50)" json:"response_time,omitempty"`
	EstablishedYear  int        `json:"established_year,omitempty"`

	// Aggregates maintained by the review and payment services.
	TotalTransactions int64   `gorm:"not null;default:0" json:"total_transactions"`
	AverageRating     float64 `gorm:"not null;default:0" json:"average_rating"`
	TotalReviews      int64   `gorm:"not null;default:0" json:"total_reviews"`
	ReputationScore   int     `gorm:"not null;default:0" json:"reputation_score"`

	// On-chain projection, refreshed by the chain sync job.
	OnChainRegistered  bool       `json:"on_chain_registered"`
	RegistrationTxHash string     `gorm:"type:varchar(66)" json:"registration_tx_hash,omitempty"`
	TotalReceivedWei   string     `gorm:"type:varchar(78);default:'0'" json:"total_received_wei"`
	OnChainTxCount     int64      `gorm:"default:0" json:"on_chain_tx_count"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`

	// Filled per response.
	Badges     []Badge  `gorm:"-" json:"badges,omitempty"`
	DistanceKm *float64 `gorm:"-" json:"distance_km,omitempty"`
}

func (Business) TableName() string {
	return "businesses"
}

// CreateBusinessRequest is the registration payload.
type CreateBusinessRequest struct {
	ID             string        `json:"id" binding:"omitempty,max=80,business_id"`
	Name           string        `json:"name" binding:"required,min=3,max=50"`
	Description    string        `json:"description" binding:"max=2000"`
	Category       Category      `json:"category" binding:"required,category"`
	Address        string        `json:"address" binding:"required,min=10,max=255"`
	Latitude       float64       `json:"latitude" binding:"omitempty,latitude"`
	Longitude      float64       `json:"longitude" binding:"omitempty,longitude"`
	PhoneNumber    string        `json:"phone_number" binding:"omitempty,phone"`
	Website        string        `json:"website" binding:"omitempty,website"`
	Email          string        `json:"email" binding:"omitempty,email"`
	AvatarURL      string        `json:"avatar_url" binding:"omitempty,image_url"`
	CoverURL       string        `json:"cover_url" binding:"omitempty,image_url"`
	OpenTime       string        `json:"open_time" binding:"omitempty,clock"`
	CloseTime      string        `json:"close_time" binding:"omitempty,clock"`
	Hours          BusinessHours `json:"hours"`
	Photos         []string      `json:"photos" binding:"omitempty,max=20,dive,image_url"`
	Specialties    []string      `json:"specialties" binding:"omitempty,max=20"`
	PriceRange     string        `json:"price_range" binding:"omitempty,oneof=$ $$ $$$ $$$$"`
	SocialLinks    *SocialLinks  `json:"social_links"`
	AcceptsBasePay *bool         `json:"accepts_base_pay"`
}

// UpdateBusinessRequest carries a partial update; nil fields are untouched.
type UpdateBusinessRequest struct {
	Name            *string       `json:"name" binding:"omitempty,min=3,max=50"`
	Description     *string       `json:"description" binding:"omitempty,max=2000"`
	Category        *Category     `json:"category" binding:"omitempty,category"`
	Address         *string       `json:"address" binding:"omitempty,min=10,max=255"`
	Latitude        *float64      `json:"latitude" binding:"omitempty,latitude"`
	Longitude       *float64      `json:"longitude" binding:"omitempty,longitude"`
	PhoneNumber     *string       `json:"phone_number" binding:"omitempty,phone"`
	Website         *string       `json:"website" binding:"omitempty,website"`
	Email           *string       `json:"email" binding:"omitempty,email"`
	AvatarURL       *string       `json:"avatar_url" binding:"omitempty,image_url"`
	CoverURL        *string       `json:"cover_url" binding:"omitempty,image_url"`
	Hours           BusinessHours `json:"hours"`
	Photos          []string      `json:"photos" binding:"omitempty,max=20,dive,image_url"`
	Videos          []string      `json:"videos" binding:"omitempty,max=10"`
	Specialties     []string      `json:"specialties" binding:"omitempty,max=20"`
	PriceRange      *string       `json:"price_range" binding:"omitempty,oneof=$ $$ $$$ $$$$"`
	ResponseTime    *string       `json:"response_time" binding:"omitempty,max=50"`
	EstablishedYear *int          `json:"established_year" binding:"omitempty,min=1800,max=2100"`
	SocialLinks     *SocialLinks  `json:"social_links"`
	AcceptsBasePay  *bool         `json:"accepts_base_pay"`
}

// BusinessListQuery filters the directory listing.
type BusinessListQuery struct {
	Category  string   `form:"category"`
	Search    string   `form:"search"`
	Owner     string   `form:"-"`
	Latitude  *float64 `form:"lat" binding:"omitempty,latitude"`
	Longitude *float64 `form:"lng" binding:"omitempty,longitude"`
	RadiusKm  float64  `form:"radius_km" binding:"omitempty,gt=0,lte=500"`
	Page      int      `form:"page" binding:"omitempty,min=1"`
	PageSize  int      `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Badge is a display label derived from business state.
type Badge struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
}
