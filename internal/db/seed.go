package db

import (
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"gorm.io/datatypes"
)

// Placeholder owners for the demo directory. No key controls them.
const (
	seedOwnerCafe   = "0x0000000000000000000000000000000000000123"
	seedOwnerTech   = "0x0000000000000000000000000000000000000456"
	seedOwnerSpa    = "0x0000000000000000000000000000000000000789"
	seedOwnerEvents = "0x0000000000000000000000000000000000000def"
	seedOwnerABC    = "0x0000000000000000000000000000000000000abc"
	seedOwner999    = "0x0000000000000000000000000000000000000999"
)

func weekHours(weekday, saturday, sunday model.DayHours) model.BusinessHours {
	hours := model.BusinessHours{}
	for _, day := range model.Weekdays[:5] {
		hours[day] = weekday
	}
	hours["saturday"] = saturday
	hours["sunday"] = sunday
	return hours
}

// DefaultBusinesses is the demo directory shown on a fresh install.
func DefaultBusinesses() []model.Business {
	mk := func(b model.Business, hours model.BusinessHours, score int) model.Business {
		b.IsActive = true
		b.AcceptsBasePay = true
		b.Hours = datatypes.NewJSONType(hours)
		b.SocialLinks = datatypes.NewJSONType(model.SocialLinks{})
		b.ReputationScore = score
		b.AverageRating = float64(score) / 20
		b.TotalReceivedWei = "0"
		b.Photos = []string{}
		b.Videos = []string{}
		b.Specialties = []string{}
		return b
	}

	return []model.Business{
		mk(model.Business{
			ID:                "localcafe-ntu",
			Owner:             seedOwnerCafe,
			Name:              "LocalCafe NTU",
			Description:       "Best coffee and study spot near campus",
			Category:          model.CategoryFood,
			Address:           "50 Nanyang Ave, Singapore",
			Latitude:          1.3483,
			Longitude:         103.6831,
			AvatarURL:         "☕",
			PriceRange:        "$$",
			TotalTransactions: 89,
		}, weekHours(
			model.DayHours{Open: "07:00", Close: "22:00"},
			model.DayHours{Open: "08:00", Close: "23:00"},
			model.DayHours{Open: "08:00", Close: "21:00"},
		), 98),
		mk(model.Business{
			ID:                "techmart-base",
			Owner:             seedOwnerTech,
			Name:              "TechMart Base",
			Description:       "Electronics and crypto hardware",
			Category:          model.CategoryShopping,
			Address:           "21 Heng Mui Keng Terrace, Singapore",
			Latitude:          1.2966,
			Longitude:         103.7764,
			AvatarURL:         "📱",
			PriceRange:        "$$",
			TotalTransactions: 234,
		}, weekHours(
			model.DayHours{Open: "10:00", Close: "20:00"},
			model.DayHours{Open: "10:00", Close: "21:00"},
			model.DayHours{Open: "11:00", Close: "19:00"},
		), 96),
		mk(model.Business{
			ID:                "wellness-spa-chain",
			Owner:             seedOwnerSpa,
			Name:              "Wellness Spa Chain",
			Description:       "Relaxation services with crypto payments",
			Category:          model.CategoryHealth,
			Address:           "1 Marina Bay Sands, Singapore",
			Latitude:          1.2834,
			Longitude:         103.8607,
			AvatarURL:         "🧘",
			PriceRange:        "$$$",
			TotalTransactions: 156,
		}, weekHours(
			model.DayHours{Open: "09:00", Close: "21:00"},
			model.DayHours{Open: "09:00", Close: "22:00"},
			model.DayHours{Open: "10:00", Close: "20:00"},
		), 94),
		mk(model.Business{
			ID:                "marina-bay-event-space",
			Owner:             seedOwnerEvents,
			Name:              "Marina Bay Event Space",
			Description:       "Premium venue for meetups and crypto events",
			Category:          model.CategoryFun,
			Address:           "2 Marina Bay Dr, Singapore",
			Latitude:          1.2838,
			Longitude:         103.8612,
			AvatarURL:         "🎪",
			PriceRange:        "$$",
			TotalTransactions: 67,
		}, model.BusinessHours{
			"monday":    {Open: "10:00", Close: "23:00"},
			"tuesday":   {Open: "10:00", Close: "23:00"},
			"wednesday": {Open: "10:00", Close: "23:00"},
			"thursday":  {Open: "10:00", Close: "23:00"},
			"friday":    {Open: "10:00", Close: "02:00"},
			"saturday":  {Open: "10:00", Close: "02:00"},
			"sunday":    {Open: "10:00", Close: "23:00"},
		}, 99),
	}
}

// DefaultPosts is the demo community feed, staggered half an hour to five
// hours in the past.
func DefaultPosts() []model.CommunityPost {
	now := time.Now()
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	str := func(s string) *string { return &s }

	return []model.CommunityPost{
		{
			AuthorAddress: seedOwnerCafe,
			AuthorName:    "CryptoFoodie",
			Content:       "Just had an amazing coffee at LocalCafe NTU! ☕ Paid with Base and got instant loyalty points. The future of payments is here! 🚀 #BasePay #LocalBase",
			BusinessID:    str("localcafe-ntu"),
			BusinessName:  "LocalCafe NTU",
			Likes:         12,
			Comments:      3,
			Tags:          []string{"coffee", "basepay", "ntu"},
			CreatedAt:     ago(30 * time.Minute),
		},
		{
			AuthorAddress: seedOwnerTech,
			AuthorName:    "TechStudent",
			Content:       "TechRepair Hub fixed my laptop screen in 2 hours and accepted USDC payment! 💻 No more cash or card hassles. Supporting local businesses with crypto feels great! 💪",
			BusinessID:    str("techmart-base"),
			BusinessName:  "TechMart Base",
			Likes:         8,
			Comments:      2,
			Tags:          []string{"tech", "repair", "usdc"},
			CreatedAt:     ago(time.Hour),
		},
		{
			AuthorAddress: seedOwnerSpa,
			AuthorName:    "CryptoMeetup",
			Content:       "🎪 Weekly LocalBase Meetup this Friday 7PM at Marina Bay! Join fellow crypto enthusiasts for networking and demo sessions. Free pizza and drinks sponsored by Base! 🍕🥤 #local #event #meetup",
			Likes:         24,
			Comments:      8,
			Tags:          []string{"local", "event", "meetup", "friday"},
			CreatedAt:     ago(2 * time.Hour),
		},
		{
			AuthorAddress: seedOwnerABC,
			AuthorName:    "EventOrganizer",
			Content:       "🎨 Local Art & Crypto Exhibition opening next week at Clarke Quay! Featuring NFT artists and blockchain demos. Entry free with any Base transaction. Come support local creativity! #local #event #art #nft",
			Likes:         15,
			Comments:      6,
			Tags:          []string{"local", "event", "art", "exhibition"},
			CreatedAt:     ago(3 * time.Hour),
		},
		{
			AuthorAddress: seedOwnerEvents,
			AuthorName:    "LocalFoodie",
			Content:       "🍜 Night Market at Chinatown this weekend! Many vendors now accept Base payments. Let's show support for local merchants embracing crypto! Who's joining? #local #event #food #weekend",
			Likes:         18,
			Comments:      12,
			Tags:          []string{"local", "event", "food", "market"},
			CreatedAt:     ago(4 * time.Hour),
		},
		{
			AuthorAddress: seedOwner999,
			AuthorName:    "CommunityBuilder",
			Content:       "📅 Monthly LocalBase Community Cleanup at East Coast Park tomorrow 9AM! Volunteers get Base tokens as thank you. Let's keep our local community beautiful! 🌟 #local #event #community #volunteer",
			Likes:         31,
			Comments:      15,
			Tags:          []string{"local", "event", "community", "cleanup"},
			CreatedAt:     ago(5 * time.Hour),
		},
	}
}
