package legacy

import (
	"strconv"
	"strings"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/util"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
)

// Browser storage keys written by the single-page app.
const (
	BusinessesKey     = "localbase_businesses"
	PostsKey          = "localbase_posts"
	ReviewsKey        = "localbase_reviews"
	likesPrefix       = "likes_"
	commentsPrefix    = "comments_"
	usedRewardsPrefix = "used_rewards_"
	userLikesPrefix   = "user_likes_"
)

// UsedReward records when a wallet last used a reward token in the browser.
type UsedReward struct {
	Address string
	TokenID uint64
	UsedAt  time.Time
}

// Dump is the parsed content of a browser storage export.
type Dump struct {
	Businesses  []model.Business
	Posts       []model.CommunityPost
	Reviews     []model.Review
	Comments    []model.PostComment
	Likes       []model.PostLike
	LikeCounts  map[string]int64
	UsedRewards []UsedReward
	Warnings    []string
}

func (d *Dump) warn(key, reason string) {
	d.Warnings = append(d.Warnings, key+": "+reason)
	logger.Warn("Skipping corrupt legacy collection", map[string]interface{}{
		"key":    key,
		"reason": reason,
	})
}

// collection returns the value stored under a key. Browser storage holds
// strings, so a string value is parsed once more.
func collection(v gjson.Result) gjson.Result {
	if v.Type == gjson.String {
		if !gjson.Valid(v.Str) {
			return gjson.Result{}
		}
		return gjson.Parse(v.Str)
	}
	return v
}

// Parse reads a storage export: a JSON object of storage key to value.
// Anything unreadable degrades to an empty collection and a warning.
func Parse(data []byte) *Dump {
	dump := &Dump{LikeCounts: make(map[string]int64)}
	if !gjson.ValidBytes(data) {
		dump.warn("document", "not valid JSON")
		return dump
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		dump.warn("document", "expected an object of storage keys")
		return dump
	}

	likedBy := make(map[string]map[string]bool)
	addLike := func(postID, address string) {
		addr := chain.NormalizeAddress(address)
		if postID == "" || addr == "" {
			return
		}
		if likedBy[postID] == nil {
			likedBy[postID] = make(map[string]bool)
		}
		likedBy[postID][addr] = true
	}

	root.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		value := collection(v)

		switch {
		case key == BusinessesKey:
			dump.Businesses = parseBusinesses(dump, key, value)
		case key == PostsKey:
			dump.Posts = parsePosts(dump, key, value)
		case key == ReviewsKey:
			dump.Reviews = parseReviews(dump, key, value)

		case strings.HasPrefix(key, likesPrefix):
			postID := strings.TrimPrefix(key, likesPrefix)
			switch {
			case value.Type == gjson.Number:
				dump.LikeCounts[postID] = value.Int()
			case value.IsObject():
				dump.LikeCounts[postID] = value.Get("count").Int()
				for _, user := range value.Get("users").Array() {
					addLike(postID, user.String())
				}
			default:
				dump.warn(key, "unrecognized like format")
			}

		case strings.HasPrefix(key, commentsPrefix):
			postID := strings.TrimPrefix(key, commentsPrefix)
			if !value.IsArray() {
				dump.warn(key, "expected an array")
				return true
			}
			for _, c := range value.Array() {
				content := strings.TrimSpace(c.Get("content").String())
				if content == "" {
					continue
				}
				dump.Comments = append(dump.Comments, model.PostComment{
					PostID:        postID,
					AuthorAddress: chain.NormalizeAddress(c.Get("author").String()),
					AuthorName:    truncate(c.Get("author").String(), 50),
					Content:       content,
					CreatedAt:     millis(c.Get("timestamp")),
				})
			}

		case strings.HasPrefix(key, userLikesPrefix):
			address := strings.TrimPrefix(key, userLikesPrefix)
			if !value.IsArray() {
				dump.warn(key, "expected an array")
				return true
			}
			for _, id := range value.Array() {
				addLike(id.String(), address)
			}

		case strings.HasPrefix(key, usedRewardsPrefix):
			address := chain.NormalizeAddress(strings.TrimPrefix(key, usedRewardsPrefix))
			if address == "" || !value.IsObject() {
				dump.warn(key, "expected token timestamps for a wallet")
				return true
			}
			value.ForEach(func(token, at gjson.Result) bool {
				id, err := strconv.ParseUint(token.String(), 10, 64)
				if err != nil {
					return true
				}
				dump.UsedRewards = append(dump.UsedRewards, UsedReward{
					Address: address,
					TokenID: id,
					UsedAt:  millis(at),
				})
				return true
			})
		}
		return true
	})

	for postID, users := range likedBy {
		for addr := range users {
			dump.Likes = append(dump.Likes, model.PostLike{PostID: postID, UserAddress: addr})
		}
	}
	return dump
}

func parseBusinesses(dump *Dump, key string, value gjson.Result) []model.Business {
	if !value.IsArray() {
		dump.warn(key, "expected an array")
		return []model.Business{}
	}

	out := []model.Business{}
	for _, b := range value.Array() {
		id := b.Get("id").String()
		name := b.Get("name").String()
		if id == "" || name == "" {
			continue
		}
		category := model.Category(b.Get("category").String())
		if !category.Valid() {
			category = model.CategoryServices
		}

		hours := model.BusinessHours{}
		b.Get("hours").ForEach(func(day, h gjson.Result) bool {
			hours[strings.ToLower(day.String())] = model.DayHours{
				Open:   h.Get("open").String(),
				Close:  h.Get("close").String(),
				Closed: h.Get("closed").Bool(),
			}
			return true
		})

		business := model.Business{
			ID:                id,
			CreatedAt:         time.Now(),
			Owner:             ownerAddress(b.Get("owner").String()),
			Name:              truncate(name, 50),
			Description:       b.Get("description").String(),
			Category:          category,
			Address:           b.Get("address").String(),
			Latitude:          b.Get("latitude").Float(),
			Longitude:         b.Get("longitude").Float(),
			IsActive:          boolOr(b.Get("isActive"), true),
			AcceptsBasePay:    boolOr(b.Get("acceptsBasePay"), true),
			AvatarURL:         b.Get("avatarUrl").String(),
			CoverURL:          b.Get("coverUrl").String(),
			PhoneNumber:       b.Get("phoneNumber").String(),
			Website:           b.Get("website").String(),
			Email:             b.Get("email").String(),
			Hours:             datatypes.NewJSONType(hours.Normalize()),
			Photos:            stringList(b.Get("photos")),
			Videos:            stringList(b.Get("videos")),
			Specialties:       stringList(b.Get("specialties")),
			PriceRange:        b.Get("priceRange").String(),
			Verified:          b.Get("verified").Bool(),
			ResponseTime:      b.Get("responseTime").String(),
			EstablishedYear:   int(b.Get("establishedYear").Int()),
			TotalTransactions: b.Get("totalTransactions").Int(),
			AverageRating:     b.Get("averageRating").Float(),
			TotalReviews:      b.Get("totalReviews").Int(),
			ReputationScore:   int(b.Get("reputationScore").Int()),
			TotalReceivedWei:  "0",
			SocialLinks: datatypes.NewJSONType(model.SocialLinks{
				Twitter:   b.Get("socialLinks.twitter").String(),
				Instagram: b.Get("socialLinks.instagram").String(),
				Facebook:  b.Get("socialLinks.facebook").String(),
			}),
		}
		if v := b.Get("verificationDate"); v.Exists() {
			at := millis(v)
			business.VerificationDate = &at
		}
		out = append(out, business)
	}
	return out
}

func parsePosts(dump *Dump, key string, value gjson.Result) []model.CommunityPost {
	if !value.IsArray() {
		dump.warn(key, "expected an array")
		return []model.CommunityPost{}
	}

	out := []model.CommunityPost{}
	for _, p := range value.Array() {
		id := p.Get("id").String()
		content := p.Get("content").String()
		if id == "" || strings.TrimSpace(content) == "" {
			continue
		}
		post := model.CommunityPost{
			ID:            id,
			CreatedAt:     millis(p.Get("timestamp")),
			AuthorAddress: ownerAddress(p.Get("authorAddress").String()),
			AuthorName:    truncate(p.Get("authorName").String(), 50),
			Content:       content,
			Images:        stringList(p.Get("images")),
			Tags:          util.UniqueStrings(lower(stringList(p.Get("tags")))),
			Likes:         p.Get("likes").Int(),
			Comments:      p.Get("comments").Int(),
		}
		if businessID := p.Get("businessId").String(); businessID != "" {
			post.BusinessID = &businessID
		}
		out = append(out, post)
	}
	return out
}

func parseReviews(dump *Dump, key string, value gjson.Result) []model.Review {
	if !value.IsArray() {
		dump.warn(key, "expected an array")
		return []model.Review{}
	}

	out := []model.Review{}
	for _, r := range value.Array() {
		rating := int(r.Get("rating").Int())
		id := r.Get("id").String()
		businessID := r.Get("businessId").String()
		if id == "" || businessID == "" || rating < 1 || rating > 5 {
			continue
		}
		address := ownerAddress(r.Get("userAddress").String())
		name := r.Get("userName").String()
		if name == "" {
			name = util.ShortAddress(address)
		}
		out = append(out, model.Review{
			ID:              id,
			CreatedAt:       millis(r.Get("timestamp")),
			BusinessID:      businessID,
			UserAddress:     address,
			UserName:        truncate(name, 50),
			UserAvatar:      r.Get("userAvatar").String(),
			Rating:          rating,
			Comment:         r.Get("comment").String(),
			Photos:          stringList(r.Get("photos")),
			TransactionHash: r.Get("transactionHash").String(),
			Verified:        r.Get("verified").Bool(),
			Helpful:         r.Get("helpful").Int(),
		})
	}
	return out
}

// ownerAddress keeps demo placeholders such as "0x123..." readable while
// normalizing real addresses.
func ownerAddress(s string) string {
	if addr := chain.NormalizeAddress(s); addr != "" {
		return addr
	}
	return truncate(strings.ToLower(strings.TrimSpace(s)), 42)
}

func millis(v gjson.Result) time.Time {
	if !v.Exists() || v.Int() <= 0 {
		return time.Now()
	}
	return time.UnixMilli(v.Int())
}

func boolOr(v gjson.Result, fallback bool) bool {
	if !v.Exists() {
		return fallback
	}
	return v.Bool()
}

func stringList(v gjson.Result) []string {
	out := []string{}
	for _, s := range v.Array() {
		if str := s.String(); str != "" {
			out = append(out, str)
		}
	}
	return out
}

func lower(in []string) []string {
	for i, s := range in {
		in[i] = strings.ToLower(s)
	}
	return in
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
