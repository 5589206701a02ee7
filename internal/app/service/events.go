package service

import "strings"

// Realtime event types.
const (
	EventBusinessCreated  = "business.created"
	EventBusinessUpdated  = "business.updated"
	EventBusinessDeleted  = "business.deleted"
	EventReviewAdded      = "review.added"
	EventPostCreated      = "post.created"
	EventPostLiked        = "post.liked"
	EventCommentAdded     = "comment.added"
	EventPaymentPending   = "payment.pending"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventRewardIssued     = "reward.issued"
	EventRewardRedeemed   = "reward.redeemed"

	EventWithdrawalCompleted = "withdrawal.completed"
)

// TopicFeed carries community and directory-wide events.
const TopicFeed = "feed"

func BusinessTopic(businessID string) string { return "business:" + businessID }

func AddressTopic(address string) string { return "address:" + strings.ToLower(address) }

// EventPublisher fans events out to realtime subscribers. Publish must not
// block on slow consumers.
type EventPublisher interface {
	Publish(topic, eventType string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// TopicAllowed reports whether a connection signed in as address (or a guest
// when address is empty) may subscribe to topic. Wallet topics are private.
func TopicAllowed(topic, address string) bool {
	switch {
	case topic == TopicFeed:
		return true
	case strings.HasPrefix(topic, "business:"):
		return len(topic) > len("business:")
	case strings.HasPrefix(topic, "address:"):
		return address != "" && topic == AddressTopic(address)
	}
	return false
}
