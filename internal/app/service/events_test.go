package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicAllowed(t *testing.T) {
	const wallet = "0x00000000000000000000000000000000000000aa"

	tests := []struct {
		name    string
		topic   string
		address string
		want    bool
	}{
		{name: "feed for guests", topic: TopicFeed, want: true},
		{name: "business topic", topic: BusinessTopic("cafe-1"), want: true},
		{name: "empty business id", topic: "business:", want: false},
		{name: "own wallet", topic: AddressTopic(wallet), address: wallet, want: true},
		{name: "other wallet", topic: AddressTopic("0x00000000000000000000000000000000000000bb"), address: wallet, want: false},
		{name: "wallet topic as guest", topic: AddressTopic(wallet), want: false},
		{name: "unknown topic", topic: "admin", address: wallet, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopicAllowed(tt.topic, tt.address))
		})
	}
}
