package service

import (
	"context"
	"sync"
	"testing"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/internal/db"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/redis"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ownerWallet = "0x00000000000000000000000000000000000000aa"
	buyerWallet = "0x00000000000000000000000000000000000000bb"
	otherWallet = "0x00000000000000000000000000000000000000cc"
)

type publishedEvent struct {
	Topic   string
	Type    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(topic, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	chain    *chain.MockClient
	cache    *redis.MemoryStore
	events   *recordingPublisher
	business repository.BusinessRepository
	reviews  repository.ReviewRepository
	posts    repository.CommunityRepository
	txns     repository.TransactionRepository
	loyalty  repository.LoyaltyRepository
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return &testEnv{
		db:       testDB,
		chain:    chain.NewMockClient(chain.Options{}),
		cache:    redis.NewMemoryStore(),
		events:   &recordingPublisher{},
		business: repository.NewBusinessRepository(testDB),
		reviews:  repository.NewReviewRepository(testDB),
		posts:    repository.NewCommunityRepository(testDB),
		txns:     repository.NewTransactionRepository(testDB),
		loyalty:  repository.NewLoyaltyRepository(testDB),
	}
}

func validBusinessRequest(name string, category model.Category) model.CreateBusinessRequest {
	return model.CreateBusinessRequest{
		Name:     name,
		Category: category,
		Address:  "21 Nanyang Link, Singapore 637371",
	}
}

func (e *testEnv) businessService() BusinessService {
	return NewBusinessService(e.business, e.chain, e.cache, e.events, 0)
}

func (e *testEnv) addBusiness(t *testing.T, id, name string, category model.Category) *model.Business {
	t.Helper()
	req := validBusinessRequest(name, category)
	req.ID = id
	b, err := e.businessService().AddBusiness(context.Background(), ownerWallet, req)
	require.NoError(t, err)
	return b
}
