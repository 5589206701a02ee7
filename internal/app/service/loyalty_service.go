package service

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/internal/app/repository"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/logger"
	"github.com/localbase/localbase-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrRewardNotFound    = errors.New("reward not found")
	ErrRewardInactive    = errors.New("reward is not active")
	ErrRewardCoolingDown = errors.New("reward was used recently")
	ErrNotRewardHolder   = errors.New("only the reward holder can use it")
	ErrInvalidDiscount   = errors.New("discount must be between 1 and 100 percent")
)

const DefaultRewardCooldown = 24 * time.Hour

type LoyaltyService interface {
	GetUserRewards(address string) (*model.UserRewards, error)
	IssueReward(owner, businessID string, req model.IssueRewardRequest) (*model.LoyaltyReward, error)
	RedeemReward(holder, rewardID string, req model.RedeemRewardRequest) (*model.RewardRedemption, error)
	GetRewardStatus(rewardID string) (*model.RewardStatus, error)
}

type loyaltyService struct {
	loyaltyRepo  repository.LoyaltyRepository
	businessRepo repository.BusinessRepository
	events       EventPublisher
	cooldown     time.Duration
	now          func() time.Time
}

func NewLoyaltyService(
	loyaltyRepo repository.LoyaltyRepository,
	businessRepo repository.BusinessRepository,
	events EventPublisher,
	cooldown time.Duration,
) LoyaltyService {
	if cooldown <= 0 {
		cooldown = DefaultRewardCooldown
	}
	return &loyaltyService{
		loyaltyRepo:  loyaltyRepo,
		businessRepo: businessRepo,
		events:       publisherOrNop(events),
		cooldown:     cooldown,
		now:          time.Now,
	}
}

func (s *loyaltyService) GetUserRewards(address string) (*model.UserRewards, error) {
	holder := chain.NormalizeAddress(address)
	if holder == "" {
		return nil, ErrInvalidAddress
	}

	rewards, err := s.loyaltyRepo.FindByHolder(holder)
	if err != nil {
		return nil, err
	}
	redemptions, err := s.loyaltyRepo.Redemptions(holder)
	if err != nil {
		return nil, err
	}

	savings := new(big.Int)
	for _, r := range redemptions {
		if wei, err := chain.ParseWei(r.SavingsWei); err == nil {
			savings.Add(savings, wei)
		}
	}
	benefits := 0
	for _, r := range rewards {
		if r.IsActive {
			benefits += len(r.Benefits)
		}
	}

	return &model.UserRewards{
		Rewards: rewards,
		Stats: model.RewardStats{
			TotalRewards:    len(rewards),
			TotalSavingsWei: savings.String(),
			TotalSavings:    chain.FormatEther(savings),
			ActiveBenefits:  benefits,
		},
	}, nil
}

func (s *loyaltyService) IssueReward(owner, businessID string, req model.IssueRewardRequest) (*model.LoyaltyReward, error) {
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

	holder := chain.NormalizeAddress(req.HolderAddress)
	if holder == "" {
		return nil, ErrInvalidAddress
	}
	if req.DiscountPercentage < 1 || req.DiscountPercentage > 100 {
		return nil, ErrInvalidDiscount
	}

	tokenID, err := s.loyaltyRepo.NextTokenID(businessID)
	if err != nil {
		return nil, err
	}

	reward := &model.LoyaltyReward{
		BusinessID:         businessID,
		TokenID:            tokenID,
		HolderAddress:      holder,
		Tier:               req.Tier,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           true,
		ImageURL:           req.ImageURL,
		Description:        strings.TrimSpace(req.Description),
		Benefits:           util.UniqueStrings(req.Benefits),
	}
	if err := s.loyaltyRepo.Create(reward); err != nil {
		return nil, err
	}

	logger.Info("Loyalty reward issued", map[string]interface{}{
		"business_id": businessID,
		"reward_id":   reward.ID,
		"token_id":    tokenID,
		"holder":      holder,
	})
	s.events.Publish(AddressTopic(holder), EventRewardIssued, reward)
	return reward, nil
}

// Savings returns purchase * discount / 100 in wei.
func Savings(purchaseWei *big.Int, discountPercentage int) *big.Int {
	if purchaseWei == nil || purchaseWei.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(purchaseWei, big.NewInt(int64(discountPercentage)))
	return out.Quo(out, big.NewInt(100))
}

func (s *loyaltyService) RedeemReward(holder, rewardID string, req model.RedeemRewardRequest) (*model.RewardRedemption, error) {
	holder = chain.NormalizeAddress(holder)
	if holder == "" {
		return nil, ErrInvalidAddress
	}

	reward, err := s.loyaltyRepo.FindByID(rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	if !strings.EqualFold(reward.HolderAddress, holder) {
		return nil, ErrNotRewardHolder
	}
	if !reward.IsActive {
		return nil, ErrRewardInactive
	}

	purchase := big.NewInt(0)
	if strings.TrimSpace(req.PurchaseAmount) != "" {
		purchase, err = chain.ParseEther(req.PurchaseAmount)
		if err != nil {
			return nil, err
		}
	}
	savings := Savings(purchase, reward.DiscountPercentage)

	redemption := &model.RewardRedemption{
		RewardID:          reward.ID,
		HolderAddress:     holder,
		PurchaseAmountWei: purchase.String(),
		SavingsWei:        savings.String(),
	}
	now := s.now()
	if err := s.loyaltyRepo.Redeem(reward, redemption, now, now.Add(-s.cooldown)); err != nil {
		if errors.Is(err, repository.ErrRewardCoolingDown) {
			return nil, ErrRewardCoolingDown
		}
		return nil, err
	}
	redemption.Savings = chain.FormatEther(savings)

	logger.Info("Loyalty reward redeemed", map[string]interface{}{
		"reward_id": reward.ID,
		"holder":    holder,
		"savings":   redemption.Savings,
	})
	s.events.Publish(BusinessTopic(reward.BusinessID), EventRewardRedeemed, redemption)
	return redemption, nil
}

func (s *loyaltyService) GetRewardStatus(rewardID string) (*model.RewardStatus, error) {
	reward, err := s.loyaltyRepo.FindByID(rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}

	status := &model.RewardStatus{RewardID: reward.ID, CanUse: reward.IsActive}
	if reward.LastUsedAt == nil {
		return status, nil
	}
	next := reward.LastUsedAt.Add(s.cooldown)
	if wait := next.Sub(s.now()); wait > 0 {
		status.CanUse = false
		status.NextUseAt = &next
		status.SecondsToReuse = int64(wait.Seconds())
	}
	return status, nil
}
