package wizard

import (
	"context"
	"sync"
	"time"

	"dealdesk/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// draftTTL keeps abandoned drafts around long enough to resume after a
// weekend but not forever.
const draftTTL = 14 * 24 * time.Hour

// RedisDraftStore persists drafts in Redis. Missing keys read as empty.
type RedisDraftStore struct {
	client *redis.Client
}

func NewRedisDraftStore(client *redis.Client) *RedisDraftStore {
	return &RedisDraftStore{client: client}
}

func (s *RedisDraftStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *RedisDraftStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, draftTTL).Err()
}

func (s *RedisDraftStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryDraftStore backs drafts with a map when Redis is disabled and in
// tests.
type MemoryDraftStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{data: make(map[string]string)}
}

func (s *MemoryDraftStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *MemoryDraftStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// GormSubmissionStore persists the backing ExclusiveSubmission rows.
type GormSubmissionStore struct {
	DB *gorm.DB
}

func NewGormSubmissionStore(db *gorm.DB) *GormSubmissionStore {
	return &GormSubmissionStore{DB: db}
}

func (s *GormSubmissionStore) Create(ctx context.Context, division models.Division, userID uint, f *FormData) (uint, error) {
	sub := models.ExclusiveSubmission{
		UserID:          userID,
		Division:        division,
		PropertyAddress: f.PropertyAddress,
		OwnerName:       f.OwnerName,
		OwnerEmail:      f.OwnerEmail,
		OwnerPhone:      f.OwnerPhone,
		ListingData:     f.ListingData,
		AgreementURL:    f.AgreementURL,
		DocumentURLs:    f.DocumentURLs,
		Status:          models.SubmissionStatusDraft,
	}
	if err := s.DB.WithContext(ctx).Create(&sub).Error; err != nil {
		return 0, err
	}
	return sub.ID, nil
}

func (s *GormSubmissionStore) Update(ctx context.Context, id uint, f *FormData) error {
	return s.DB.WithContext(ctx).Model(&models.ExclusiveSubmission{}).
		Where("id = ?", id).
		Select("PropertyAddress", "OwnerName", "OwnerEmail", "OwnerPhone",
			"ListingData", "AgreementURL", "DocumentURLs").
		Updates(models.ExclusiveSubmission{
			PropertyAddress: f.PropertyAddress,
			OwnerName:       f.OwnerName,
			OwnerEmail:      f.OwnerEmail,
			OwnerPhone:      f.OwnerPhone,
			ListingData:     f.ListingData,
			AgreementURL:    f.AgreementURL,
			DocumentURLs:    f.DocumentURLs,
		}).Error
}

func (s *GormSubmissionStore) Transition(ctx context.Context, id uint, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == models.SubmissionStatusPendingReview {
		updates["submitted_at"] = time.Now()
	}
	return s.DB.WithContext(ctx).Model(&models.ExclusiveSubmission{}).
		Where("id = ?", id).
		Updates(updates).Error
}
