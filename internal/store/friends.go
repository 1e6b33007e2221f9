package store

import (
	"encoding/json"
	"errors"
	"sync"

	rows "line-gateway/internal/models"
	"line-gateway/pkg/models"

	"gorm.io/gorm"
)

var ErrFriendNotFound = errors.New("friend not found")

// FriendStore manages friend profiles of the official account
type FriendStore interface {
	Get(id string) (*models.UserProfile, error)
	Upsert(profile *models.UserProfile) error
	List() ([]*models.UserProfile, error)
	Delete(id string) error
}

// GormFriendStore persists friends with tags/groups as JSON-text columns
type GormFriendStore struct {
	db *gorm.DB
}

func NewGormFriendStore(db *gorm.DB) *GormFriendStore {
	return &GormFriendStore{db: db}
}

func (s *GormFriendStore) Get(id string) (*models.UserProfile, error) {
	var row rows.FriendRow
	if err := s.db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendNotFound
		}
		return nil, err
	}
	return friendFromRow(row), nil
}

func (s *GormFriendStore) Upsert(profile *models.UserProfile) error {
	row, err := friendToRow(profile)
	if err != nil {
		return err
	}
	return s.db.Save(&row).Error
}

func (s *GormFriendStore) List() ([]*models.UserProfile, error) {
	var rowList []rows.FriendRow
	if err := s.db.Order("created_at DESC").Find(&rowList).Error; err != nil {
		return nil, err
	}
	out := make([]*models.UserProfile, 0, len(rowList))
	for _, row := range rowList {
		out = append(out, friendFromRow(row))
	}
	return out, nil
}

func (s *GormFriendStore) Delete(id string) error {
	result := s.db.Where("id = ?", id).Delete(&rows.FriendRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFriendNotFound
	}
	return nil
}

func friendToRow(profile *models.UserProfile) (rows.FriendRow, error) {
	tags, err := json.Marshal(profile.Tags)
	if err != nil {
		return rows.FriendRow{}, err
	}
	groups, err := json.Marshal(profile.Groups)
	if err != nil {
		return rows.FriendRow{}, err
	}
	return rows.FriendRow{
		ID:     profile.ID,
		Name:   profile.Name,
		Tags:   string(tags),
		Groups: string(groups),
	}, nil
}

func friendFromRow(row rows.FriendRow) *models.UserProfile {
	profile := &models.UserProfile{ID: row.ID, Name: row.Name}
	// Malformed tag/group payloads degrade to an empty set
	if row.Tags != "" {
		_ = json.Unmarshal([]byte(row.Tags), &profile.Tags)
	}
	if row.Groups != "" {
		_ = json.Unmarshal([]byte(row.Groups), &profile.Groups)
	}
	return profile
}

// MemoryFriendStore backs demo mode and tests
type MemoryFriendStore struct {
	mu      sync.Mutex
	friends map[string]*models.UserProfile
}

func NewMemoryFriendStore() *MemoryFriendStore {
	return &MemoryFriendStore{friends: map[string]*models.UserProfile{}}
}

func (s *MemoryFriendStore) Get(id string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.friends[id]
	if !ok {
		return nil, ErrFriendNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryFriendStore) Upsert(profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *profile
	s.friends[profile.ID] = &cp
	return nil
}

func (s *MemoryFriendStore) List() ([]*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.UserProfile, 0, len(s.friends))
	for _, p := range s.friends {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryFriendStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friends[id]; !ok {
		return ErrFriendNotFound
	}
	delete(s.friends, id)
	return nil
}
