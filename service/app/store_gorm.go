package app

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProxyState{}, &Mint{})
}

func (s *GormStore) LoadState(key uint32) (*ProxyState, bool, error) {
	state := ProxyState{}
	err := s.db.First(&state, "storage_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &state, true, nil
}

func (s *GormStore) SaveState(state *ProxyState) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(state).Error
}

// Insert mint
func (s *GormStore) InsertMint(m *Mint) error {
	return s.db.Omit(clause.Associations).Create(m).Error
}

// Update mint
func (s *GormStore) UpdateMint(m *Mint) error {
	return s.db.Omit(clause.Associations).Save(m).Error
}

// List mints
func (s *GormStore) ListMints(opt ListOptions) ([]Mint, error) {
	list := []Mint{}
	if err := s.db.Order("created_at desc").Limit(opt.Limit).Offset(opt.Offset).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Get mint
func (s *GormStore) GetMint(id uuid.UUID) (*Mint, error) {
	m := Mint{}
	if err := s.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) PaymentSpent(transactionID string) (bool, error) {
	var count int64
	err := s.db.Model(&Mint{}).
		Where(map[string]interface{}{"payment_transaction_id": transactionID}).
		Count(&count).Error
	return count > 0, err
}
