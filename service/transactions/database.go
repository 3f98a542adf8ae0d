package transactions

import (
	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&StorableTransaction{})
}

func (StorableTransaction) TableName() string {
	return "transactions"
}

func (t *StorableTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *StorableTransaction) Save(db *gorm.DB) error {
	return db.Omit(clause.Associations).Save(t).Error
}

func GetTransaction(db *gorm.DB, id uuid.UUID) (*StorableTransaction, error) {
	t := StorableTransaction{}
	return &t, db.First(&t, "id = ?", id).Error
}

// ListByMint returns the transactions sent on behalf of a mint, oldest first.
func ListByMint(db *gorm.DB, mintID uuid.UUID) ([]StorableTransaction, error) {
	list := []StorableTransaction{}
	err := db.Order("created_at asc").
		Where(map[string]interface{}{"mint_id": mintID}).
		Find(&list).Error
	return list, err
}

func FailedIDs(db *gorm.DB) ([]uuid.UUID, error) {
	list := []StorableTransaction{}
	err := db.Select("id").Order("created_at desc").
		Where(map[string]interface{}{"state": common.TransactionStateFailed}).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	res := make([]uuid.UUID, len(list))
	for i, t := range list {
		res[i] = t.ID
	}
	return res, nil
}
