package store

import (
	"fmt"

	"buydips-go/internal/models"
	"gorm.io/gorm"
)

// OrderStore persists the symbol -> PurchaseRecord mapping between
// process restarts. It is only ever touched by the single loop
// goroutine, so no locking is needed.
type OrderStore struct {
	db *gorm.DB
}

// NewOrderStore wraps an opened database.
func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Load returns the persisted mapping, empty if nothing was saved yet.
func (s *OrderStore) Load() (map[string]models.PurchaseRecord, error) {
	var records []models.PurchaseRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load purchase records: %w", err)
	}

	orders := make(map[string]models.PurchaseRecord, len(records))
	for _, r := range records {
		orders[r.Symbol] = r
	}
	return orders, nil
}

// Save overwrites the entire persisted state with the given mapping in
// one transaction. It is a full rewrite, not an incremental append.
func (s *OrderStore) Save(orders map[string]models.PurchaseRecord) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(&models.PurchaseRecord{}).Error; err != nil {
			return err
		}
		for _, r := range orders {
			record := models.PurchaseRecord{
				Symbol:    r.Symbol,
				Price:     r.Price,
				Amount:    r.Amount,
				Timestamp: r.Timestamp,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save purchase records: %w", err)
	}
	return nil
}

// Reset clears the persisted state. Used by the --reset-cache flag.
func (s *OrderStore) Reset() error {
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Unscoped().Delete(&models.PurchaseRecord{}).Error; err != nil {
		return fmt.Errorf("failed to reset purchase records: %w", err)
	}
	return nil
}
