package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type BlocklistRepository interface {
	Create(entry *model.Blocklist) error
	FindAll() ([]model.Blocklist, error)
	IPs() ([]string, error)
	Delete(id uint) error
}

type blocklistRepository struct {
	db *gorm.DB
}

func NewBlocklistRepository(db *gorm.DB) BlocklistRepository {
	return &blocklistRepository{db: db}
}

func (r *blocklistRepository) Create(entry *model.Blocklist) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to add blocklist entry", err, map[string]interface{}{
			"ip_addr": entry.IPAddr,
		})
		return err
	}
	logger.Info("IP address blocked", map[string]interface{}{
		"ip_addr": entry.IPAddr,
	})
	return nil
}

func (r *blocklistRepository) FindAll() ([]model.Blocklist, error) {
	var entries []model.Blocklist
	err := r.db.Order("id").Find(&entries).Error
	return entries, err
}

func (r *blocklistRepository) IPs() ([]string, error) {
	var ips []string
	err := r.db.Model(&model.Blocklist{}).Pluck("ip_addr", &ips).Error
	return ips, err
}

func (r *blocklistRepository) Delete(id uint) error {
	result := r.db.Delete(&model.Blocklist{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
