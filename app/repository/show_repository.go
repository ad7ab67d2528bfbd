package repository

import (
	"time"

	"github.com/JulianWeber/FanGate/app/models"
	"gorm.io/gorm"
)

// showRepository implements the ShowRepository interface
type showRepository struct {
	db *gorm.DB
}

// NewShowRepository creates a new show repository instance
func NewShowRepository(db *gorm.DB) ShowRepository {
	return &showRepository{db: db}
}

func (r *showRepository) Create(show *models.Show) error {
	return r.db.Create(show).Error
}

func (r *showRepository) GetByUUID(uuid string) (*models.Show, error) {
	var show models.Show
	err := r.db.Where("uuid = ?", uuid).First(&show).Error
	if err != nil {
		return nil, err
	}
	return &show, nil
}

func (r *showRepository) GetUpcomingByArtistID(artistID uint) ([]models.Show, error) {
	var shows []models.Show
	err := r.db.Where("artist_id = ? AND starts_at > ?", artistID, time.Now()).
		Order("starts_at ASC").Find(&shows).Error
	return shows, err
}

func (r *showRepository) Update(show *models.Show) error {
	return r.db.Save(show).Error
}

func (r *showRepository) Delete(id uint) error {
	return r.db.Delete(&models.Show{}, id).Error
}
