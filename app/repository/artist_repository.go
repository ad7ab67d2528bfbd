package repository

import (
	"github.com/JulianWeber/FanGate/app/models"
	"gorm.io/gorm"
)

// artistRepository implements the ArtistRepository interface
type artistRepository struct {
	db *gorm.DB
}

// NewArtistRepository creates a new artist repository instance
func NewArtistRepository(db *gorm.DB) ArtistRepository {
	return &artistRepository{db: db}
}

func (r *artistRepository) CreateProfile(profile *models.ArtistProfile) error {
	return r.db.Create(profile).Error
}

func (r *artistRepository) GetByID(id uint) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	err := r.db.First(&profile, id).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *artistRepository) GetByUserID(userID uint) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *artistRepository) GetByHandle(handle string) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	err := r.db.Where("handle = ?", handle).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByConnectedAccountID resolves a payment-provider account id to the local
// artist; used by the account.updated webhook handler.
func (r *artistRepository) GetByConnectedAccountID(accountID string) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	err := r.db.Where("connected_account_id = ?", accountID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *artistRepository) UpdateProfile(profile *models.ArtistProfile) error {
	return r.db.Save(profile).Error
}

func (r *artistRepository) HandleExists(handle string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ArtistProfile{}).Where("handle = ?", handle).Count(&count).Error
	return count > 0, err
}

// ReplaceLinks swaps the full link list for an artist in one transaction.
func (r *artistRepository) ReplaceLinks(artistID uint, links []models.ArtistLink) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("artist_id = ?", artistID).Delete(&models.ArtistLink{}).Error; err != nil {
			return err
		}
		for i := range links {
			links[i].ID = 0
			links[i].ArtistID = artistID
			links[i].Position = i
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}

func (r *artistRepository) GetLinks(artistID uint) ([]models.ArtistLink, error) {
	var links []models.ArtistLink
	err := r.db.Where("artist_id = ?", artistID).Order("position ASC").Find(&links).Error
	return links, err
}
