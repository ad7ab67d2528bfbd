package repository

import (
	"github.com/JulianWeber/FanGate/app/models"
	"gorm.io/gorm"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByUUID(uuid string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("uuid = ?", uuid).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByArtistID(artistID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("artist_id = ?", artistID).Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *productRepository) GetPublishedByArtistID(artistID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("artist_id = ? AND published = ?", artistID, true).
		Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *productRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}
