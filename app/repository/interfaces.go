package repository

import (
	"github.com/JulianWeber/FanGate/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByProviderAccount(provider, providerUserID string) (*models.User, error)
	LinkProviderAccount(account *models.ProviderAccount) error
	Update(user *models.User) error
	Count() (int64, error)
}

// ArtistRepository defines the interface for hub profile and link operations
type ArtistRepository interface {
	CreateProfile(profile *models.ArtistProfile) error
	GetByID(id uint) (*models.ArtistProfile, error)
	GetByUserID(userID uint) (*models.ArtistProfile, error)
	GetByHandle(handle string) (*models.ArtistProfile, error)
	GetByConnectedAccountID(accountID string) (*models.ArtistProfile, error)
	UpdateProfile(profile *models.ArtistProfile) error
	HandleExists(handle string) (bool, error)
	ReplaceLinks(artistID uint, links []models.ArtistLink) error
	GetLinks(artistID uint) ([]models.ArtistLink, error)
}

// ProductRepository defines the interface for product catalog operations
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetByUUID(uuid string) (*models.Product, error)
	GetByArtistID(artistID uint) ([]models.Product, error)
	GetPublishedByArtistID(artistID uint) ([]models.Product, error)
	Update(product *models.Product) error
	Delete(id uint) error
}

// OrderRepository defines the read side of the order ledger. All writes go
// through the payments package, which owns the event-keyed transaction.
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetByUUID(uuid string) (*models.Order, error)
	GetByProviderSessionID(sessionID string) (*models.Order, error)
	// ListPaidByBuyer returns the buyer's paid orders, lines preloaded,
	// newest first.
	ListPaidByBuyer(buyerID uint) ([]models.Order, error)
	ListByBuyer(buyerID uint) ([]models.Order, error)
	CountByBuyer(buyerID uint) (int64, error)
}

// ShowRepository defines the interface for show metadata operations
type ShowRepository interface {
	Create(show *models.Show) error
	GetByUUID(uuid string) (*models.Show, error)
	GetUpcomingByArtistID(artistID uint) ([]models.Show, error)
	Update(show *models.Show) error
	Delete(id uint) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Artist  ArtistRepository
	Product ProductRepository
	Order   OrderRepository
	Show    ShowRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Artist:  NewArtistRepository(db),
		Product: NewProductRepository(db),
		Order:   NewOrderRepository(db),
		Show:    NewShowRepository(db),
	}
}
