package payments

import (
	"errors"
	"time"

	"github.com/JulianWeber/FanGate/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	// CreateOrderForEvent is the one write path into the order ledger. In a
	// single transaction it inserts the processed-event marker, the order and
	// its lines; the unique (provider, provider_event_id) index on the event
	// insert is the serialization point. Returns created=false without error
	// when the event was already processed, in which case no rows changed.
	CreateOrderForEvent(event *models.PaymentEvent, order *models.Order, lines []models.OrderLine) (bool, error)

	// RefundOrderForEvent idempotently applies a paid -> refunded transition
	// keyed on the refund event. Returns created=false when the refund event
	// was already processed.
	RefundOrderForEvent(event *models.PaymentEvent, paymentIntentID string) (bool, error)

	// RecordEventIfNotExists persists an event that needs no ledger write
	// (account updates, payouts, unrecognized types) for deduplication.
	RecordEventIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error)

	MarkEventProcessed(providerEventID string, processingError string) error

	GetUserByID(id uint) (*models.User, error)
	GetProductByID(id uint) (*models.Product, error)
	GetProductByUUID(uuid string) (*models.Product, error)
	GetArtistByID(id uint) (*models.ArtistProfile, error)
	GetArtistByUserID(userID uint) (*models.ArtistProfile, error)
	GetArtistByConnectedAccountID(accountID string) (*models.ArtistProfile, error)
	SaveArtist(profile *models.ArtistProfile) error
	GetOrderByPaymentIntentID(paymentIntentID string) (*models.Order, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func eventConflictClause() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}
}

func (r *gormRepository) CreateOrderForEvent(event *models.PaymentEvent, order *models.Order, lines []models.OrderLine) (bool, error) {
	if len(lines) == 0 {
		return false, errors.New("order requires at least one line")
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(eventConflictClause()).Create(event)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent or earlier delivery won the insert; abort so the
			// order and lines never become visible twice.
			return ErrDuplicateEvent
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		return tx.Create(&lines).Error
	})

	if errors.Is(err, ErrDuplicateEvent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *gormRepository) RefundOrderForEvent(event *models.PaymentEvent, paymentIntentID string) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(eventConflictClause()).Create(event)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateEvent
		}

		var order models.Order
		if err := tx.Where("provider_payment_intent_id = ?", paymentIntentID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDataIntegrity
			}
			return err
		}
		if err := order.TransitionTo(models.OrderStatusRefunded); err != nil {
			return err
		}
		return tx.Save(&order).Error
	})

	if errors.Is(err, ErrDuplicateEvent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *gormRepository) RecordEventIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error) {
	tx := r.db.Clauses(eventConflictClause()).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkEventProcessed(providerEventID string, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentEvent{}).
		Where("provider = ? AND provider_event_id = ?", Provider, providerEventID).
		Updates(updates).Error
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetProductByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *gormRepository) GetProductByUUID(uuid string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("uuid = ?", uuid).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *gormRepository) GetArtistByID(id uint) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormRepository) GetArtistByUserID(userID uint) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormRepository) GetArtistByConnectedAccountID(accountID string) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.Where("connected_account_id = ?", accountID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormRepository) SaveArtist(profile *models.ArtistProfile) error {
	return r.db.Save(profile).Error
}

func (r *gormRepository) GetOrderByPaymentIntentID(paymentIntentID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("provider_payment_intent_id = ?", paymentIntentID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
