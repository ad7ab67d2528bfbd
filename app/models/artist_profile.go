package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ArtistProfile is the public hub record for a seller plus the state of their
// connected payment account. ConnectedAccountID and the charges/payouts flags
// are owned by the payment provider and only mirrored here via webhooks.
type ArtistProfile struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User               User      `gorm:"foreignKey:UserID" json:"-"`
	Handle             string    `gorm:"type:varchar(60) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"handle" validate:"required,min=2,max=60,alphanum"`
	DisplayName        string    `gorm:"type:varchar(150);not null" json:"display_name" validate:"required,min=1,max=150"`
	Bio                string    `gorm:"type:text" json:"bio" validate:"max=2000"`
	AvatarURL          string    `gorm:"type:varchar(255)" json:"avatar_url" validate:"omitempty,url,max=255"`
	ConnectedAccountID string    `gorm:"type:varchar(191);index" json:"-"`
	ChargesEnabled     bool      `gorm:"default:false" json:"charges_enabled"`
	PayoutsEnabled     bool      `gorm:"default:false" json:"payouts_enabled"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *ArtistProfile) Validate() error {
	return validator.New().Struct(p)
}

// CanAcceptPayments reports whether checkout sessions may route funds to this
// artist. Fails closed when onboarding never completed.
func (p *ArtistProfile) CanAcceptPayments() bool {
	return p.ConnectedAccountID != "" && p.ChargesEnabled
}

// ArtistLink is one external link shown on the hub page.
type ArtistLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArtistID  uint      `gorm:"index;not null" json:"artist_id"`
	Label     string    `gorm:"type:varchar(100);not null" json:"label"`
	URL       string    `gorm:"type:varchar(255);not null" json:"url"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
