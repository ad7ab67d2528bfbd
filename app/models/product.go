package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProductTypeMusic  = "music"
	ProductTypeVideo  = "video"
	ProductTypeTicket = "ticket"

	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Product is a sellable item on an artist hub. ContentReference is the LIVE
// pointer to the stored object; order lines copy it at purchase time and never
// read it again afterwards.
type Product struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UUID             string         `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	ArtistID         uint           `gorm:"index;not null" json:"artist_id"`
	Artist           ArtistProfile  `gorm:"foreignKey:ArtistID" json:"-"`
	ShowID           *uint          `gorm:"index" json:"show_id,omitempty"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Description      string         `gorm:"type:text" json:"description" validate:"max=5000"`
	ItemType         string         `gorm:"type:varchar(20);not null;index" json:"item_type" validate:"oneof=music video ticket"`
	PriceAmount      int64          `gorm:"not null" json:"price_amount" validate:"gte=0"`
	Currency         string         `gorm:"type:varchar(3);not null;default:'usd'" json:"currency" validate:"len=3"`
	Visibility       string         `gorm:"type:varchar(10);not null;default:'private';index" json:"visibility" validate:"oneof=public private"`
	Published        bool           `gorm:"default:false;index" json:"published"`
	ContentReference string         `gorm:"type:varchar(512)" json:"-"`
	PreviewReference string         `gorm:"type:varchar(512)" json:"-"`
	PlayCount        int            `gorm:"default:0" json:"play_count"`
	DownloadCount    int            `gorm:"default:0" json:"download_count"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) Validate() error {
	return validator.New().Struct(p)
}

// BeforeCreate assigns the public identifier.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	return nil
}

// IsPublic reports whether streaming access skips the ownership check.
// Downloads are gated on ownership regardless of visibility.
func (p *Product) IsPublic() bool {
	return p.Visibility == VisibilityPublic
}

// IsPurchasable reports whether a checkout session may be opened directly.
// Private products are only reachable through bundles, never direct checkout.
func (p *Product) IsPurchasable() bool {
	return p.Published && p.Visibility == VisibilityPublic
}
