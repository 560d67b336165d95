package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleVendor = "vendor"
	RoleBuyer  = "buyer"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null"                 json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Store struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logo_url,omitempty"`
	VendorID    uint      `gorm:"index;not null"           json:"vendor_id"`
	Products    []Product `gorm:"constraint:OnDelete:CASCADE" json:"products,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// OwnerID resolves the identity allowed to mutate the store.
func (s Store) OwnerID() uint { return s.VendorID }

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	StoreID     uint            `gorm:"index;not null"              json:"store_id"`
	Store       Store           `json:"-"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `gorm:"not null"                    json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Stock       uint            `gorm:"not null;default:0"          json:"stock"`
	ImageURL    string          `json:"image_url,omitempty"`
	Reviews     []Review        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OwnerID requires Store to be preloaded; ownership sits one hop away.
func (p Product) OwnerID() uint { return p.Store.VendorID }

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"index;not null"           json:"product_id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Text      string    `gorm:"not null"                 json:"text"`
	Verified  bool      `gorm:"not null;default:false"   json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func (r Review) OwnerID() uint { return r.UserID }

type Purchase struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID      uint      `gorm:"index;not null"            json:"user_id"`
	ProductID   uint      `gorm:"index;not null"            json:"product_id"`
	Quantity    uint      `gorm:"not null;check:quantity>0" json:"quantity"`
	PurchasedAt time.Time `gorm:"autoCreateTime"            json:"purchased_at"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"                    json:"id"`
	UserID    uint `gorm:"index:idx_cart_user_product,unique;not null" json:"user_id"`
	ProductID uint `gorm:"index:idx_cart_user_product,unique;not null" json:"product_id"`
	Quantity  uint `gorm:"not null;check:quantity>0"                   json:"quantity"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"     json:"token"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"   json:"revoked"`
}

type ResetToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"     json:"-"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expires_at"`
	Used      bool      `gorm:"not null;default:false"   json:"used"`
}
