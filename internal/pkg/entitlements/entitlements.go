package entitlements

import (
	"context"
	"errors"
	"fmt"

	"github.com/JulianWeber/FanGate/app/models"
	"github.com/JulianWeber/FanGate/internal/pkg/storage"
	"gorm.io/gorm"
)

// Access decision taxonomy. Controllers translate these to stable error codes
// without inspecting internals.
var (
	// ErrAuthenticationRequired means the resource is gated and no identity
	// was presented.
	ErrAuthenticationRequired = errors.New("entitlements: authentication required")

	// ErrAccessDenied means the caller is known but owns no paid order for
	// the product.
	ErrAccessDenied = errors.New("entitlements: no paid order for this product")

	// ErrNotFound means the product does not exist. Returned before any
	// ownership check so probing cannot distinguish gated from missing.
	ErrNotFound = errors.New("entitlements: product not found")
)

// OrderReader is the slice of the order store the entitlement checks need.
type OrderReader interface {
	ListPaidByBuyer(buyerID uint) ([]models.Order, error)
}

// ProductReader resolves products by their public identifier.
type ProductReader interface {
	GetByUUID(uuid string) (*models.Product, error)
}

// Service answers "may this user reach this content" and mints short-lived
// URLs for the content they may reach. It never mutates anything.
type Service struct {
	orders   OrderReader
	products ProductReader
	signer   storage.URLSigner
}

func NewService(orders OrderReader, products ProductReader, signer storage.URLSigner) *Service {
	return &Service{orders: orders, products: products, signer: signer}
}

// HasPaidOrder reports whether the buyer holds at least one paid order
// containing the product. Refunded orders no longer qualify. The scan is
// linear over the buyer's paid orders, which stays small per user; the
// composite index on (buyer_id, status) already bounds the set.
func (s *Service) HasPaidOrder(buyerID uint, productID uint) (bool, error) {
	orders, err := s.orders.ListPaidByBuyer(buyerID)
	if err != nil {
		return false, fmt.Errorf("list paid orders for buyer %d: %w", buyerID, err)
	}
	for _, order := range orders {
		for _, line := range order.Lines {
			if line.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// ResolveStreamURL gates streaming access. Public products stream for anyone,
// including anonymous visitors; private products require a paid order. The
// minted URL always points at the product's live content reference.
func (s *Service) ResolveStreamURL(ctx context.Context, productUUID string, userID uint, loggedIn bool) (string, error) {
	product, err := s.lookupProduct(productUUID)
	if err != nil {
		return "", err
	}

	if !product.IsPublic() {
		if !loggedIn {
			return "", ErrAuthenticationRequired
		}
		owned, err := s.HasPaidOrder(userID, product.ID)
		if err != nil {
			return "", err
		}
		if !owned {
			return "", ErrAccessDenied
		}
	}

	return s.mint(ctx, product.ContentReference)
}

// ResolveAssetURL mints a URL for a storage reference supplied directly, with
// no product identity attached. This is the public-asset path: hub pages
// publish preview references that resolve through here, so the reference
// itself is already public and no ownership question arises.
func (s *Service) ResolveAssetURL(ctx context.Context, reference string) (string, error) {
	return s.mint(ctx, reference)
}

// ResolveDownloadURL gates downloads. Ownership is required regardless of
// visibility, and the URL is minted from the order line's content reference
// snapshot, not the product's live pointer: what was bought is what is served,
// even if the artist has since replaced the file.
func (s *Service) ResolveDownloadURL(ctx context.Context, productUUID string, userID uint, loggedIn bool) (string, error) {
	product, err := s.lookupProduct(productUUID)
	if err != nil {
		return "", err
	}
	if !loggedIn {
		return "", ErrAuthenticationRequired
	}

	orders, err := s.orders.ListPaidByBuyer(userID)
	if err != nil {
		return "", fmt.Errorf("list paid orders for buyer %d: %w", userID, err)
	}
	for _, order := range orders {
		for _, line := range order.Lines {
			if line.ProductID == product.ID {
				return s.mint(ctx, line.ContentReferenceSnapshot)
			}
		}
	}
	return "", ErrAccessDenied
}

func (s *Service) lookupProduct(productUUID string) (*models.Product, error) {
	product, err := s.products.GetByUUID(productUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

// mint presigns the object key. A missing object yields an empty URL with no
// error: the entitlement stands, the file is gone, and the caller decides how
// to present that.
func (s *Service) mint(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	url, err := s.signer.PresignDownloadURL(ctx, objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectMissing) {
			return "", nil
		}
		return "", err
	}
	return url, nil
}
