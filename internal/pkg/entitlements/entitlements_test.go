package entitlements

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JulianWeber/FanGate/app/models"
	"github.com/JulianWeber/FanGate/internal/pkg/storage"
)

type fakeOrderReader struct {
	orders map[uint][]models.Order
	err    error
}

func (f *fakeOrderReader) ListPaidByBuyer(buyerID uint) ([]models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[buyerID], nil
}

type fakeProductReader struct {
	products map[string]*models.Product
}

func (f *fakeProductReader) GetByUUID(uuid string) (*models.Product, error) {
	if p, ok := f.products[uuid]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSigner struct {
	minted  []string
	missing map[string]bool
	err     error
}

func (f *fakeSigner) PresignDownloadURL(ctx context.Context, objectKey string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.missing[objectKey] {
		return "", storage.ErrObjectMissing
	}
	f.minted = append(f.minted, objectKey)
	return "https://signed.example.com/" + objectKey, nil
}

const (
	publicUUID  = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	privateUUID = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

func newFixture() (*Service, *fakeOrderReader, *fakeProductReader, *fakeSigner) {
	products := &fakeProductReader{products: map[string]*models.Product{
		publicUUID: {
			ID:               1,
			UUID:             publicUUID,
			Visibility:       models.VisibilityPublic,
			Published:        true,
			ContentReference: "content/1/pub/track.mp3",
		},
		privateUUID: {
			ID:               2,
			UUID:             privateUUID,
			Visibility:       models.VisibilityPrivate,
			Published:        true,
			ContentReference: "content/1/priv/film.mp4",
		},
	}}
	orders := &fakeOrderReader{orders: map[uint][]models.Order{}}
	signer := &fakeSigner{missing: map[string]bool{}}
	return NewService(orders, products, signer), orders, products, signer
}

func paidOrderFor(productID uint, snapshot string) models.Order {
	return models.Order{
		Status: models.OrderStatusPaid,
		Lines: []models.OrderLine{
			{ProductID: productID, ContentReferenceSnapshot: snapshot},
		},
	}
}

func TestHasPaidOrder(t *testing.T) {
	svc, orders, _, _ := newFixture()
	orders.orders[7] = []models.Order{paidOrderFor(2, "content/1/priv/film.mp4")}

	owned, err := svc.HasPaidOrder(7, 2)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = svc.HasPaidOrder(7, 1)
	require.NoError(t, err)
	assert.False(t, owned)

	owned, err = svc.HasPaidOrder(8, 2)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestResolveStreamURL_PublicProductAnonymous(t *testing.T) {
	svc, _, _, signer := newFixture()

	url, err := svc.ResolveStreamURL(context.Background(), publicUUID, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/content/1/pub/track.mp3", url)
	assert.Equal(t, []string{"content/1/pub/track.mp3"}, signer.minted)
}

func TestResolveStreamURL_PrivateProductAnonymous(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.ResolveStreamURL(context.Background(), privateUUID, 0, false)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestResolveStreamURL_PrivateProductNotOwned(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.ResolveStreamURL(context.Background(), privateUUID, 7, true)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestResolveStreamURL_PrivateProductOwned(t *testing.T) {
	svc, orders, _, _ := newFixture()
	orders.orders[7] = []models.Order{paidOrderFor(2, "content/1/priv/film.mp4")}

	url, err := svc.ResolveStreamURL(context.Background(), privateUUID, 7, true)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestResolveStreamURL_UnknownProduct(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.ResolveStreamURL(context.Background(), "cccccccc-cccc-cccc-cccc-cccccccccccc", 0, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveAssetURL_MintsWithoutProductIdentity(t *testing.T) {
	svc, _, _, signer := newFixture()

	url, err := svc.ResolveAssetURL(context.Background(), "preview/1/pub/teaser.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/preview/1/pub/teaser.mp3", url)
	assert.Equal(t, []string{"preview/1/pub/teaser.mp3"}, signer.minted)
}

func TestResolveAssetURL_MissingObjectIsNotAnError(t *testing.T) {
	svc, _, _, signer := newFixture()
	signer.missing["preview/1/pub/gone.mp3"] = true

	url, err := svc.ResolveAssetURL(context.Background(), "preview/1/pub/gone.mp3")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestResolveDownloadURL_AlwaysRequiresAuth(t *testing.T) {
	svc, _, _, _ := newFixture()

	// Even public products never download anonymously.
	_, err := svc.ResolveDownloadURL(context.Background(), publicUUID, 0, false)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestResolveDownloadURL_PublicProductRequiresOwnership(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.ResolveDownloadURL(context.Background(), publicUUID, 7, true)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestResolveDownloadURL_ServesSnapshotNotLiveReference(t *testing.T) {
	svc, orders, products, signer := newFixture()
	orders.orders[7] = []models.Order{paidOrderFor(2, "content/1/priv/film-v1.mp4")}

	// The artist replaced the file after the sale.
	products.products[privateUUID].ContentReference = "content/1/priv/film-v2.mp4"

	url, err := svc.ResolveDownloadURL(context.Background(), privateUUID, 7, true)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/content/1/priv/film-v1.mp4", url)
	assert.Equal(t, []string{"content/1/priv/film-v1.mp4"}, signer.minted)
}

func TestResolveDownloadURL_MissingObjectIsNotAnError(t *testing.T) {
	svc, orders, _, signer := newFixture()
	orders.orders[7] = []models.Order{paidOrderFor(2, "content/1/priv/film.mp4")}
	signer.missing["content/1/priv/film.mp4"] = true

	url, err := svc.ResolveDownloadURL(context.Background(), privateUUID, 7, true)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestResolveStreamURL_SignerFailurePropagates(t *testing.T) {
	svc, _, _, signer := newFixture()
	signer.err = errors.New("provider down")

	_, err := svc.ResolveStreamURL(context.Background(), publicUUID, 0, false)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccessDenied)
}

func TestResolveStreamURL_OrderLookupFailure(t *testing.T) {
	svc, orders, _, _ := newFixture()
	orders.err = errors.New("db down")

	_, err := svc.ResolveStreamURL(context.Background(), privateUUID, 7, true)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccessDenied)
}
