package payments

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JulianWeber/FanGate/app/models"
)

type fakeRepository struct {
	users    map[uint]*models.User
	products map[uint]*models.Product
	artists  map[uint]*models.ArtistProfile

	seenEvents map[string]bool
	processed  map[string]string
	orders     []*models.Order
	lines      []models.OrderLine
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:      map[uint]*models.User{},
		products:   map[uint]*models.Product{},
		artists:    map[uint]*models.ArtistProfile{},
		seenEvents: map[string]bool{},
		processed:  map[string]string{},
	}
}

func (f *fakeRepository) CreateOrderForEvent(event *models.PaymentEvent, order *models.Order, lines []models.OrderLine) (bool, error) {
	if f.seenEvents[event.ProviderEventID] {
		return false, nil
	}
	f.seenEvents[event.ProviderEventID] = true
	order.ID = uint(len(f.orders) + 1)
	order.UUID = fmt.Sprintf("order-%d", order.ID)
	for i := range lines {
		lines[i].OrderID = order.ID
	}
	f.orders = append(f.orders, order)
	f.lines = append(f.lines, lines...)
	return true, nil
}

func (f *fakeRepository) RefundOrderForEvent(event *models.PaymentEvent, paymentIntentID string) (bool, error) {
	if f.seenEvents[event.ProviderEventID] {
		return false, nil
	}
	f.seenEvents[event.ProviderEventID] = true
	for _, order := range f.orders {
		if order.ProviderPaymentIntentID == paymentIntentID {
			return true, order.TransitionTo(models.OrderStatusRefunded)
		}
	}
	return false, ErrDataIntegrity
}

func (f *fakeRepository) RecordEventIfNotExists(event *models.PaymentEvent) (bool, *models.PaymentEvent, error) {
	if f.seenEvents[event.ProviderEventID] {
		return false, event, nil
	}
	f.seenEvents[event.ProviderEventID] = true
	return true, event, nil
}

func (f *fakeRepository) MarkEventProcessed(providerEventID string, processingError string) error {
	f.processed[providerEventID] = processingError
	return nil
}

func (f *fakeRepository) GetUserByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetProductByID(id uint) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetProductByUUID(uuid string) (*models.Product, error) {
	for _, p := range f.products {
		if p.UUID == uuid {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetArtistByID(id uint) (*models.ArtistProfile, error) {
	if a, ok := f.artists[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetArtistByUserID(userID uint) (*models.ArtistProfile, error) {
	for _, a := range f.artists {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetArtistByConnectedAccountID(accountID string) (*models.ArtistProfile, error) {
	for _, a := range f.artists {
		if a.ConnectedAccountID == accountID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SaveArtist(profile *models.ArtistProfile) error {
	f.artists[profile.ID] = profile
	return nil
}

func (f *fakeRepository) GetOrderByPaymentIntentID(paymentIntentID string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.ProviderPaymentIntentID == paymentIntentID {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSessionCreator struct {
	lastInput CheckoutSessionInput
	session   *CheckoutSession
	err       error
}

func (f *fakeSessionCreator) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func seedCatalog(repo *fakeRepository) {
	repo.users[7] = &models.User{ID: 7, Name: "fan", Email: "fan@example.com", Role: models.ROLE_FAN, Status: models.STATUS_ACTIVE}
	repo.users[9] = &models.User{ID: 9, Name: "artist", Email: "artist@example.com", Role: models.ROLE_ARTIST, Status: models.STATUS_ACTIVE}
	repo.artists[3] = &models.ArtistProfile{ID: 3, UserID: 9, Handle: "band", DisplayName: "The Band", ConnectedAccountID: "acct_1", ChargesEnabled: true}
	repo.products[42] = &models.Product{
		ID:               42,
		UUID:             "11111111-1111-1111-1111-111111111111",
		ArtistID:         3,
		Title:            "Live Album",
		ItemType:         models.ProductTypeMusic,
		PriceAmount:      1299,
		Currency:         "usd",
		Visibility:       models.VisibilityPublic,
		Published:        true,
		ContentReference: "content/3/11111111-1111-1111-1111-111111111111/album.zip",
	}
}

func checkoutEvent(id string) *Event {
	return &Event{
		ID:      id,
		Type:    EventCheckoutCompleted,
		RawType: string(EventCheckoutCompleted),
		CheckoutSession: &CheckoutSessionPayload{
			ID:            "cs_1",
			AmountTotal:   1299,
			Currency:      "USD",
			PaymentIntent: "pi_1",
			PaymentStatus: "paid",
			Metadata:      SessionMetadata{BuyerID: "7", ProductID: "42", SellerID: "3"},
		},
	}
}

func TestProcessEvent_CheckoutCompleted_CreatesPaidOrderWithSnapshot(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	result, err := svc.ProcessEvent(context.Background(), checkoutEvent("evt_1"), []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.False(t, result.AlreadyProcessed)
	assert.NotEmpty(t, result.OrderUUID)

	require.Len(t, repo.orders, 1)
	order := repo.orders[0]
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, uint(7), order.BuyerID)
	assert.Equal(t, int64(1299), order.TotalAmount)
	assert.Equal(t, "usd", order.Currency)
	assert.Equal(t, "pi_1", order.ProviderPaymentIntentID)

	require.Len(t, repo.lines, 1)
	assert.Equal(t, uint(42), repo.lines[0].ProductID)
	assert.Equal(t, "content/3/11111111-1111-1111-1111-111111111111/album.zip", repo.lines[0].ContentReferenceSnapshot)

	assert.Contains(t, repo.processed, "evt_1")
}

func TestProcessEvent_CheckoutCompleted_SnapshotIgnoresLaterProductEdits(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	_, err := svc.ProcessEvent(context.Background(), checkoutEvent("evt_1"), []byte(`{}`))
	require.NoError(t, err)

	// The artist replaces the file afterwards. The sold line keeps the old key.
	repo.products[42].ContentReference = "content/3/11111111-1111-1111-1111-111111111111/remaster.zip"
	assert.Equal(t, "content/3/11111111-1111-1111-1111-111111111111/album.zip", repo.lines[0].ContentReferenceSnapshot)
}

func TestProcessEvent_DuplicateDelivery_IsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	first, err := svc.ProcessEvent(context.Background(), checkoutEvent("evt_1"), []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)

	second, err := svc.ProcessEvent(context.Background(), checkoutEvent("evt_1"), []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.True(t, second.Handled)

	assert.Len(t, repo.orders, 1)
	assert.Len(t, repo.lines, 1)
}

func TestProcessEvent_CheckoutCompleted_BadMetadata(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	ev := checkoutEvent("evt_bad")
	ev.CheckoutSession.Metadata = SessionMetadata{BuyerID: "", ProductID: "42"}

	_, err := svc.ProcessEvent(context.Background(), ev, []byte(`{}`))
	assert.ErrorIs(t, err, ErrDataIntegrity)
	assert.Empty(t, repo.orders)
}

func TestProcessEvent_CheckoutCompleted_UnknownBuyer(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	ev := checkoutEvent("evt_ghost")
	ev.CheckoutSession.Metadata.BuyerID = "999"

	_, err := svc.ProcessEvent(context.Background(), ev, []byte(`{}`))
	assert.ErrorIs(t, err, ErrDataIntegrity)
	assert.Empty(t, repo.orders)
}

func TestProcessEvent_ChargeRefunded_TransitionsOrder(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	_, err := svc.ProcessEvent(context.Background(), checkoutEvent("evt_1"), []byte(`{}`))
	require.NoError(t, err)

	refund := &Event{
		ID:      "evt_r1",
		Type:    EventChargeRefunded,
		RawType: string(EventChargeRefunded),
		Charge:  &ChargePayload{ID: "ch_1", PaymentIntent: "pi_1", Refunded: true, AmountRefunded: 1299},
	}
	result, err := svc.ProcessEvent(context.Background(), refund, []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, models.OrderStatusRefunded, repo.orders[0].Status)
}

func TestProcessEvent_ChargeRefunded_UnknownPaymentIntent(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	refund := &Event{
		ID:      "evt_r2",
		Type:    EventChargeRefunded,
		RawType: string(EventChargeRefunded),
		Charge:  &ChargePayload{ID: "ch_2", PaymentIntent: "pi_unknown", Refunded: true},
	}
	_, err := svc.ProcessEvent(context.Background(), refund, []byte(`{}`))
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestProcessEvent_PartialRefund_LeavesOrderPaid(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	_, err := svc.ProcessEvent(context.Background(), checkoutEvent("evt_1"), []byte(`{}`))
	require.NoError(t, err)

	refund := &Event{
		ID:      "evt_r3",
		Type:    EventChargeRefunded,
		RawType: string(EventChargeRefunded),
		Charge:  &ChargePayload{ID: "ch_1", PaymentIntent: "pi_1", Refunded: false, AmountRefunded: 100},
	}
	result, err := svc.ProcessEvent(context.Background(), refund, []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, models.OrderStatusPaid, repo.orders[0].Status)
}

func TestProcessEvent_AccountUpdated_SyncsCapabilityFlags(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	repo.artists[3].ChargesEnabled = false
	svc := NewService(repo, nil, nil)

	ev := &Event{
		ID:      "evt_a1",
		Type:    EventAccountUpdated,
		RawType: string(EventAccountUpdated),
		Account: &AccountPayload{ID: "acct_1", ChargesEnabled: true, PayoutsEnabled: true},
	}
	result, err := svc.ProcessEvent(context.Background(), ev, []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.True(t, repo.artists[3].ChargesEnabled)
	assert.True(t, repo.artists[3].PayoutsEnabled)
}

func TestProcessEvent_AccountUpdated_UnknownAccountIsAcknowledged(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil)

	ev := &Event{
		ID:      "evt_a2",
		Type:    EventAccountUpdated,
		RawType: string(EventAccountUpdated),
		Account: &AccountPayload{ID: "acct_other", ChargesEnabled: true},
	}
	result, err := svc.ProcessEvent(context.Background(), ev, []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, result.Handled)
}

func TestProcessEvent_UnrecognizedType_AcknowledgedNotHandled(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	ev := &Event{ID: "evt_u1", Type: EventUnrecognized, RawType: "customer.created"}
	result, err := svc.ProcessEvent(context.Background(), ev, []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, result.Handled)
	assert.True(t, repo.seenEvents["evt_u1"])
	assert.Contains(t, repo.processed, "evt_u1")
}

func TestCreateCheckout_HappyPath(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	sessions := &fakeSessionCreator{session: &CheckoutSession{ID: "cs_1", URL: "https://pay.example.com/cs_1"}}
	svc := NewService(repo, sessions, nil)

	session, err := svc.CreateCheckout(context.Background(), CheckoutInput{
		BuyerID:     7,
		ProductUUID: "11111111-1111-1111-1111-111111111111",
	}, "https://app/success", "https://app/cancel")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_1", session.URL)

	assert.Equal(t, uint(7), sessions.lastInput.BuyerID)
	assert.Equal(t, uint(42), sessions.lastInput.ProductID)
	assert.Equal(t, uint(3), sessions.lastInput.SellerID)
	assert.Equal(t, "acct_1", sessions.lastInput.ConnectedAccountID)
	assert.Equal(t, int64(1299), sessions.lastInput.UnitAmount)
}

func TestCreateCheckout_ArtistCannotBuy(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, &fakeSessionCreator{}, nil)

	_, err := svc.CreateCheckout(context.Background(), CheckoutInput{
		BuyerID:     9,
		ProductUUID: "11111111-1111-1111-1111-111111111111",
	}, "s", "c")
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestCreateCheckout_UnpublishedProduct(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	repo.products[42].Published = false
	svc := NewService(repo, &fakeSessionCreator{}, nil)

	_, err := svc.CreateCheckout(context.Background(), CheckoutInput{
		BuyerID:     7,
		ProductUUID: "11111111-1111-1111-1111-111111111111",
	}, "s", "c")
	assert.ErrorIs(t, err, ErrNotPurchasable)
}

func TestCreateCheckout_PrivateProduct(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	repo.products[42].Visibility = models.VisibilityPrivate
	svc := NewService(repo, &fakeSessionCreator{}, nil)

	_, err := svc.CreateCheckout(context.Background(), CheckoutInput{
		BuyerID:     7,
		ProductUUID: "11111111-1111-1111-1111-111111111111",
	}, "s", "c")
	assert.ErrorIs(t, err, ErrNotPurchasable)
}

func TestCreateCheckout_SellerNotOnboarded(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	repo.artists[3].ChargesEnabled = false
	svc := NewService(repo, &fakeSessionCreator{}, nil)

	_, err := svc.CreateCheckout(context.Background(), CheckoutInput{
		BuyerID:     7,
		ProductUUID: "11111111-1111-1111-1111-111111111111",
	}, "s", "c")
	assert.ErrorIs(t, err, ErrSellerNotOnboarded)
}

func TestCreateCheckout_UnknownProduct(t *testing.T) {
	repo := newFakeRepository()
	seedCatalog(repo)
	svc := NewService(repo, &fakeSessionCreator{}, nil)

	_, err := svc.CreateCheckout(context.Background(), CheckoutInput{
		BuyerID:     7,
		ProductUUID: "00000000-0000-0000-0000-000000000000",
	}, "s", "c")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
