package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/auth"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type memberDeps struct {
	users     *MockUserRepo
	favorites *MockSavedItemRepo
	cart      *MockSavedItemRepo
	itinerary *MockItineraryRepo
	outbox    *MockOutboxRepo
	tokens    *MockTokenManager
	pool      pgxmock.PgxPoolIface
	memberUC  *MemberUseCase
}

func newMemberDeps(t *testing.T) *memberDeps {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)

	d := &memberDeps{
		users:     new(MockUserRepo),
		favorites: new(MockSavedItemRepo),
		cart:      new(MockSavedItemRepo),
		itinerary: new(MockItineraryRepo),
		outbox:    new(MockOutboxRepo),
		tokens:    new(MockTokenManager),
		pool:      pool,
	}
	d.memberUC = NewMemberUC(d.users, d.favorites, d.cart, d.itinerary, d.outbox, pool, d.tokens, testCatalog(), logger.NewNop())

	t.Cleanup(func() {
		d.users.AssertExpectations(t)
		d.favorites.AssertExpectations(t)
		d.cart.AssertExpectations(t)
		d.itinerary.AssertExpectations(t)
		d.outbox.AssertExpectations(t)
		d.tokens.AssertExpectations(t)
		assert.NoError(t, pool.ExpectationsWereMet())
		pool.Close()
	})

	return d
}

func eventOfType(eventType OutboxEventType, aggregateID string) any {
	return mock.MatchedBy(func(ev *OutboxEvent) bool {
		return ev.EventType == eventType && ev.AggregateID == aggregateID && ev.Status == Pending && len(ev.Payload) > 0
	})
}

func TestMemberUseCase_Register(t *testing.T) {
	d := newMemberDeps(t)
	expiresAt := time.Now().Add(time.Hour)

	d.pool.ExpectBegin()
	d.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "traveler" && u.Email == "t@example.com" && auth.CheckPassword(u.PasswordHash, "secret123")
	})).Return(&domain.User{ID: 7, Username: "traveler", Email: "t@example.com"}, nil).Once()
	d.outbox.On("Create", mock.Anything, eventOfType(EventUserRegistered, "7")).Return(&OutboxEvent{ID: 1}, nil).Once()
	d.pool.ExpectCommit()
	d.tokens.On("Issue", int64(7), "traveler").Return("token", expiresAt, nil).Once()

	res, err := d.memberUC.Register(context.Background(), &RegisterReq{
		Username: " traveler ",
		Email:    "T@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "token", res.Token)
	assert.Equal(t, int64(7), res.User.ID)
	assert.Equal(t, expiresAt, res.ExpiresAt)
}

func TestMemberUseCase_RegisterDuplicate(t *testing.T) {
	d := newMemberDeps(t)

	d.pool.ExpectBegin()
	d.users.On("Create", mock.Anything, mock.Anything).Return(nil, e.ErrUserExists).Once()
	d.pool.ExpectRollback()

	_, err := d.memberUC.Register(context.Background(), &RegisterReq{Username: "traveler", Email: "t@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, e.ErrUserExists)
}

func TestMemberUseCase_RegisterValidation(t *testing.T) {
	d := newMemberDeps(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *RegisterReq
		err  error
	}{
		{name: "missing fields", req: &RegisterReq{Username: "traveler"}, err: e.ErrMissingFields},
		{name: "short username", req: &RegisterReq{Username: "ab", Email: "a@b.c", Password: "secret123"}, err: e.ErrInvalidInput},
		{name: "bad email", req: &RegisterReq{Username: "traveler", Email: "nope", Password: "secret123"}, err: e.ErrInvalidInput},
		{name: "short password", req: &RegisterReq{Username: "traveler", Email: "a@b.c", Password: "123"}, err: e.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.memberUC.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestMemberUseCase_Login(t *testing.T) {
	d := newMemberDeps(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	user := &domain.User{ID: 3, Username: "traveler", PasswordHash: hash}

	d.users.On("GetByLogin", mock.Anything, "traveler").Return(user, nil).Twice()
	d.users.On("GetByLogin", mock.Anything, "ghost").Return(nil, e.ErrNotFound).Once()
	d.tokens.On("Issue", int64(3), "traveler").Return("token", time.Now(), nil).Once()

	res, err := d.memberUC.Login(ctx, &LoginReq{Login: "traveler", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "token", res.Token)

	_, err = d.memberUC.Login(ctx, &LoginReq{Login: "traveler", Password: "wrong"})
	assert.ErrorIs(t, err, e.ErrBadCredentials)
	assert.ErrorIs(t, err, e.ErrUnauthorized)

	_, err = d.memberUC.Login(ctx, &LoginReq{Login: "ghost", Password: "secret123"})
	assert.ErrorIs(t, err, e.ErrBadCredentials)

	_, err = d.memberUC.Login(ctx, &LoginReq{Login: "traveler"})
	assert.ErrorIs(t, err, e.ErrMissingFields)
}

func TestMemberUseCase_AddFavoriteFromCatalog(t *testing.T) {
	d := newMemberDeps(t)

	var payload []byte
	d.pool.ExpectBegin()
	d.favorites.On("Add", mock.Anything, &domain.SavedItem{
		UserID:   5,
		ItemID:   "A1",
		Category: domain.CategoryAttraction,
		Name:     "Taipei 101 Observatory",
		ImageURL: "https://img/a1.jpg",
		Location: "Taipei Xinyi",
	}).Return(&domain.SavedItem{ID: 11, ItemID: "A1"}, true, nil).Once()
	d.outbox.On("Create", mock.Anything, eventOfType(EventFavoriteAdded, "5")).
		Run(func(args mock.Arguments) { payload = args.Get(1).(*OutboxEvent).Payload }).
		Return(&OutboxEvent{ID: 2}, nil).Once()
	d.pool.ExpectCommit()

	item, err := d.memberUC.AddFavorite(context.Background(), &SaveItemReq{UserID: 5, ItemID: "A1", Name: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), item.ID)

	var envelope structpb.Struct
	require.NoError(t, proto.Unmarshal(payload, &envelope))
	assert.Equal(t, string(EventFavoriteAdded), envelope.Fields["event_type"].GetStringValue())
	assert.Equal(t, "A1", envelope.Fields["data"].GetStructValue().Fields["item_id"].GetStringValue())
}

func TestMemberUseCase_AddFavoriteIdempotent(t *testing.T) {
	d := newMemberDeps(t)

	d.pool.ExpectBegin()
	d.favorites.On("Add", mock.Anything, mock.Anything).Return(&domain.SavedItem{ID: 11}, false, nil).Once()
	d.pool.ExpectCommit()

	item, err := d.memberUC.AddFavorite(context.Background(), &SaveItemReq{
		UserID: 5, ItemID: "custom-1", Category: domain.CategoryRestaurant, Name: "Night market stall",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), item.ID)
	d.outbox.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMemberUseCase_SavedItemErrors(t *testing.T) {
	d := newMemberDeps(t)
	ctx := context.Background()

	_, err := d.memberUC.AddToCart(ctx, &SaveItemReq{UserID: 5, ItemID: "unknown"})
	assert.ErrorIs(t, err, e.ErrMissingFields)

	d.pool.ExpectBegin()
	d.favorites.On("Remove", mock.Anything, int64(5), "A1", domain.CategoryAttraction).Return(false, nil).Once()
	d.pool.ExpectRollback()

	err = d.memberUC.RemoveFavorite(ctx, 5, "A1", domain.CategoryAttraction)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestMemberUseCase_Cart(t *testing.T) {
	d := newMemberDeps(t)
	ctx := context.Background()

	d.pool.ExpectBegin()
	d.cart.On("Add", mock.Anything, mock.MatchedBy(func(it *domain.SavedItem) bool { return it.ItemID == "H1" })).
		Return(&domain.SavedItem{ID: 1, ItemID: "H1"}, true, nil).Once()
	d.outbox.On("Create", mock.Anything, eventOfType(EventCartItemAdded, "5")).Return(&OutboxEvent{}, nil).Once()
	d.pool.ExpectCommit()

	_, err := d.memberUC.AddToCart(ctx, &SaveItemReq{UserID: 5, ItemID: "H1"})
	require.NoError(t, err)

	d.pool.ExpectBegin()
	d.cart.On("Remove", mock.Anything, int64(5), "H1", domain.CategoryHotel).Return(true, nil).Once()
	d.outbox.On("Create", mock.Anything, eventOfType(EventCartItemRemoved, "5")).Return(&OutboxEvent{}, nil).Once()
	d.pool.ExpectCommit()

	require.NoError(t, d.memberUC.RemoveFromCart(ctx, 5, "H1", domain.CategoryHotel))

	d.pool.ExpectBegin()
	d.cart.On("Clear", mock.Anything, int64(5)).Return(int64(0), nil).Once()
	d.pool.ExpectCommit()

	require.NoError(t, d.memberUC.ClearCart(ctx, 5))

	d.cart.On("List", mock.Anything, int64(5)).Return([]domain.SavedItem{}, nil).Once()
	items, err := d.memberUC.ListCart(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemberUseCase_CreateItinerary(t *testing.T) {
	d := newMemberDeps(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	_, err := d.memberUC.CreateItinerary(ctx, &CreateItineraryReq{UserID: 5, Title: "Taipei", StartDate: &end, EndDate: &start})
	assert.ErrorIs(t, err, e.ErrInvalidDateRange)

	_, err = d.memberUC.CreateItinerary(ctx, &CreateItineraryReq{UserID: 5, Title: "  "})
	assert.ErrorIs(t, err, e.ErrMissingFields)

	d.pool.ExpectBegin()
	d.itinerary.On("Create", mock.Anything, mock.MatchedBy(func(it *domain.Itinerary) bool {
		return it.UserID == 5 && it.Title == "Taipei"
	})).Return(&domain.Itinerary{ID: 9, UserID: 5, Title: "Taipei"}, nil).Once()
	d.outbox.On("Create", mock.Anything, eventOfType(EventItineraryCreated, "5")).Return(&OutboxEvent{}, nil).Once()
	d.pool.ExpectCommit()

	it, err := d.memberUC.CreateItinerary(ctx, &CreateItineraryReq{UserID: 5, Title: "Taipei", StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, int64(9), it.ID)
}

func TestMemberUseCase_AddItineraryDetail(t *testing.T) {
	d := newMemberDeps(t)
	ctx := context.Background()

	existing := &domain.Itinerary{ID: 9, UserID: 5, Details: []domain.ItineraryDetail{
		{ID: 1, DayNumber: 1, SortOrder: 0},
		{ID: 2, DayNumber: 1, SortOrder: 1},
		{ID: 3, DayNumber: 2, SortOrder: 0},
	}}

	d.pool.ExpectBegin()
	d.itinerary.On("Get", mock.Anything, int64(5), int64(9)).Return(existing, nil).Once()
	d.itinerary.On("AddDetail", mock.Anything, mock.MatchedBy(func(det *domain.ItineraryDetail) bool {
		return det.ItineraryID == 9 && det.DayNumber == 1 && det.SortOrder == 2 &&
			det.Name == "Elephant Mountain" && det.StartTime == "09:00"
	})).Return(&domain.ItineraryDetail{ID: 4, ItemID: "A2"}, nil).Once()
	d.outbox.On("Create", mock.Anything, eventOfType(EventItineraryUpdated, "5")).Return(&OutboxEvent{}, nil).Once()
	d.pool.ExpectCommit()

	det, err := d.memberUC.AddItineraryDetail(ctx, &AddDetailReq{
		UserID: 5, ItineraryID: 9, DayNumber: 1, ItemID: "A2", StartTime: "09:00", EndTime: "11:30",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), det.ID)

	_, err = d.memberUC.AddItineraryDetail(ctx, &AddDetailReq{UserID: 5, ItineraryID: 9, DayNumber: 0, ItemID: "A2"})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = d.memberUC.AddItineraryDetail(ctx, &AddDetailReq{UserID: 5, ItineraryID: 9, DayNumber: 1, ItemID: "A2", StartTime: "9am"})
	assert.ErrorIs(t, err, e.ErrInvalidTime)

	_, err = d.memberUC.AddItineraryDetail(ctx, &AddDetailReq{
		UserID: 5, ItineraryID: 9, DayNumber: 1, ItemID: "A2", StartTime: "12:00", EndTime: "10:00",
	})
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestMemberUseCase_ReorderItinerary(t *testing.T) {
	d := newMemberDeps(t)
	ctx := context.Background()

	before := &domain.Itinerary{ID: 9, UserID: 5, Details: []domain.ItineraryDetail{
		{ID: 1, DayNumber: 1, SortOrder: 0},
		{ID: 2, DayNumber: 1, SortOrder: 1},
	}}
	after := &domain.Itinerary{ID: 9, UserID: 5, Details: []domain.ItineraryDetail{
		{ID: 2, DayNumber: 1, SortOrder: 0},
		{ID: 1, DayNumber: 2, SortOrder: 0},
	}}
	positions := []DetailPosition{
		{DetailID: 2, DayNumber: 1, SortOrder: 0},
		{DetailID: 1, DayNumber: 2, SortOrder: 0},
	}

	d.pool.ExpectBegin()
	d.itinerary.On("Get", mock.Anything, int64(5), int64(9)).Return(before, nil).Once()
	d.itinerary.On("UpdatePositions", mock.Anything, int64(9), positions).Return(nil).Once()
	d.outbox.On("Create", mock.Anything, eventOfType(EventItineraryReordered, "5")).Return(&OutboxEvent{}, nil).Once()
	d.itinerary.On("Get", mock.Anything, int64(5), int64(9)).Return(after, nil).Once()
	d.pool.ExpectCommit()

	res, err := d.memberUC.ReorderItinerary(ctx, 5, 9, positions)
	require.NoError(t, err)
	assert.Equal(t, after, res)
}

func TestMemberUseCase_ReorderItineraryRejectsForeignDetails(t *testing.T) {
	d := newMemberDeps(t)
	ctx := context.Background()

	d.pool.ExpectBegin()
	d.itinerary.On("Get", mock.Anything, int64(5), int64(9)).
		Return(&domain.Itinerary{ID: 9, Details: []domain.ItineraryDetail{{ID: 1, DayNumber: 1}}}, nil).Once()
	d.pool.ExpectRollback()

	_, err := d.memberUC.ReorderItinerary(ctx, 5, 9, []DetailPosition{{DetailID: 42, DayNumber: 1}})
	assert.ErrorIs(t, err, e.ErrNotFound)

	d.pool.ExpectBegin()
	d.itinerary.On("Get", mock.Anything, int64(6), int64(9)).Return(nil, e.ErrNotFound).Once()
	d.pool.ExpectRollback()

	_, err = d.memberUC.ReorderItinerary(ctx, 6, 9, []DetailPosition{{DetailID: 1, DayNumber: 1}})
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = d.memberUC.ReorderItinerary(ctx, 5, 9, nil)
	assert.ErrorIs(t, err, e.ErrMissingFields)
}

func TestMemberUseCase_DeleteItinerary(t *testing.T) {
	d := newMemberDeps(t)

	d.pool.ExpectBegin()
	d.itinerary.On("Delete", mock.Anything, int64(5), int64(9)).Return(nil).Once()
	d.outbox.On("Create", mock.Anything, eventOfType(EventItineraryDeleted, "5")).Return(&OutboxEvent{}, nil).Once()
	d.pool.ExpectCommit()

	require.NoError(t, d.memberUC.DeleteItinerary(context.Background(), 5, 9))
}
