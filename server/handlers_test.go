package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"raceledger/models"
	"raceledger/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockWagerService struct {
	mock.Mock
}

func (m *mockWagerService) CreateBet(ctx context.Context, userID, rivalID, amount int64) (*models.Bet, error) {
	args := m.Called(ctx, userID, rivalID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *mockWagerService) ResolveRace(ctx context.Context, outcome models.RaceOutcome) (*models.BetResolution, error) {
	args := m.Called(ctx, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetResolution), args.Error(1)
}

type mockMarketplaceService struct {
	mock.Mock
}

func (m *mockMarketplaceService) ListForSale(ctx context.Context, carID, sellerID, price int64, currency string) (*models.Listing, error) {
	args := m.Called(ctx, carID, sellerID, price, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *mockMarketplaceService) Listings(ctx context.Context) ([]*models.MarketEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MarketEntry), args.Error(1)
}

func (m *mockMarketplaceService) Catalog(ctx context.Context) ([]*models.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Car), args.Error(1)
}

func (m *mockMarketplaceService) Buy(ctx context.Context, listingID, buyerID int64) (*models.PurchaseResult, error) {
	args := m.Called(ctx, listingID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseResult), args.Error(1)
}

func (m *mockMarketplaceService) BuyFromShop(ctx context.Context, carID, buyerID int64) (*models.PurchaseResult, error) {
	args := m.Called(ctx, carID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseResult), args.Error(1)
}

type mockExchangeService struct {
	mock.Mock
}

func (m *mockExchangeService) CreateOrder(ctx context.Context, ownerID int64, side models.OrderSide, kind models.OrderKind, amount int64, pair string, price *int64) (*models.Order, error) {
	args := m.Called(ctx, ownerID, side, kind, amount, pair, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockExchangeService) OrderBook(ctx context.Context, pair string) (*models.OrderBook, error) {
	args := m.Called(ctx, pair)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderBook), args.Error(1)
}

func (m *mockExchangeService) CancelOrder(ctx context.Context, ownerID, orderID int64) (*models.Order, error) {
	args := m.Called(ctx, ownerID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockExchangeService) RecentTrades(ctx context.Context, pair string, limit int) ([]*models.ExchangeRecord, error) {
	args := m.Called(ctx, pair, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExchangeRecord), args.Error(1)
}

func (m *mockExchangeService) TransferToken(ctx context.Context, fromID, toID int64, token string, amount int64) (*models.ExchangeRecord, error) {
	args := m.Called(ctx, fromID, toID, token, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExchangeRecord), args.Error(1)
}

func (m *mockExchangeService) TransferNFT(ctx context.Context, fromID, toID, carID int64) (*models.NFTRecord, error) {
	args := m.Called(ctx, fromID, toID, carID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NFTRecord), args.Error(1)
}

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func newTestServer(wagers *mockWagerService, marketplace *mockMarketplaceService, exchange *mockExchangeService, accounts *mockAccountService) *httptest.Server {
	srv := NewServer(Config{Port: 0}, Handlers{
		Wager:       NewWagerHandler(wagers),
		Marketplace: NewMarketplaceHandler(marketplace),
		Exchange:    NewExchangeHandler(exchange),
		Account:     NewAccountHandler(accounts, marketplace),
	})
	return httptest.NewServer(srv.httpServer.Handler)
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	assert.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	return resp
}

func TestCreateBetHandler(t *testing.T) {
	wagers := new(mockWagerService)
	ts := newTestServer(wagers, new(mockMarketplaceService), new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	wagers.On("CreateBet", mock.Anything, int64(100), int64(200), int64(1000)).
		Return(&models.Bet{ID: 7, Player1ID: 100, Player2ID: 200, Amount: 1000, Status: models.BetStatusPending}, nil)

	resp := postJSON(t, ts.URL+"/api/bet/create", map[string]any{
		"userId": 100, "rivalId": 200, "cantidad": 1000,
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out createBetResponse
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, int64(7), out.Bet.ID)
	assert.Equal(t, models.BetStatusPending, out.Bet.Status)

	wagers.AssertExpectations(t)
}

func TestCreateBetHandler_InvalidBody(t *testing.T) {
	wagers := new(mockWagerService)
	ts := newTestServer(wagers, new(mockMarketplaceService), new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/bet/create", bytes.NewReader([]byte("{not json")))
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	wagers.AssertNotCalled(t, "CreateBet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBetHandler_InsufficientFunds(t *testing.T) {
	wagers := new(mockWagerService)
	ts := newTestServer(wagers, new(mockMarketplaceService), new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	wagers.On("CreateBet", mock.Anything, int64(100), int64(200), int64(99999)).
		Return(nil, fmt.Errorf("balance too low: %w", models.ErrInsufficientFunds))

	resp := postJSON(t, ts.URL+"/api/bet/create", map[string]any{
		"userId": 100, "rivalId": 200, "cantidad": 99999,
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitResultHandler(t *testing.T) {
	wagers := new(mockWagerService)
	ts := newTestServer(wagers, new(mockMarketplaceService), new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	winnerID := int64(100)
	wagers.On("ResolveRace", mock.Anything, models.StructuredOutcome{
		UserID: 100, RivalID: 200, RaceTime: 83.5, Won: true, Position: 1,
	}).Return(&models.BetResolution{
		Bet:      &models.Bet{ID: 7, Player1ID: 100, Player2ID: 200, Amount: 1000, Status: models.BetStatusResolved, WinnerID: &winnerID},
		WinnerID: 100,
		LoserID:  200,
		Payout:   2000,
	}, nil)

	resp := postJSON(t, ts.URL+"/api/race/result", map[string]any{
		"userId": 100, "rivalId": 200, "tiempo": 83.5, "gano": true, "posicion": 1,
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out resolutionResponse
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, int64(100), out.WinnerID)
	assert.Equal(t, int64(2000), out.Payout)

	wagers.AssertExpectations(t)
}

func TestSubmitResultHandler_MissingParticipants(t *testing.T) {
	wagers := new(mockWagerService)
	ts := newTestServer(wagers, new(mockMarketplaceService), new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/race/result", map[string]any{
		"tiempo": 83.5, "gano": true, "posicion": 1,
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	wagers.AssertNotCalled(t, "ResolveRace", mock.Anything, mock.Anything)
}

func TestSubmitResultHandler_DoubleResolve(t *testing.T) {
	wagers := new(mockWagerService)
	ts := newTestServer(wagers, new(mockMarketplaceService), new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	wagers.On("ResolveRace", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("no pending bet: %w", models.ErrNotFound))

	resp := postJSON(t, ts.URL+"/api/race/result", map[string]any{
		"userId": 100, "rivalId": 200, "tiempo": 83.5, "gano": true, "posicion": 1,
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitSimpleResultHandler(t *testing.T) {
	wagers := new(mockWagerService)
	ts := newTestServer(wagers, new(mockMarketplaceService), new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	wagers.On("ResolveRace", mock.Anything, models.FreeTextOutcome{WinnerSlot: 2}).
		Return(&models.BetResolution{
			Bet:      &models.Bet{ID: 9, Player1ID: 100, Player2ID: 200, Amount: 500},
			WinnerID: 200,
			LoserID:  100,
			Payout:   1000,
		}, nil)

	resp := postJSON(t, ts.URL+"/api/race/result-simple", map[string]any{
		"resultado": "gana player 2",
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	wagers.AssertExpectations(t)
}

func TestSubmitSimpleResultHandler_Unparseable(t *testing.T) {
	wagers := new(mockWagerService)
	ts := newTestServer(wagers, new(mockMarketplaceService), new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/race/result-simple", map[string]any{
		"resultado": "empate",
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	wagers.AssertNotCalled(t, "ResolveRace", mock.Anything, mock.Anything)
}

func TestBuyHandler(t *testing.T) {
	marketplace := new(mockMarketplaceService)
	ts := newTestServer(new(mockWagerService), marketplace, new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	marketplace.On("Buy", mock.Anything, int64(3), int64(200)).
		Return(&models.PurchaseResult{CarID: 5, BuyerID: 200, SellerID: 100, Price: 12000, Signature: "ab"}, nil)

	resp := postJSON(t, ts.URL+"/api/marketplace/buy", map[string]any{
		"listingId": 3, "buyerId": 200,
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(5), body["carId"])
	assert.Equal(t, float64(12000), body["price"])
	assert.Equal(t, "ab", body["signature"])

	marketplace.AssertExpectations(t)
}

func TestShopBuyHandler_RequiresCallerIdentity(t *testing.T) {
	marketplace := new(mockMarketplaceService)
	ts := newTestServer(new(mockWagerService), marketplace, new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/shop/buy", map[string]any{"carId": 5}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	marketplace.AssertNotCalled(t, "BuyFromShop", mock.Anything, mock.Anything, mock.Anything)
}

func TestShopBuyHandler(t *testing.T) {
	marketplace := new(mockMarketplaceService)
	ts := newTestServer(new(mockWagerService), marketplace, new(mockExchangeService), new(mockAccountService))
	defer ts.Close()

	marketplace.On("BuyFromShop", mock.Anything, int64(5), int64(200)).
		Return(&models.PurchaseResult{CarID: 5, BuyerID: 200, SellerID: models.ShopSellerID, Price: 9000, Signature: "cd"}, nil)

	resp := postJSON(t, ts.URL+"/api/shop/buy", map[string]any{"carId": 5}, map[string]string{
		"X-User-ID": "200",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	marketplace.AssertExpectations(t)
}

func TestCreateOrderHandler(t *testing.T) {
	exchange := new(mockExchangeService)
	ts := newTestServer(new(mockWagerService), new(mockMarketplaceService), exchange, new(mockAccountService))
	defer ts.Close()

	price := int64(150)
	exchange.On("CreateOrder", mock.Anything, int64(100), models.OrderSideBuy, models.OrderKindLimit, int64(10), "RCF/USDT", &price).
		Return(&models.Order{ID: 4, OwnerID: 100, Side: models.OrderSideBuy, Status: models.OrderStatusOpen}, nil)

	resp := postJSON(t, ts.URL+"/api/exchange/order", map[string]any{
		"side": "buy", "type": "limit", "amount": 10, "pair": "RCF/USDT", "price": 150,
	}, map[string]string{"X-User-ID": "100"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	exchange.AssertExpectations(t)
}

func TestCancelOrderHandler(t *testing.T) {
	exchange := new(mockExchangeService)
	ts := newTestServer(new(mockWagerService), new(mockMarketplaceService), exchange, new(mockAccountService))
	defer ts.Close()

	exchange.On("CancelOrder", mock.Anything, int64(100), int64(4)).
		Return(&models.Order{ID: 4, OwnerID: 100, Status: models.OrderStatusCancelled}, nil)

	resp := postJSON(t, ts.URL+"/api/exchange/order/cancel", map[string]any{"orderId": 4}, map[string]string{
		"X-User-ID": "100",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out cancelOrderResponse
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "cancelled", out.Status)
	assert.Equal(t, int64(4), out.Order.ID)
	assert.Equal(t, models.OrderStatusCancelled, out.Order.Status)
}

func TestCancelOrderHandler_Forbidden(t *testing.T) {
	exchange := new(mockExchangeService)
	ts := newTestServer(new(mockWagerService), new(mockMarketplaceService), exchange, new(mockAccountService))
	defer ts.Close()

	exchange.On("CancelOrder", mock.Anything, int64(100), int64(4)).
		Return(nil, fmt.Errorf("order 4 belongs to another user: %w", models.ErrForbidden))

	resp := postJSON(t, ts.URL+"/api/exchange/order/cancel", map[string]any{"orderId": 4}, map[string]string{
		"X-User-ID": "100",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOrderBookHandler(t *testing.T) {
	exchange := new(mockExchangeService)
	ts := newTestServer(new(mockWagerService), new(mockMarketplaceService), exchange, new(mockAccountService))
	defer ts.Close()

	exchange.On("OrderBook", mock.Anything, "RCF/USDT").Return(&models.OrderBook{
		Buy:  []*models.Order{{ID: 1, Side: models.OrderSideBuy}},
		Sell: []*models.Order{},
	}, nil)

	resp, err := http.Get(ts.URL + "/api/exchange/orderbook?pair=RCF%2FUSDT")
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var book models.OrderBook
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&book))
	assert.Len(t, book.Buy, 1)
	assert.NotNil(t, book.Sell)
}

func TestRecentTradesHandler(t *testing.T) {
	exchange := new(mockExchangeService)
	ts := newTestServer(new(mockWagerService), new(mockMarketplaceService), exchange, new(mockAccountService))
	defer ts.Close()

	exchange.On("RecentTrades", mock.Anything, "RCF/USDT", 5).
		Return([]*models.ExchangeRecord{{ID: 1, Token: "RCF/USDT"}}, nil)

	resp, err := http.Get(ts.URL + "/api/exchange/recent-trades?pair=RCF%2FUSDT&limit=5")
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	exchange.AssertExpectations(t)
}

func TestGetBalanceHandler(t *testing.T) {
	accounts := new(mockAccountService)
	ts := newTestServer(new(mockWagerService), new(mockMarketplaceService), new(mockExchangeService), accounts)
	defer ts.Close()

	accounts.On("GetAccount", mock.Anything, int64(100)).
		Return(&models.Account{UserID: 100, Balance: 5000}, nil)

	resp, err := http.Get(ts.URL + "/api/balance/100")
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var account models.Account
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&account))
	assert.Equal(t, int64(5000), account.Balance)
}

func TestGetBalanceHandler_UnknownUser(t *testing.T) {
	accounts := new(mockAccountService)
	ts := newTestServer(new(mockWagerService), new(mockMarketplaceService), new(mockExchangeService), accounts)
	defer ts.Close()

	accounts.On("GetAccount", mock.Anything, int64(999)).
		Return(nil, fmt.Errorf("user 999: %w", models.ErrNotFound))

	resp, err := http.Get(ts.URL + "/api/balance/999")
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransferNFTHandler(t *testing.T) {
	exchange := new(mockExchangeService)
	ts := newTestServer(new(mockWagerService), new(mockMarketplaceService), exchange, new(mockAccountService))
	defer ts.Close()

	exchange.On("TransferNFT", mock.Anything, int64(100), int64(200), int64(5)).
		Return(&models.NFTRecord{ID: 1, FromID: 100, ToID: 200, CarID: 5, Signature: "ef"}, nil)

	resp := postJSON(t, ts.URL+"/api/exchange/nft", map[string]any{
		"fromUserId": 100, "toUserId": 200, "nft": 5,
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	exchange.AssertExpectations(t)
}

var _ service.WagerService = (*mockWagerService)(nil)
var _ service.MarketplaceService = (*mockMarketplaceService)(nil)
var _ service.ExchangeService = (*mockExchangeService)(nil)
var _ service.AccountService = (*mockAccountService)(nil)
