package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/reset"
	"github.com/Skotchmaster/storefront/internal/token"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db), "failed to migrate tables")
	return db
}

type publishedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Topic: topic, Key: key, Event: event.(map[string]any)})
	return nil
}

func (f *fakePublisher) byType(eventType string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedEvent
	for _, ev := range f.events {
		if ev.Event["type"] == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type sentMail struct {
	To      string
	Subject string
	Body    string
	HTML    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(to, subject, body, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body, HTML: htmlBody})
	return nil
}

type testEnv struct {
	DB        *gorm.DB
	E         *echo.Echo
	Tokens    *token.Service
	Reset     *reset.Service
	Publisher *fakePublisher
	Mailer    *fakeMailer

	Auth      *AuthHandler
	Stores    *StoreHandler
	Products  *ProductHandler
	Cart      *CartHandler
	Reviews   *ReviewHandler
	Dashboard *DashboardHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := InitTestDB(t)
	pub := &fakePublisher{}
	mailer := &fakeMailer{}

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	resetSvc := &reset.Service{DB: db, Mailer: mailer, Tokens: tokens, BaseURL: "http://localhost:8080"}
	checkoutSvc := &checkout.Service{DB: db, Mailer: mailer, Events: pub}

	return &testEnv{
		DB:        db,
		E:         echo.New(),
		Tokens:    tokens,
		Reset:     resetSvc,
		Publisher: pub,
		Mailer:    mailer,
		Auth:      &AuthHandler{DB: db, Tokens: tokens, Reset: resetSvc},
		Stores:    &StoreHandler{DB: db, Events: pub},
		Products:  &ProductHandler{DB: db, Events: pub},
		Cart:      &CartHandler{DB: db, Checkout: checkoutSvc},
		Reviews:   &ReviewHandler{DB: db},
		Dashboard: &DashboardHandler{DB: db},
	}
}

// doJSONRequest builds an echo context for calling a handler directly,
// optionally acting as a logged-in user.
func (env *testEnv) doJSONRequest(t *testing.T, method, target string, body any, as *models.User) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	if as != nil {
		c.Set("userID", as.ID)
		c.Set("role", as.Role)
	}
	return rec, c
}

func (env *testEnv) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()

	passwordHash, err := hash.HashPassword("password")
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		Role:         role,
	}
	require.NoError(t, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) createStore(t *testing.T, vendor *models.User, name string) *models.Store {
	t.Helper()

	store := models.Store{Name: name, Description: "test store", VendorID: vendor.ID}
	require.NoError(t, env.DB.Create(&store).Error)
	return &store
}

func (env *testEnv) createProduct(t *testing.T, store *models.Store, name, price string, stock uint) *models.Product {
	t.Helper()

	product := models.Product{
		StoreID:     store.ID,
		Name:        name,
		Description: "test product",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
	}
	require.NoError(t, env.DB.Create(&product).Error)
	return &product
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}
