package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/controllers"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/app/routes"
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ai"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/router"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testApp struct {
	t       *testing.T
	handler http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Review{}, &models.Request{}))

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://test/storage")
	require.NoError(t, err)

	var (
		jwt      = auth.NewJWT("test-secret", time.Hour, nil)
		products = repositories.NewProductRepository(db)
		reviews  = repositories.NewReviewRepository(db)
		requests = repositories.NewRequestRepository(db)
	)
	authSvc := services.NewAuthService(repositories.NewUserRepository(db), jwt)
	catalog := services.NewCatalogService(products, 0)
	listings := services.NewListingService(products, reviews, func() storage.Disk { return disk }, 1<<20)

	r := router.New()
	routes.RegisterAPI(r, routes.API{
		Verifier:      jwt,
		LocalAccounts: true,
		AIRateLimit:   2,
		Auth:          controllers.NewAuthController(authSvc),
		Listings:      controllers.NewListingController(catalog, listings, services.NewListingAIService(ai.New(ai.Config{})), 1<<20),
		Reviews:       controllers.NewReviewController(services.NewReviewService(products, reviews)),
		Requests:      controllers.NewRequestController(services.NewRequestService(products, requests)),
	})
	return &testApp{t: t, handler: r.Handler()}
}

func (a *testApp) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return a.send(req, token)
}

func (a *testApp) send(req *http.Request, token string) (int, envelope) {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (a *testApp) signup(name, email string) string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(a.t, http.StatusCreated, code, env.Message)
	var s struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &s))
	return s.Token
}

func (a *testApp) createListing(token, title string, price float64, kind string) string {
	a.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       title,
		"description": "Carefully used and in good working order.",
		"price":       fmt.Sprint(price),
		"category":    models.CategoryElectronics,
		"type":        kind,
		"condition":   models.ConditionUsed,
	}
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("photo", "item.png")
	require.NoError(a.t, err)
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(a.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/listings", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, env := a.send(req, token)
	require.Equal(a.t, http.StatusCreated, code, env.Message)

	var p models.Product
	require.NoError(a.t, json.Unmarshal(env.Data, &p))
	assert.True(a.t, strings.HasPrefix(p.ImageURL, "http://test/storage/listings/"))
	return p.ID
}

func TestMarketplaceFlow(t *testing.T) {
	app := newTestApp(t)
	seller := app.signup("Sally Seller", "sally@example.com")
	buyer := app.signup("Bill Buyer", "bill@example.com")

	id := app.createListing(seller, "Noise cancelling headphones", 120, models.TypeSale)
	app.createListing(seller, "Projector for weekends", 30, models.TypeRent)

	// browse
	code, env := app.do(http.MethodGet, "/api/listings?search=HEADPHONES&max_price=120", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list []models.Product
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	code, env = app.do(http.MethodGet, "/api/listings?min_price=abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "min_price")

	// review
	code, _ = app.do(http.MethodPost, "/api/listings/"+id+"/reviews", buyer, map[string]interface{}{"rating": 5, "comment": "Crisp sound."})
	require.Equal(t, http.StatusCreated, code)
	code, env = app.do(http.MethodPost, "/api/listings/"+id+"/reviews", buyer, map[string]interface{}{"rating": 9, "comment": "?"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "rating")

	code, env = app.do(http.MethodGet, "/api/listings/"+id, "", nil)
	require.Equal(t, http.StatusOK, code)
	var detail struct {
		ReviewCount   int     `json:"review_count"`
		AverageRating float64 `json:"average_rating"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, 1, detail.ReviewCount)
	assert.Equal(t, 5.0, detail.AverageRating)

	// edit is seller only
	update := map[string]interface{}{
		"title": "Noise cancelling headphones", "description": "Carefully used and in good working order.",
		"price": 99, "category": models.CategoryElectronics, "type": models.TypeSale, "condition": models.ConditionUsed,
	}
	code, _ = app.do(http.MethodPut, "/api/listings/"+id, buyer, update)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = app.do(http.MethodPut, "/api/listings/"+id, seller, update)
	assert.Equal(t, http.StatusOK, code)

	// requests
	code, _ = app.do(http.MethodPost, "/api/listings/"+id+"/requests", seller, map[string]string{})
	assert.Equal(t, http.StatusForbidden, code, "seller cannot request own listing")

	code, env = app.do(http.MethodPost, "/api/listings/"+id+"/requests", buyer, map[string]string{"message": "Is it still boxed?"})
	require.Equal(t, http.StatusCreated, code)
	var req models.Request
	require.NoError(t, json.Unmarshal(env.Data, &req))
	assert.Equal(t, models.StatusPending, req.Status)

	code, env = app.do(http.MethodGet, "/api/requests/incoming", seller, nil)
	require.Equal(t, http.StatusOK, code)
	var incoming []models.Request
	require.NoError(t, json.Unmarshal(env.Data, &incoming))
	assert.Len(t, incoming, 1)

	code, _ = app.do(http.MethodPatch, "/api/requests/"+req.ID, buyer, map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = app.do(http.MethodPatch, "/api/requests/"+req.ID, seller, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = app.do(http.MethodPatch, "/api/requests/"+req.ID, seller, map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = app.do(http.MethodPatch, "/api/requests/"+req.ID, seller, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, code)

	// delete
	code, _ = app.do(http.MethodDelete, "/api/listings/"+id, seller, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = app.do(http.MethodGet, "/api/listings/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.signup("Dana", "dana@example.com")

	code, _ := app.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Dana", "email": "dana@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, code)

	code, env := app.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "D", "email": "nope", "password": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "email")

	code, _ = app.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "dana@example.com", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = app.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	var u models.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "Dana", u.Name)

	code, _ = app.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = app.do(http.MethodGet, "/api/listings/mine", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGenerateDetailsUnavailable(t *testing.T) {
	app := newTestApp(t)
	token := app.signup("Gen", "gen@example.com")
	body := map[string]string{"photo_data_uri": "data:image/png;base64,iVBORw0KGgo=", "category": models.CategoryAppliances}

	code, _ := app.do(http.MethodPost, "/api/listings/generate-details", token, body)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = app.do(http.MethodPost, "/api/listings/generate-details", token, body)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = app.do(http.MethodPost, "/api/listings/generate-details", token, body)
	assert.Equal(t, http.StatusTooManyRequests, code, "per-client limit of 2 per minute")
}

func TestListingStoreValidation(t *testing.T) {
	app := newTestApp(t)
	token := app.signup("Val", "val@example.com")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Lamp"))
	require.NoError(t, w.WriteField("price", "cheap"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/listings", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	code, env := app.send(req, token)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "price")
}

func TestListingStoreRejectsNonFinitePrice(t *testing.T) {
	app := newTestApp(t)
	token := app.signup("Nina", "nina@example.com")
	app.createListing(token, "Espresso machine", 80, models.TypeSale)

	for _, price := range []string{"Inf", "+Infinity", "-Inf", "NaN"} {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range map[string]string{
			"title":       "Broken price listing",
			"description": "This listing carries a price that is not a number.",
			"price":       price,
			"category":    models.CategoryAppliances,
			"type":        models.TypeSale,
			"condition":   models.ConditionNew,
		} {
			require.NoError(t, w.WriteField(k, v))
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/listings", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		code, env := app.send(req, token)
		assert.Equal(t, http.StatusUnprocessableEntity, code, price)
		assert.Contains(t, env.Errors, "price", price)
	}

	code, env := app.do(http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list []models.Product
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	for _, q := range []string{"min_price=NaN", "max_price=Inf"} {
		code, _ = app.do(http.MethodGet, "/api/listings?"+q, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, code, q)
	}
}
