package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avelez/shopadmin-be/internal/api/handlers"
	"github.com/avelez/shopadmin-be/internal/auth"
	"github.com/avelez/shopadmin-be/internal/config"
	"github.com/avelez/shopadmin-be/internal/database"
	"github.com/avelez/shopadmin-be/internal/services"
)

const testSecret = "router-test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Env:           "development",
		CORSOrigin:    "http://localhost:3000",
		AdminUsername: "admin",
		AdminPassword: "admin123",
		AuthSecret:    testSecret,
		UploadDir:     t.TempDir(),
	}

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	verifier := auth.NewCredentialVerifier(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	codec := auth.NewCodec(cfg.AuthSecret)
	cookies := auth.NewCookieStore(false)
	gate := auth.NewGate(codec, cookies)

	productService := services.NewProductService(db, nil)
	uploader := services.NewLocalUploader(cfg.UploadDir, "/uploads")

	router := NewRouter(
		cfg,
		gate,
		handlers.NewAuthHandler(verifier, codec, cookies, gate),
		handlers.NewProductHandler(productService),
		handlers.NewStatsHandler(productService),
		handlers.NewUploadHandler(uploader),
		handlers.NewWebSocketHandler(nil),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// noRedirectClient surfaces 3xx responses instead of following them.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body interface{}, cookie *http.Cookie) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) handlers.Envelope {
	t.Helper()
	defer resp.Body.Close()
	var env handlers.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func login(t *testing.T, srv *httptest.Server) *http.Cookie {
	t.Helper()
	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login",
		map[string]string{"username": "admin", "password": "admin123"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set on login")
	return nil
}

func TestLoginLogoutFlow(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	// Login sets a session cookie with a 24h expiry and hardened attributes.
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/login",
		map[string]string{"username": "admin", "password": "admin123"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			cookie = c
		}
	}
	resp.Body.Close()
	if cookie == nil {
		t.Fatal("no session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("cookie not HttpOnly")
	}
	if cookie.Path != "/" {
		t.Errorf("cookie path = %q", cookie.Path)
	}
	if d := time.Until(cookie.Expires); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("cookie expiry %v not ~24h out", cookie.Expires)
	}

	// Authenticated identity check.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/me", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var me handlers.MeResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	resp.Body.Close()
	if !me.Success || !me.Authenticated || me.Username != "admin" {
		t.Errorf("me = %+v", me)
	}

	// Logout clears the cookie.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/logout", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			cleared = c
		}
	}
	resp.Body.Close()
	if cleared == nil || cleared.Value != "" || cleared.MaxAge != -1 {
		t.Errorf("logout cookie = %+v, want cleared", cleared)
	}

	// Without the cookie the route gate denies the request before the
	// handler runs, so the body is the gate's error envelope.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", resp.StatusCode)
	}
	denied := decodeEnvelope(t, resp)
	if denied.Success || denied.Error != "Unauthorized" {
		t.Errorf("me after logout envelope = %+v", denied)
	}
}

func TestLoginRejections(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest},
		{"missing username", map[string]string{"password": "admin123"}, http.StatusBadRequest},
		{"empty body", map[string]string{}, http.StatusBadRequest},
		{"wrong password", map[string]string{"username": "admin", "password": "wrong"}, http.StatusUnauthorized},
		{"wrong username", map[string]string{"username": "root", "password": "admin123"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login", tt.body, nil)
			env := decodeEnvelope(t, resp)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if env.Success || env.Error == "" {
				t.Errorf("envelope = %+v", env)
			}
			for _, c := range resp.Cookies() {
				if c.Name == auth.SessionCookieName && c.Value != "" {
					t.Error("session cookie set on failed login")
				}
			}
		})
	}
}

func expiredToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"username":  "admin",
		"expiresAt": time.Now().Add(-time.Hour).UnixMilli(),
		"iat":       time.Now().Add(-25 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	return token
}

func TestProtectedRoutesFailClosed(t *testing.T) {
	srv := newTestServer(t)
	client := noRedirectClient()

	cookies := map[string]*http.Cookie{
		"absent":    nil,
		"malformed": {Name: auth.SessionCookieName, Value: "garbage"},
		"expired":   {Name: auth.SessionCookieName, Value: expiredToken(t)},
	}

	for name, cookie := range cookies {
		t.Run("api "+name, func(t *testing.T) {
			resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/products", nil, cookie)
			env := decodeEnvelope(t, resp)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
			if env.Success || env.Error != "Unauthorized" {
				t.Errorf("envelope = %+v", env)
			}
		})

		t.Run("page "+name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/dashboard", nil)
			if cookie != nil {
				req.AddCookie(cookie)
			}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusFound {
				t.Errorf("status = %d, want 302", resp.StatusCode)
			}
			if loc := resp.Header.Get("Location"); loc != "/login" {
				t.Errorf("Location = %q, want /login", loc)
			}
		})
	}
}

func TestPublicRouteBypass(t *testing.T) {
	srv := newTestServer(t)

	// A broken cookie on the login endpoint must not trigger session checks:
	// the request reaches the handler and fails on its own merits (400).
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/login", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "garbage"})
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (handler), not 401 (gate)", resp.StatusCode)
	}
}

func TestProductCRUDOverAPI(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv)
	client := srv.Client()

	product := map[string]interface{}{
		"name":        "Keyboard",
		"description": "Mechanical keyboard",
		"price":       89.99,
		"stock":       25,
		"category":    "peripherals",
		"sku":         "KB-100",
		"status":      "active",
	}

	// Create.
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/products", product, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created struct {
		Success bool `json:"success"`
		Data    struct {
			ID  string `json:"id"`
			SKU string `json:"sku"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	resp.Body.Close()
	if !created.Success || created.Data.ID == "" {
		t.Fatalf("create response = %+v", created)
	}

	// Duplicate sku fails with the specific message; catalog is untouched.
	dup := map[string]interface{}{}
	for k, v := range product {
		dup[k] = v
	}
	dup["name"] = "Another Keyboard"
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/products", dup, cookie)
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate status = %d, want 400", resp.StatusCode)
	}
	if env.Error != "Product with this SKU already exists" {
		t.Errorf("duplicate error = %q", env.Error)
	}

	// List still has exactly one product.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/products", nil, cookie)
	var list struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(list.Data) != 1 {
		t.Errorf("list has %d products, want 1", len(list.Data))
	}

	// Update.
	product["name"] = "Renamed Keyboard"
	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/products/"+created.Data.ID, product, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("update status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Get by id.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/products/"+created.Data.ID, nil, cookie)
	var got struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	resp.Body.Close()
	if got.Data.Name != "Renamed Keyboard" {
		t.Errorf("name after update = %q", got.Data.Name)
	}

	// Delete, then 404.
	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/api/products/"+created.Data.ID, nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/api/products/"+created.Data.ID, nil, cookie)
	env = decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusNotFound || env.Error != "Product not found" {
		t.Errorf("get deleted: status = %d, error = %q", resp.StatusCode, env.Error)
	}
}

func TestProductValidationOverAPI(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/products",
		map[string]interface{}{"name": "No SKU", "description": "missing fields", "category": "misc"}, cookie)
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if env.Success || env.Error == "" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestStatsOverAPI(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv)
	client := srv.Client()

	for i, in := range []map[string]interface{}{
		{"name": "Keyboard", "description": "desc", "price": 10.0, "stock": 25, "category": "peripherals", "sku": "KB-1"},
		{"name": "Mouse", "description": "desc", "price": 10.0, "stock": 4, "category": "peripherals", "sku": "MS-1"},
		{"name": "Monitor", "description": "desc", "price": 10.0, "stock": 12, "category": "displays", "sku": "MN-1", "status": "inactive"},
	} {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/products", in, cookie)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed %d status = %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/stats", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			TotalProducts    int `json:"totalProducts"`
			ActiveProducts   int `json:"activeProducts"`
			TotalStock       int `json:"totalStock"`
			LowStockProducts int `json:"lowStockProducts"`
			CategoryStats    []struct {
				Category string `json:"category"`
				Count    int    `json:"count"`
			} `json:"categoryStats"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	resp.Body.Close()

	d := out.Data
	if d.TotalProducts != 3 || d.ActiveProducts != 2 || d.TotalStock != 41 || d.LowStockProducts != 1 {
		t.Errorf("stats = %+v", d)
	}
	if len(d.CategoryStats) != 2 || d.CategoryStats[0].Category != "peripherals" || d.CategoryStats[0].Count != 2 {
		t.Errorf("categoryStats = %+v", d.CategoryStats)
	}
}

func TestUploadOverAPI(t *testing.T) {
	srv := newTestServer(t)
	cookie := login(t, srv)
	client := srv.Client()

	// Missing file field.
	var empty bytes.Buffer
	form := multipart.NewWriter(&empty)
	form.Close()
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/upload", &empty)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.AddCookie(cookie)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest || env.Error != "No file provided" {
		t.Errorf("no-file: status = %d, error = %q", resp.StatusCode, env.Error)
	}

	// Successful upload to the local store.
	var body bytes.Buffer
	form = multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, "fake-image-bytes")
	form.Close()

	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/api/upload", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.AddCookie(cookie)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var uploaded struct {
		Success bool `json:"success"`
		Data    struct {
			URL      string `json:"url"`
			PublicID string `json:"publicId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	resp.Body.Close()
	if !uploaded.Success || !strings.HasPrefix(uploaded.Data.URL, "/uploads/") || uploaded.Data.PublicID == "" {
		t.Errorf("upload response = %+v", uploaded)
	}

	// The stored file is served back on the uploads route.
	resp = doJSON(t, client, http.MethodGet, srv.URL+uploaded.Data.URL, nil, cookie)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("fetch uploaded file status = %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != "fake-image-bytes" {
		t.Errorf("served file = %q", data)
	}
}
