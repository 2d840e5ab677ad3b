package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/grooveyard/lpmarket/internal/api"
	"github.com/grooveyard/lpmarket/internal/config"
	"github.com/grooveyard/lpmarket/internal/session"
)

// fakeProduct is the wire shape the fake backend serves.
type fakeProduct struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ArtistName    string `json:"artistName"`
	Year          int    `json:"year"`
	Condition     string `json:"condition"`
	Price         int64  `json:"price"`
	Stock         int    `json:"stock"`
	IsLimited     bool   `json:"isLimited"`
	SaleStartAt   string `json:"saleStartAt,omitempty"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
}

// fakeBackend is an in-memory stand-in for the marketplace backend.
type fakeBackend struct {
	mu          sync.Mutex
	products    []fakeProduct
	requests    []string // method+path sequence, for ordering assertions
	fetchStatus int      // non-zero forces this status on /products/all
	orderStatus int      // non-zero forces this status on order endpoints
	orderMsg    string
	imageBytes  []byte // served for every cover image request
}

func (b *fakeBackend) record(r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	b.mu.Unlock()
}

func (b *fakeBackend) requestLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-fake"})
	})

	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("GET /products/all", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		status := b.fetchStatus
		products := append([]fakeProduct(nil), b.products...)
		b.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(products)
	})

	order := func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.orderStatus != 0 {
			w.WriteHeader(b.orderStatus)
			json.NewEncoder(w).Encode(map[string]string{"message": b.orderMsg})
			return
		}
		var req struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for i := range b.products {
			if b.products[i].ID == req.ProductID {
				b.products[i].Stock -= req.Quantity
			}
		}
		w.WriteHeader(http.StatusCreated)
	}
	mux.HandleFunc("POST /orders/create", order)
	mux.HandleFunc("POST /orders/create-limited", order)

	mux.HandleFunc("POST /products/create", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if err := r.ParseMultipartForm(imagingTestLimit); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}
		var form fakeProduct
		if err := json.Unmarshal([]byte(r.FormValue("dto")), &form); err != nil {
			http.Error(w, "bad dto", http.StatusBadRequest)
			return
		}
		form.ID = "new-1"
		b.mu.Lock()
		b.products = append(b.products, form)
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("GET /products/images/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		data := b.imageBytes
		b.mu.Unlock()
		if data == nil {
			data = []byte("jpeg-bytes")
		}
		w.Write(data)
	})

	return mux
}

const imagingTestLimit = 16 << 20

func stockedCatalog() []fakeProduct {
	return []fakeProduct{
		{ID: "1", Name: "Abbey Road", ArtistName: "The Beatles", Price: 120000, Stock: 1, Condition: "VG+", Year: 1969, ThumbnailPath: "abbey.jpg"},
		{ID: "limited-1", Name: "Blue Train", ArtistName: "John Coltrane", Price: 380000, Stock: 3, IsLimited: true, Condition: "NEW", Year: 1957, SaleStartAt: "2020-01-01T00:00:00", ThumbnailPath: "blue.jpg"},
	}
}

func newTestManager(t *testing.T, backend *fakeBackend) (*Manager, *config.Settings) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	settings := config.DefaultSettings()
	settings.BackendURL = srv.URL
	settings.SessionPath = filepath.Join(t.TempDir(), "session.json")
	settings.PrefetchThumbnails = false

	mgr, err := NewManager(settings, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return mgr, settings
}

func signIn(t *testing.T, mgr *Manager) {
	t.Helper()
	if err := mgr.Login(context.Background(), "collector", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestManager_LoginPersistsSession(t *testing.T) {
	backend := &fakeBackend{}
	mgr, settings := newTestManager(t, backend)

	signIn(t, mgr)

	if !mgr.SignedIn() {
		t.Fatal("manager should be signed in")
	}
	if got := mgr.Session().DisplayName; got != "collector" {
		t.Errorf("DisplayName = %q", got)
	}

	// Token and display name land on disk together.
	persisted, err := session.NewStore(settings.SessionPath).Load()
	if err != nil {
		t.Fatalf("load persisted session: %v", err)
	}
	if persisted.Token != "tok-fake" || persisted.DisplayName != "collector" {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestManager_FetchCatalog_Partitions(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog()}
	mgr, _ := newTestManager(t, backend)

	cat, err := mgr.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}

	if len(cat.Regular) != 1 || len(cat.Limited) != 1 {
		t.Fatalf("partition = %d/%d, want 1/1", len(cat.Regular), len(cat.Limited))
	}
	if cat.Regular[0].ID != "1" || cat.Limited[0].ID != "limited-1" {
		t.Errorf("products in wrong groups: %+v", cat)
	}
	if !strings.HasSuffix(cat.Regular[0].ThumbnailURL, "/products/images/abbey.jpg") {
		t.Errorf("thumbnail not qualified: %q", cat.Regular[0].ThumbnailURL)
	}
	if cat.Limited[0].SaleStartAt == nil {
		t.Error("limited sale start not parsed")
	}
}

func TestManager_FetchCatalog_UnauthorizedForcesLogout(t *testing.T) {
	backend := &fakeBackend{fetchStatus: http.StatusUnauthorized}
	mgr, settings := newTestManager(t, backend)
	signIn(t, mgr)

	_, err := mgr.FetchCatalog(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}

	if mgr.SignedIn() {
		t.Error("session should be cleared after a rejected token")
	}
	persisted, _ := session.NewStore(settings.SessionPath).Load()
	if persisted.Active() {
		t.Error("persisted session should be cleared too")
	}
}

func TestManager_FetchCatalog_ServerErrorKeepsSnapshot(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog()}
	mgr, _ := newTestManager(t, backend)

	if _, err := mgr.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	backend.mu.Lock()
	backend.fetchStatus = http.StatusInternalServerError
	backend.mu.Unlock()

	if _, err := mgr.FetchCatalog(context.Background()); err == nil {
		t.Fatal("second fetch should fail")
	}

	// Stale-but-valid beats blank.
	if got := mgr.Catalog().Len(); got != 2 {
		t.Errorf("catalog lost after failed fetch: Len() = %d, want 2", got)
	}
}

func TestManager_Purchase_RoutesByPartition(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog()}
	mgr, _ := newTestManager(t, backend)
	signIn(t, mgr)

	if _, err := mgr.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if err := mgr.Purchase(context.Background(), "limited-1"); err != nil {
		t.Fatalf("limited purchase failed: %v", err)
	}
	if err := mgr.Purchase(context.Background(), "1"); err != nil {
		t.Fatalf("regular purchase failed: %v", err)
	}

	var orderPaths []string
	for _, r := range backend.requestLog() {
		if strings.HasPrefix(r, "POST /orders/") {
			orderPaths = append(orderPaths, r)
		}
	}
	want := []string{"POST /orders/create-limited", "POST /orders/create"}
	if len(orderPaths) != 2 || orderPaths[0] != want[0] || orderPaths[1] != want[1] {
		t.Errorf("order routing = %v, want %v", orderPaths, want)
	}
}

func TestManager_Purchase_RefreshObservesNewStock(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog()}
	mgr, _ := newTestManager(t, backend)
	signIn(t, mgr)

	if _, err := mgr.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if err := mgr.Purchase(context.Background(), "limited-1"); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	p, ok := mgr.Catalog().Find("limited-1")
	if !ok {
		t.Fatal("product missing after refresh")
	}
	if p.Stock == nil || *p.Stock != 2 {
		t.Errorf("stock after purchase = %v, want 2", p.Stock)
	}

	// The refresh must come strictly after the order.
	log := backend.requestLog()
	orderAt, fetchAfter := -1, -1
	for i, r := range log {
		if r == "POST /orders/create-limited" {
			orderAt = i
		}
		if r == "GET /products/all" && orderAt != -1 && i > orderAt {
			fetchAfter = i
			break
		}
	}
	if orderAt == -1 || fetchAfter == -1 {
		t.Errorf("expected a fetch after the order, log: %v", log)
	}
}

func TestManager_Purchase_RequiresSession(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog()}
	mgr, _ := newTestManager(t, backend)

	err := mgr.Purchase(context.Background(), "1")
	if !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("want ErrNotSignedIn, got %v", err)
	}

	for _, r := range backend.requestLog() {
		if strings.HasPrefix(r, "POST /orders/") {
			t.Fatalf("order request made without a session: %v", r)
		}
	}
}

func TestManager_Purchase_BusinessErrorVerbatim(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog(), orderStatus: http.StatusConflict, orderMsg: "stock exhausted"}
	mgr, _ := newTestManager(t, backend)
	signIn(t, mgr)

	if _, err := mgr.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	err := mgr.Purchase(context.Background(), "limited-1")
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *api.Error, got %v", err)
	}
	if apiErr.Message != "stock exhausted" {
		t.Errorf("message = %q, want backend wording verbatim", apiErr.Message)
	}

	// Failed purchase leaves the snapshot alone.
	if p, _ := mgr.Catalog().Find("limited-1"); p == nil || *p.Stock != 3 {
		t.Error("catalog should be unchanged after a failed purchase")
	}
}

func TestManager_CreateListing_Preconditions(t *testing.T) {
	backend := &fakeBackend{}
	mgr, _ := newTestManager(t, backend)

	// Signed out first, before anything else.
	err := mgr.CreateListing(context.Background(), ListingInput{})
	if !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("want ErrNotSignedIn, got %v", err)
	}

	signIn(t, mgr)
	before := len(backend.requestLog())

	tests := []struct {
		name string
		in   ListingInput
	}{
		{"missing image", ListingInput{Name: "A", ArtistName: "B"}},
		{"missing name", ListingInput{Image: testPNG(t), ArtistName: "B"}},
		{"negative price", ListingInput{Image: testPNG(t), Name: "A", ArtistName: "B", Price: -1}},
		{"limited without start", ListingInput{Image: testPNG(t), Name: "A", ArtistName: "B", IsLimited: true, Stock: 2}},
		{"undecodable image", ListingInput{Image: []byte("junk"), Name: "A", ArtistName: "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := mgr.CreateListing(context.Background(), tt.in); err == nil {
				t.Error("expected a precondition error")
			}
		})
	}

	// Precondition failures never reach the network.
	if got := len(backend.requestLog()); got != before {
		t.Errorf("backend saw %d extra requests", got-before)
	}
}

func TestManager_CreateListing_Success(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog()}
	mgr, _ := newTestManager(t, backend)
	signIn(t, mgr)

	in := ListingInput{
		Name:        "OK Computer",
		ArtistName:  "Radiohead",
		Price:       280000,
		Year:        1997,
		Condition:   "VG", // overridden for limited pressings
		IsLimited:   true,
		Stock:       2,
		SaleStartAt: mustTime(t, "2026-03-01T20:00:00"),
		Image:       testPNG(t),
	}
	if err := mgr.CreateListing(context.Background(), in); err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}

	backend.mu.Lock()
	created := backend.products[len(backend.products)-1]
	backend.mu.Unlock()

	if created.Name != "OK Computer" || created.Stock != 2 {
		t.Errorf("created = %+v", created)
	}
	if created.Condition != "NEW" {
		t.Errorf("limited condition = %q, want NEW", created.Condition)
	}
	if created.SaleStartAt != "2026-03-01T20:00:00" {
		t.Errorf("saleStartAt = %q", created.SaleStartAt)
	}

	// The refresh after creation picks the new listing up.
	if _, ok := mgr.Catalog().Find("new-1"); !ok {
		t.Error("new listing missing from refreshed catalog")
	}
}

func TestManager_PrefetchAndSaveArt(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog()}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	settings := config.DefaultSettings()
	settings.BackendURL = srv.URL
	settings.SessionPath = filepath.Join(t.TempDir(), "session.json")
	settings.PrefetchThumbnails = true
	settings.MaxConcurrentThumbnails = 2

	mgr, err := NewManager(settings, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := mgr.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if _, ok := mgr.Thumbnail("1"); !ok {
		t.Error("thumbnail for product 1 not prefetched")
	}
	if _, ok := mgr.Thumbnail("limited-1"); !ok {
		t.Error("thumbnail for limited-1 not prefetched")
	}

	dir := t.TempDir()
	if err := mgr.SaveArt(context.Background(), dir); err != nil {
		t.Fatalf("SaveArt failed: %v", err)
	}
	for _, name := range []string{"The Beatles - Abbey Road.jpg", "John Coltrane - Blue Train.jpg"} {
		if _, err := os.ReadFile(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected art file %q: %v", name, err)
		}
	}
}

func TestManager_RefetchReplacesThumbnails(t *testing.T) {
	backend := &fakeBackend{products: stockedCatalog(), imageBytes: []byte("art-v1")}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	settings := config.DefaultSettings()
	settings.BackendURL = srv.URL
	settings.SessionPath = filepath.Join(t.TempDir(), "session.json")
	settings.PrefetchThumbnails = true

	mgr, err := NewManager(settings, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := mgr.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if data, ok := mgr.Thumbnail("1"); !ok || string(data) != "art-v1" {
		t.Fatalf("thumbnail after first fetch = %q, %v", data, ok)
	}

	// The cover is replaced server-side.
	backend.mu.Lock()
	backend.imageBytes = []byte("art-v2")
	backend.mu.Unlock()

	if _, err := mgr.FetchCatalog(context.Background()); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if data, ok := mgr.Thumbnail("1"); !ok || string(data) != "art-v2" {
		t.Errorf("thumbnail after refetch = %q, want the replaced art", data)
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
	if err != nil {
		t.Fatalf("parse fixture time: %v", err)
	}
	return parsed
}
