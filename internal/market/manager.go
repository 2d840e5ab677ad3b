package market

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/grooveyard/lpmarket/internal/api"
	"github.com/grooveyard/lpmarket/internal/api/dto"
	"github.com/grooveyard/lpmarket/internal/config"
	"github.com/grooveyard/lpmarket/internal/fsutil"
	"github.com/grooveyard/lpmarket/internal/imaging"
	"github.com/grooveyard/lpmarket/internal/model"
	"github.com/grooveyard/lpmarket/internal/session"
	"golang.org/x/sync/errgroup"
)

// NoticeLevel indicates the severity/type of a user-facing notice.
type NoticeLevel int

const (
	LevelInfo NoticeLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// Notice is a user-facing event emitted while working against the
// backend. The CLI prints them as prefixed lines, the TUI keeps a short
// log on screen.
type Notice struct {
	Message string
	Level   NoticeLevel
}

// Sentinel errors for client-side precondition failures. These are
// raised before any network call is made.
var (
	ErrNotSignedIn = errors.New("sign in before doing that")
	ErrNoImage     = errors.New("a listing needs a cover image")
)

// maxImageDim bounds listing cover images before upload.
const maxImageDim = 1000

// Manager coordinates the session, the backend client, and the current
// catalog snapshot.
//
// The session token has a single writer: Login, Logout, and the forced
// logout on an authentication failure all live here, and nothing else
// mutates the session. The catalog is rebuilt wholesale by FetchCatalog
// and left untouched on any non-auth failure, so the screen keeps
// showing stale-but-valid data instead of going blank.
type Manager struct {
	settings *config.Settings
	client   *api.Client
	store    *session.Store
	images   *imaging.Service

	mu      sync.RWMutex
	session *session.Session
	catalog model.Catalog
	thumbs  map[string][]byte

	onNotice func(Notice)
}

// NewManager creates a Manager, loading any persisted session.
func NewManager(settings *config.Settings, onNotice func(Notice)) (*Manager, error) {
	store := session.NewStore(settings.SessionPath)
	sess, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	m := &Manager{
		settings: settings,
		store:    store,
		images:   imaging.NewService(),
		session:  sess,
		thumbs:   make(map[string][]byte),
		onNotice: onNotice,
	}
	m.client = api.NewClient(settings.BackendURL, settings.RequestTimeout(), m.token)

	return m, nil
}

// token is the provider handed to the api client. It reads the current
// session under the lock so requests always carry the live credential.
func (m *Manager) token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token
}

// Session returns a copy of the current session.
func (m *Manager) Session() session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.session
}

// SignedIn reports whether a bearer token is held.
func (m *Manager) SignedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Active()
}

// Catalog returns the last fetched catalog snapshot.
func (m *Manager) Catalog() model.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog
}

// Login authenticates against the backend and persists the session.
// The token and display name are saved together.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	sess := &session.Session{Token: token, DisplayName: username}
	if err := m.store.Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()

	m.notice(Notice{Message: fmt.Sprintf("signed in as %s", username), Level: LevelSuccess})
	return nil
}

// Register creates a new account. The caller routes back to login on
// success; registering does not sign the user in.
func (m *Manager) Register(ctx context.Context, username, password, name, email string) error {
	if err := m.client.Register(ctx, username, password, name, email); err != nil {
		return err
	}
	m.notice(Notice{Message: "account created, you can sign in now", Level: LevelSuccess})
	return nil
}

// Logout clears the persisted session.
func (m *Manager) Logout() error {
	if err := m.clearSession(); err != nil {
		return err
	}
	m.notice(Notice{Message: "signed out", Level: LevelInfo})
	return nil
}

// forceLogout clears the session after the backend rejected the token.
func (m *Manager) forceLogout() {
	if err := m.clearSession(); err != nil {
		m.notice(Notice{Message: fmt.Sprintf("could not clear session: %v", err), Level: LevelError})
	}
	m.notice(Notice{Message: "session expired, sign in again", Level: LevelWarning})
}

func (m *Manager) clearSession() error {
	if err := m.store.Clear(); err != nil {
		return err
	}
	m.mu.Lock()
	m.session = &session.Session{}
	m.mu.Unlock()
	return nil
}

// FetchCatalog retrieves the full product set, normalizes it, and
// replaces the current snapshot.
//
// The request is attempted even without a token; if the backend rejects
// it with an authentication failure the session is cleared and the error
// wraps api.ErrUnauthorized so the caller can route to the login view.
// Any other failure leaves the previous snapshot in place.
func (m *Manager) FetchCatalog(ctx context.Context) (model.Catalog, error) {
	raws, err := m.client.FetchProducts(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			m.forceLogout()
		}
		return m.Catalog(), err
	}

	mediaBase := m.settings.MediaBase()
	products := make([]model.Product, 0, len(raws))
	for i := range raws {
		products = append(products, raws[i].ToProduct(mediaBase))
	}

	cat := model.Partition(products, time.Now())

	m.mu.Lock()
	m.catalog = cat
	// Covers change server-side; a rebuilt snapshot drops the old art.
	m.thumbs = make(map[string][]byte)
	m.mu.Unlock()

	m.notice(Notice{
		Message: fmt.Sprintf("catalog loaded: %d records (%d limited)", cat.Len(), len(cat.Limited)),
		Level:   LevelVerbose,
	})

	if m.settings.PrefetchThumbnails {
		m.prefetchThumbnails(ctx, cat)
	}

	return cat, nil
}

// Purchase submits a one-unit order for the given product.
//
// A session token must exist; without one the dispatch is refused before
// any network call. The order endpoint is chosen by membership in the
// limited group of the current snapshot. On success the catalog is
// re-fetched, strictly after the purchase response, so displayed stock
// reflects the completed order; stock is never decremented locally.
func (m *Manager) Purchase(ctx context.Context, productID string) error {
	if !m.SignedIn() {
		return ErrNotSignedIn
	}

	var err error
	if m.Catalog().IsLimited(productID) {
		err = m.client.CreateLimitedOrder(ctx, productID, 1)
	} else {
		err = m.client.CreateOrder(ctx, productID, 1)
	}
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			m.forceLogout()
		}
		return err
	}

	m.notice(Notice{Message: "purchase complete", Level: LevelSuccess})

	if _, err := m.FetchCatalog(ctx); err != nil {
		// The purchase itself went through; a failed refresh only means
		// the screen is momentarily stale.
		m.notice(Notice{Message: fmt.Sprintf("could not refresh catalog: %v", err), Level: LevelWarning})
	}

	return nil
}

// ListingInput is a new listing as entered by the seller.
type ListingInput struct {
	Name        string
	ArtistName  string
	Price       int64
	Year        int
	Condition   string
	IsLimited   bool
	Stock       int
	SaleStartAt time.Time // zero unless IsLimited
	Image       []byte
	ImageName   string
}

// CreateListing validates and submits a new listing.
//
// All preconditions are checked before any network call: a decodable
// cover image, non-empty name and artist, a non-negative price, and for
// limited pressings a sale start time and positive stock. The image is
// normalized (bounded, re-encoded as JPEG) before upload. Limited
// pressings always sell as NEW; regular listings always carry one unit.
func (m *Manager) CreateListing(ctx context.Context, in ListingInput) error {
	if !m.SignedIn() {
		return ErrNotSignedIn
	}
	if len(in.Image) == 0 {
		return ErrNoImage
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.ArtistName) == "" {
		return errors.New("name and artist are required")
	}
	if in.Price < 0 {
		return errors.New("price cannot be negative")
	}
	if in.IsLimited {
		if in.SaleStartAt.IsZero() {
			return errors.New("a limited listing needs a sale start time")
		}
		if in.Stock < 1 {
			return errors.New("a limited listing needs stock of at least 1")
		}
	}

	image, err := m.images.Normalize(in.Image, maxImageDim)
	if err != nil {
		return err
	}

	form := dto.ListingForm{
		Name:       in.Name,
		ArtistName: in.ArtistName,
		Price:      in.Price,
		Year:       in.Year,
		Condition:  in.Condition,
		IsLimited:  in.IsLimited,
		Stock:      in.Stock,
	}
	if in.IsLimited {
		form.Condition = "NEW"
		form.SaleStartAt = dto.FormatSaleStart(in.SaleStartAt)
	} else {
		form.Stock = 1
	}

	imageName := in.ImageName
	if imageName == "" {
		imageName = "cover.jpg"
	}

	if err := m.client.CreateListing(ctx, form, image, imageName); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			m.forceLogout()
		}
		return err
	}

	m.notice(Notice{Message: fmt.Sprintf("listed %s - %s", in.ArtistName, in.Name), Level: LevelSuccess})

	if _, err := m.FetchCatalog(ctx); err != nil {
		m.notice(Notice{Message: fmt.Sprintf("could not refresh catalog: %v", err), Level: LevelWarning})
	}

	return nil
}

// Thumbnail returns the prefetched cover image for a product, if held.
func (m *Manager) Thumbnail(productID string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.thumbs[productID]
	return data, ok
}

// SaveArt writes the cover images of the current snapshot into dir, one
// JPEG per record named after artist and title. Missing thumbnails are
// fetched on demand.
func (m *Manager) SaveArt(ctx context.Context, dir string) error {
	if err := fsutil.EnsureDir(dir); err != nil {
		return err
	}

	cat := m.Catalog()
	all := make([]model.Product, 0, cat.Len())
	all = append(all, cat.Limited...)
	all = append(all, cat.Regular...)

	for _, p := range all {
		data, ok := m.Thumbnail(p.ID)
		if !ok {
			var err error
			data, err = m.client.FetchImage(ctx, p.ThumbnailURL)
			if err != nil {
				m.notice(Notice{Message: fmt.Sprintf("no art for %s: %v", p.Name, err), Level: LevelWarning})
				continue
			}
		}

		name := fsutil.SanitizeFileName(fmt.Sprintf("%s - %s", p.ArtistName, p.Name)) + ".jpg"
		if err := fsutil.WriteFile(filepath.Join(dir, name), data); err != nil {
			return err
		}
		m.notice(Notice{Message: fmt.Sprintf("saved %s", name), Level: LevelVerbose})
	}

	return nil
}

// prefetchThumbnails warms the in-memory art cache with a bounded
// fan-out. Failures are reported at verbose level and never fail the
// surrounding fetch.
func (m *Manager) prefetchThumbnails(ctx context.Context, cat model.Catalog) {
	all := make([]model.Product, 0, cat.Len())
	all = append(all, cat.Limited...)
	all = append(all, cat.Regular...)

	g, ctx := errgroup.WithContext(ctx)
	limit := m.settings.MaxConcurrentThumbnails
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, p := range all {
		g.Go(func() error {
			data, err := m.client.FetchImage(ctx, p.ThumbnailURL)
			if err != nil {
				m.notice(Notice{Message: fmt.Sprintf("thumbnail %s: %v", p.ID, err), Level: LevelVerbose})
				return nil
			}
			m.mu.Lock()
			m.thumbs[p.ID] = data
			m.mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
}

func (m *Manager) notice(n Notice) {
	if m.onNotice != nil {
		m.onNotice(n)
	}
}
