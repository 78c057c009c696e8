package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

// In-memory stores mirroring the gorm repositories' contracts.

type memProducts struct {
	mu    sync.Mutex
	items map[string]*models.Product
	clock time.Time
	all   int // calls to All
}

func newMemProducts(ps ...models.Product) *memProducts {
	m := &memProducts{items: map[string]*models.Product{}, clock: time.Unix(1_700_000_000, 0)}
	for i := range ps {
		_ = m.Create(context.Background(), &ps[i])
	}
	return m
}

func (m *memProducts) All(context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.all++
	return m.sorted(func(models.Product) bool { return true }), nil
}

func (m *memProducts) sorted(keep func(models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range m.items {
		if keep(*p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memProducts) Find(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) BySeller(_ context.Context, sellerID string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p models.Product) bool { return p.Seller.ID == sellerID }), nil
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.clock = m.clock.Add(time.Second)
	p.CreatedAt = m.clock
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) UpdateDetails(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	cur.Title, cur.Description, cur.Price = p.Title, p.Description, p.Price
	cur.Category, cur.Type, cur.Condition = p.Category, p.Type, p.Condition
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memReviews struct {
	mu    sync.Mutex
	items []models.Review
}

func (m *memReviews) ForProduct(_ context.Context, productID string) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Review
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].ProductID == productID {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

func (m *memReviews) Create(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.NewString()
	m.items = append(m.items, *r)
	return nil
}

type memRequests struct {
	mu    sync.Mutex
	items []*models.Request
}

func (m *memRequests) Find(_ context.Context, id string) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memRequests) Create(_ context.Context, r *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.NewString()
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	cp := *r
	m.items = append(m.items, &cp)
	return nil
}

func (m *memRequests) filter(keep func(*models.Request) bool) []models.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Request
	for i := len(m.items) - 1; i >= 0; i-- {
		if keep(m.items[i]) {
			out = append(out, *m.items[i])
		}
	}
	return out
}

func (m *memRequests) ForProduct(_ context.Context, productID, buyerID string) ([]models.Request, error) {
	return m.filter(func(r *models.Request) bool {
		return r.ProductID == productID && (buyerID == "" || r.BuyerID == buyerID)
	}), nil
}

func (m *memRequests) BySeller(_ context.Context, sellerID string) ([]models.Request, error) {
	return m.filter(func(r *models.Request) bool { return r.SellerID == sellerID }), nil
}

func (m *memRequests) ByBuyer(_ context.Context, buyerID string) ([]models.Request, error) {
	return m.filter(func(r *models.Request) bool { return r.BuyerID == buyerID }), nil
}

func (m *memRequests) Transition(_ context.Context, id, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id && r.Status == models.StatusPending {
			r.Status = status
			return true, nil
		}
	}
	return false, nil
}

type memUsers struct {
	mu    sync.Mutex
	items map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{items: map[string]*models.User{}} }

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.EmailString() == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	if _, err := m.FindByEmail(ctx, u.EmailString()); err == nil {
		return repositories.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return m.Save(ctx, u)
}

func (m *memUsers) Save(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

// memDisk records blobs in a map.
type memDisk struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	types   map[string]string
	failDel bool
}

func newMemDisk() *memDisk {
	return &memDisk{blobs: map[string][]byte{}, types: map[string]string{}}
}

func (d *memDisk) Name() string { return "mem" }

func (d *memDisk) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blobs[key] = b
	d.types[key] = contentType
	return nil
}

func (d *memDisk) Get(_ context.Context, key string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (d *memDisk) Exists(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.blobs[key]
	return ok, nil
}

func (d *memDisk) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failDel {
		return io.ErrClosedPipe
	}
	delete(d.blobs, key)
	return nil
}

func (d *memDisk) URL(key string) string { return "/storage/" + key }

var (
	alice = &auth.Identity{UserID: "u-alice", Name: "Alice", Avatar: "https://img/alice.png", Provider: auth.ProviderLocal}
	bob   = &auth.Identity{UserID: "u-bob", Name: "Bob", Provider: auth.ProviderLocal}
)

func listing(title, seller, category, typ, condition string, price float64) models.Product {
	return models.Product{
		Title:       title,
		Description: "A perfectly good item in working order.",
		Price:       price,
		Category:    category,
		Type:        typ,
		Condition:   condition,
		Seller:      models.Seller{ID: seller, Name: seller},
	}
}
