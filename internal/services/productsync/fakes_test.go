package productsync

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services/wix"

	"github.com/shopspring/decimal"
)

type fakeItems struct {
	mu        sync.Mutex
	items     map[string]models.Item
	updates   int
	updateErr error
	lastSync  *time.Time
	stallCut  time.Time
	stallMsg  string
}

func newFakeItems(items ...*models.Item) *fakeItems {
	f := &fakeItems{items: make(map[string]models.Item)}
	for _, item := range items {
		f.items[item.Code] = *item
	}
	return f
}

func (f *fakeItems) Get(_ context.Context, code string) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[code]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &item, nil
}

func (f *fakeItems) UpdateSyncFields(ctx context.Context, item *models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.items[item.Code]
	if !ok {
		return database.ErrNotFound
	}
	stored.ExternalProductID = item.ExternalProductID
	stored.SyncStatus = item.SyncStatus
	stored.LastSyncAt = item.LastSyncAt
	stored.SyncErrorMessage = item.SyncErrorMessage
	f.items[item.Code] = stored
	return nil
}

func (f *fakeItems) Find(_ context.Context, filter database.ItemFilter) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Item
	for _, item := range f.items {
		if len(filter.Codes) > 0 && !contains(filter.Codes, item.Code) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, item.SyncStatus) {
			continue
		}
		if filter.SyncEnabledOnly && !item.SyncEnabled {
			continue
		}
		if filter.ChangedSinceSync && (item.SyncStatus == models.SyncStatusPending ||
			(item.LastSyncAt != nil && !item.ModifiedAt.After(*item.LastSyncAt))) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeItems) CountByStatus(_ context.Context) (map[models.SyncStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[models.SyncStatus]int64{}
	for _, s := range models.SyncStatuses {
		counts[s] = 0
	}
	for _, item := range f.items {
		counts[item.SyncStatus]++
	}
	return counts, nil
}

func (f *fakeItems) LastSyncedAt(_ context.Context) (*time.Time, error) {
	return f.lastSync, nil
}

func (f *fakeItems) MarkStalled(_ context.Context, cutoff time.Time, message string) (int64, error) {
	f.stallCut = cutoff
	f.stallMsg = message
	return 2, nil
}

func (f *fakeItems) stored(code string) models.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[code]
}

type fakeLogs struct {
	mu        sync.Mutex
	entries   []models.IntegrationLog
	createErr error
	failures  int64
	since     time.Time
	cutoff    time.Time
}

func (f *fakeLogs) Create(ctx context.Context, entry *models.IntegrationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogs) List(_ context.Context, filter database.LogFilter) ([]models.IntegrationLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.IntegrationLog
	for _, e := range f.entries {
		if filter.ReferenceCode == "" || e.ReferenceCode == filter.ReferenceCode {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogs) CountFailuresSince(_ context.Context, since time.Time) (int64, error) {
	f.since = since
	return f.failures, nil
}

func (f *fakeLogs) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 7, nil
}

func (f *fakeLogs) all() []models.IntegrationLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.IntegrationLog(nil), f.entries...)
}

type fakeConnector struct {
	mu          sync.Mutex
	createFn    func(*wix.Product) (*wix.ProductResponse, error)
	updateFn    func(string, *wix.Product) (*wix.ProductResponse, error)
	testErr     error
	creates     []*wix.Product
	updates     []*wix.Product
	updateIDs   []string
	fetched     []string
	connections int
}

func (f *fakeConnector) CreateProduct(_ context.Context, p *wix.Product) (*wix.ProductResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, p)
	if f.createFn != nil {
		return f.createFn(p)
	}
	return &wix.ProductResponse{ID: "wix-1", StatusCode: 200, Body: `{"product":{"id":"wix-1"}}`}, nil
}

func (f *fakeConnector) UpdateProduct(_ context.Context, id string, p *wix.Product) (*wix.ProductResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	f.updateIDs = append(f.updateIDs, id)
	if f.updateFn != nil {
		return f.updateFn(id, p)
	}
	return &wix.ProductResponse{ID: id, StatusCode: 200}, nil
}

func (f *fakeConnector) GetProduct(_ context.Context, id string) (*wix.ProductResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, id)
	return &wix.ProductResponse{ID: id, Name: "Test Product", StatusCode: 200}, nil
}

func (f *fakeConnector) TestConnection(_ context.Context) (*wix.SiteProperties, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connections++
	if f.testErr != nil {
		return nil, f.testErr
	}
	return &wix.SiteProperties{StatusCode: 200}, nil
}

func (f *fakeConnector) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates) + len(f.updates)
}

type fakeCategories map[string]string

func (f fakeCategories) CategoryID(_ context.Context, group string) (string, error) {
	if group == "broken" {
		return "", errors.New("lookup failed")
	}
	return f[group], nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsStatus(list []models.SyncStatus, s models.SyncStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func testSettings() config.Integration {
	return config.Integration{
		Enabled:        true,
		SiteID:         "site-1",
		APIKey:         "key-1",
		AccountID:      "acct-1",
		BaseURL:        config.DefaultBaseURL,
		AutoSync:       true,
		SyncMode:       config.SyncModeInline,
		Fields:         config.FieldToggles{Name: true, Description: true, Price: true, Images: true, Categories: true},
		RetryAttempts:  config.DefaultRetryAttempts,
		TimeoutSeconds: config.DefaultTimeoutSeconds,
	}
}

func testItem(code string) *models.Item {
	return &models.Item{
		Code:        code,
		Name:        "Test Product",
		Price:       decimal.NewNullDecimal(decimal.RequireFromString("25.00")),
		SyncEnabled: true,
		SyncStatus:  models.SyncStatusNotSynced,
	}
}

type harness struct {
	svc       *Service
	items     *fakeItems
	logs      *fakeLogs
	connector *fakeConnector
	settings  *config.Store
}

func newHarness(cfg config.Integration, items ...*models.Item) *harness {
	h := &harness{
		items:     newFakeItems(items...),
		logs:      &fakeLogs{},
		connector: &fakeConnector{},
		settings:  config.NewStore(cfg),
	}
	h.svc = NewService(h.settings, h.items, h.logs, fakeCategories{"tools": "cat-tools"}, h.connector, nil, logger.NewNop())
	return h
}
