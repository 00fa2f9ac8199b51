package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
)

var errStore = errors.New("store unavailable")

func floatPtr(v float64) *float64 { return &v }

type fakeCatalog struct {
	entries   []domain.CatalogEntry
	failWith  error
	searches  []string
	updates   map[int64]domain.PriceStats
	upserted  []domain.CatalogEntry
	updateErr map[int64]error
}

func (f *fakeCatalog) Upsert(_ context.Context, entry *domain.CatalogEntry) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.upserted = append(f.upserted, *entry)
	for i := range f.entries {
		if f.entries[i].ReleaseID == entry.ReleaseID {
			f.entries[i] = *entry
			return nil
		}
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeCatalog) Get(_ context.Context, releaseID int64) (*domain.CatalogEntry, error) {
	return f.find(func(e domain.CatalogEntry) bool { return e.ReleaseID == releaseID })
}

func (f *fakeCatalog) FindByCatalogNo(_ context.Context, catalogNo string) (*domain.CatalogEntry, error) {
	return f.find(func(e domain.CatalogEntry) bool { return catalogNo != "" && e.CatalogNo == catalogNo })
}

func (f *fakeCatalog) FindByNormalizedCatalogNo(_ context.Context, normalized string) (*domain.CatalogEntry, error) {
	return f.find(func(e domain.CatalogEntry) bool {
		return normalized != "" && domain.NormalizeCatalogNo(e.CatalogNo) == normalized
	})
}

func (f *fakeCatalog) FindByBarcode(_ context.Context, barcode string) (*domain.CatalogEntry, error) {
	return f.find(func(e domain.CatalogEntry) bool { return barcode != "" && e.Barcode == barcode })
}

// SearchText requires every query word to appear among the entry's words.
func (f *fakeCatalog) SearchText(_ context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.searches = append(f.searches, query)
	words := strings.Fields(tokenSortKey(query))
	if len(words) == 0 {
		return nil, nil
	}
	var out []domain.CatalogEntry
	for _, entry := range f.entries {
		have := make(map[string]bool)
		for _, w := range strings.Fields(tokenSortKey(entry.Artist + " " + entry.Title + " " + entry.CatalogNo)) {
			have[w] = true
		}
		all := true
		for _, w := range words {
			if !have[w] {
				all = false
				break
			}
		}
		if all {
			out = append(out, entry)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListStale(_ context.Context, refreshedBefore time.Time) ([]domain.CatalogEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []domain.CatalogEntry
	for _, entry := range f.entries {
		if entry.RefreshedAt == nil || entry.RefreshedAt.Before(refreshedBefore) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpdatePrices(_ context.Context, releaseID int64, stats domain.PriceStats, refreshedAt time.Time) error {
	if err := f.updateErr[releaseID]; err != nil {
		return err
	}
	if f.updates == nil {
		f.updates = make(map[int64]domain.PriceStats)
	}
	f.updates[releaseID] = stats
	for i := range f.entries {
		if f.entries[i].ReleaseID == releaseID {
			median, low, at := stats.Median, stats.Low, refreshedAt
			f.entries[i].MedianPrice = &median
			f.entries[i].LowPrice = &low
			f.entries[i].RefreshedAt = &at
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeCatalog) find(pred func(domain.CatalogEntry) bool) (*domain.CatalogEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, entry := range f.entries {
		if pred(entry) {
			found := entry
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeListings struct {
	mu        sync.Mutex
	items     map[string]domain.Listing
	order     []string
	failWith  error
	failFor   map[string]bool
	notified  map[string]int
	deleteErr error
	deleted   int64
}

func newFakeListings() *fakeListings {
	return &fakeListings{
		items:    make(map[string]domain.Listing),
		failFor:  make(map[string]bool),
		notified: make(map[string]int),
	}
}

func (f *fakeListings) Upsert(_ context.Context, listing *domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil || f.failFor[listing.ItemID] {
		return errStore
	}
	stored := *listing
	if existing, ok := f.items[listing.ItemID]; ok {
		stored.FirstSeen = existing.FirstSeen
		stored.NotifiedAt = existing.NotifiedAt
	} else {
		f.order = append(f.order, listing.ItemID)
	}
	f.items[listing.ItemID] = stored
	return nil
}

func (f *fakeListings) Get(_ context.Context, itemID string) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &listing, nil
}

func (f *fakeListings) ListUnnotified(_ context.Context, minDealScore float64, limit int) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, id := range f.order {
		listing := f.items[id]
		if listing.DealScore != nil && *listing.DealScore >= minDealScore && listing.NotifiedAt == nil {
			out = append(out, listing)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].DealScore > *out[j].DealScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeListings) MarkNotified(_ context.Context, itemID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified[itemID]++
	listing, ok := f.items[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	listing.NotifiedAt = &at
	f.items[itemID] = listing
	return nil
}

func (f *fakeListings) DeleteSeenBefore(_ context.Context, _ time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.deleted, nil
}

type fakeQueries struct {
	queries  []domain.SavedQuery
	failWith error
	nextID   uint
}

func (f *fakeQueries) Create(_ context.Context, query *domain.SavedQuery) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	query.ID = f.nextID
	f.queries = append(f.queries, *query)
	return nil
}

func (f *fakeQueries) ListActive(_ context.Context) ([]domain.SavedQuery, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []domain.SavedQuery
	for _, q := range f.queries {
		if q.Active {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQueries) ListByRecipient(_ context.Context, recipientID int64) ([]domain.SavedQuery, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []domain.SavedQuery
	for _, q := range f.queries {
		if q.RecipientID == recipientID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQueries) SetActive(_ context.Context, recipientID int64, queryID uint, active bool) error {
	for i := range f.queries {
		if f.queries[i].ID == queryID && f.queries[i].RecipientID == recipientID {
			f.queries[i].Active = active
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeQueries) SetThreshold(_ context.Context, recipientID int64, minDealScore float64) (int64, error) {
	var changed int64
	for i := range f.queries {
		if f.queries[i].RecipientID == recipientID {
			f.queries[i].MinDealScore = minDealScore
			changed++
		}
	}
	return changed, nil
}

type alertKey struct {
	recipientID int64
	itemID      string
}

type fakeAlerts struct {
	mu        sync.Mutex
	records   map[alertKey]domain.AlertRecord
	existsErr error
	deleteErr error
	deleted   int64
}

func newFakeAlerts() *fakeAlerts {
	return &fakeAlerts{records: make(map[alertKey]domain.AlertRecord)}
}

func (f *fakeAlerts) Exists(_ context.Context, recipientID int64, itemID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.records[alertKey{recipientID, itemID}]
	return ok, nil
}

func (f *fakeAlerts) Create(_ context.Context, record *domain.AlertRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := alertKey{record.RecipientID, record.ItemID}
	if _, ok := f.records[key]; !ok {
		f.records[key] = *record
	}
	return nil
}

func (f *fakeAlerts) DeleteSentBefore(_ context.Context, _ time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.deleted, nil
}

type fakeSearcher struct {
	listings    []domain.Listing
	searchErr   error
	details     map[string]*domain.ItemDetail
	detailErr   map[string]error
	searchCalls int
	detailCalls map[string]int
}

func (f *fakeSearcher) SearchListings(_ context.Context, _ string) ([]domain.Listing, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.listings, nil
}

func (f *fakeSearcher) GetItemDetail(_ context.Context, itemID string) (*domain.ItemDetail, error) {
	if f.detailCalls == nil {
		f.detailCalls = make(map[string]int)
	}
	f.detailCalls[itemID]++
	if err := f.detailErr[itemID]; err != nil {
		return nil, err
	}
	return f.details[itemID], nil
}

func (f *fakeSearcher) totalDetailCalls() int {
	total := 0
	for _, n := range f.detailCalls {
		total += n
	}
	return total
}

type sentMessage struct {
	recipientID int64
	text        string
	mode        domain.MessageMode
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

func (f *fakeMessenger) Send(_ context.Context, recipientID int64, text string, mode domain.MessageMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[recipientID] {
		return errors.New("chat not found")
	}
	f.sent = append(f.sent, sentMessage{recipientID: recipientID, text: text, mode: mode})
	return nil
}

func (f *fakeMessenger) countFor(recipientID int64, itemURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, msg := range f.sent {
		if msg.recipientID == recipientID && strings.Contains(msg.text, itemURL) {
			n++
		}
	}
	return n
}

type fakeCatalogClient struct {
	releases map[int64]*domain.CatalogEntry
	stats    map[int64]*domain.PriceStats
	statsErr map[int64]error
	calls    []int64
}

func (f *fakeCatalogClient) GetRelease(_ context.Context, releaseID int64) (*domain.CatalogEntry, error) {
	entry, ok := f.releases[releaseID]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeCatalogClient) GetPriceStats(_ context.Context, releaseID int64) (*domain.PriceStats, error) {
	f.calls = append(f.calls, releaseID)
	if err := f.statsErr[releaseID]; err != nil {
		return nil, err
	}
	return f.stats[releaseID], nil
}

type countingAlerts struct {
	*fakeAlerts
	deleteCalls int
}

func (c *countingAlerts) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	c.deleteCalls++
	return c.fakeAlerts.DeleteSentBefore(ctx, cutoff)
}
