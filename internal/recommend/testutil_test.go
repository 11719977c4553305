package recommend

import (
	"context"
	"sync"

	"mediashelf/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func ratingPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func testItem(id, imdbID, title string, format models.Format, rating *float64, ctype models.CollectionType) models.CollectionItem {
	return models.CollectionItem{
		ID:             id,
		IMDbID:         imdbID,
		Title:          title,
		Format:         format,
		PersonalRating: rating,
		CollectionType: ctype,
	}
}

// janeDoeCollection is the canonical small collection: three owned Blu-rays,
// all by the same director, rated 9, 8, 9.
func janeDoeCollection() []models.CollectionItem {
	items := []models.CollectionItem{
		testItem("c1", "tt0000001", "First Film", models.FormatBluRay, ratingPtr(9), models.CollectionOwned),
		testItem("c2", "tt0000002", "Second Film", models.FormatBluRay, ratingPtr(8), models.CollectionOwned),
		testItem("c3", "tt0000003", "Third Film", models.FormatBluRay, ratingPtr(9), models.CollectionOwned),
	}
	for i := range items {
		items[i].Director = "Jane Doe"
		items[i].Genre = "Drama"
	}
	return items
}

// mockSearcher is a canned metadata source with a call counter.
type mockSearcher struct {
	mu      sync.Mutex
	results map[string][]models.SearchResult
	errs    map[string]error
	calls   int
	queries []string
}

func newMockSearcher() *mockSearcher {
	return &mockSearcher{
		results: make(map[string][]models.SearchResult),
		errs:    make(map[string]error),
	}
}

func (m *mockSearcher) SearchByText(_ context.Context, query string) ([]models.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.queries = append(m.queries, query)
	if err, ok := m.errs[query]; ok {
		return nil, err
	}
	return m.results[query], nil
}

func (m *mockSearcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// stubStrategy emits fixed recommendations; optionally blocks until released
// or panics, for failure-path tests.
type stubStrategy struct {
	recType models.RecommendationType
	run     func(context.Context, []models.CollectionItem, models.UserProfile) ([]models.Recommendation, error)
}

func (s *stubStrategy) Type() models.RecommendationType { return s.recType }

func (s *stubStrategy) Run(ctx context.Context, collection []models.CollectionItem, profile models.UserProfile) ([]models.Recommendation, error) {
	return s.run(ctx, collection, profile)
}

func fixedStrategy(recType models.RecommendationType, recs ...models.Recommendation) *stubStrategy {
	return &stubStrategy{
		recType: recType,
		run: func(context.Context, []models.CollectionItem, models.UserProfile) ([]models.Recommendation, error) {
			return recs, nil
		},
	}
}

func rec(imdbID string, recType models.RecommendationType, relevance, confidence, urgency float64) models.Recommendation {
	return models.Recommendation{
		IMDbID: imdbID,
		Title:  "Title " + imdbID,
		Type:   recType,
		Score: models.Score{
			Relevance:  relevance,
			Confidence: confidence,
			Urgency:    urgency,
		},
	}
}

// fakeCollectionRepo is an in-memory repository.CollectionRepository.
type fakeCollectionRepo struct {
	mu        sync.Mutex
	items     map[string][]models.CollectionItem
	insertErr error
}

func newFakeCollectionRepo() *fakeCollectionRepo {
	return &fakeCollectionRepo{items: make(map[string][]models.CollectionItem)}
}

func (f *fakeCollectionRepo) List(_ context.Context, userID string) ([]models.CollectionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CollectionItem(nil), f.items[userID]...), nil
}

func (f *fakeCollectionRepo) Insert(_ context.Context, userID string, item models.CollectionItem) (*models.CollectionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	item.ID = uuid.NewString()
	f.items[userID] = append(f.items[userID], item)
	return &item, nil
}

// fakeActionRepo is an in-memory repository.ActionRepository.
type fakeActionRepo struct {
	mu        sync.Mutex
	records   []models.ActionRecord
	insertErr error
}

func (f *fakeActionRepo) Insert(_ context.Context, record *models.ActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	record.ID = len(f.records) + 1
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeActionRepo) Exists(_ context.Context, userID, imdbID string, recType models.RecommendationType, action models.ActionType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.UserID == userID && record.IMDbID == imdbID &&
			record.RecommendationType == recType && record.Action == action {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActionRepo) HasActedOn(_ context.Context, userID, imdbID string, recType models.RecommendationType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.UserID == userID && record.IMDbID == imdbID && record.RecommendationType == recType {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActionRepo) CountByAction(_ context.Context, userID string) (map[models.ActionType]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[models.ActionType]int)
	for _, record := range f.records {
		if record.UserID == userID {
			counts[record.Action]++
		}
	}
	return counts, nil
}

func (f *fakeActionRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}
