// Package recommendation keeps the saved business ideas, recipes and market
// analyses, and serves the static generators the owner browses them from.
package recommendation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv"
	"kasirinaja/dashboard/internal/store"
	"kasirinaja/dashboard/internal/xid"
)

const KeyRecommendations = "ai_recommendations"

type Service struct {
	mu      sync.Mutex
	backend kv.Store
	logger  *zap.Logger
	rng     *rand.Rand
	now     func() time.Time
	records []domain.RecommendationRecord
}

type Option func(*Service)

func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New loads the saved records. An empty or unreadable collection is replaced
// by three sample records, which are written back.
func New(ctx context.Context, backend kv.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		backend: backend,
		logger:  logger.Named("recommendation"),
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6b61736972)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if backend != nil {
		if err := kv.Load(ctx, backend, KeyRecommendations, &s.records, nil); err != nil {
			s.logger.Warn("falling back to sample recommendations", zap.Error(err))
		}
	}
	if len(s.records) == 0 {
		s.records = sampleRecords(s.now())
		s.persistLocked(ctx)
	}
	return s
}

// List returns saved records of the given type, or all records when typ is
// empty, in insertion order.
func (s *Service) List(typ string) []domain.RecommendationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RecommendationRecord, 0, len(s.records))
	for _, r := range s.records {
		if typ == "" || r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) SaveIdea(ctx context.Context, title string, description string) (domain.RecommendationRecord, error) {
	return s.save(ctx, domain.RecommendationBusinessIdea, title, description, "business", PriorityHigh)
}

func (s *Service) SaveRecipe(ctx context.Context, title string, url string) (domain.RecommendationRecord, error) {
	return s.save(ctx, domain.RecommendationRecipe, title, "Video tutorial: "+url, domain.CategoryFood, PriorityMedium)
}

func (s *Service) SaveAnalysis(ctx context.Context, analysis MarketAnalysis) (domain.RecommendationRecord, error) {
	title := fmt.Sprintf("Market Analysis (%s)", analysis.Location)
	content := fmt.Sprintf("Market size: %s. Competition: %s. Profit potential: %s. Opportunities: %s.",
		analysis.MarketSize, analysis.Competition, analysis.ProfitPotential, strings.Join(analysis.Opportunities, "; "))
	return s.save(ctx, domain.RecommendationMarketAnalysis, title, content, "market", PriorityMedium)
}

// EnsureBusinessIdeas adds the default idea set when no business idea has
// been saved yet. It reports whether anything was added.
func (s *Service) EnsureBusinessIdeas(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.records, func(r domain.RecommendationRecord) bool {
		return r.Type == domain.RecommendationBusinessIdea
	}) {
		return false
	}
	s.records = append(s.records, defaultIdeaRecords(s.now())...)
	s.persistLocked(ctx)
	return true
}

// Replace swaps the whole collection, used when restoring a backup.
func (s *Service) Replace(ctx context.Context, records []domain.RecommendationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.Clone(records)
	if s.records == nil {
		s.records = []domain.RecommendationRecord{}
	}
	s.persistLocked(ctx)
}

// GenerateIdeas filters the idea catalogue. Empty arguments match anything.
func (s *Service) GenerateIdeas(category string, capital string) []BusinessIdea {
	out := make([]BusinessIdea, 0, len(ideas))
	for _, idea := range ideas {
		if category != "" && idea.Category != category {
			continue
		}
		if capital != "" && idea.Capital != capital {
			continue
		}
		out = append(out, idea)
	}
	return out
}

// Recipes filters the recipe catalogue. Empty arguments match anything.
func (s *Service) Recipes(category string, difficulty string, budget string) []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if category != "" && r.Category != category {
			continue
		}
		if difficulty != "" && r.Difficulty != difficulty {
			continue
		}
		if budget != "" && r.Budget != budget {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MarketAnalysis sizes the market by location. Any location other than
// urban or suburban is treated as rural. Opportunities and threats are
// drawn from a fixed pool using the service's random source.
func (s *Service) MarketAnalysis(location string) MarketAnalysis {
	out := MarketAnalysis{
		Location:        LocationRural,
		MarketSize:      "Small",
		Competition:     "Low",
		ProfitPotential: "40-60%",
		Recommendations: slices.Clone(marketAdvice),
	}
	switch location {
	case LocationUrban:
		out.Location, out.MarketSize, out.Competition, out.ProfitPotential = LocationUrban, "Large", "High", "60-80%"
	case LocationSuburban:
		out.Location, out.MarketSize, out.Competition, out.ProfitPotential = LocationSuburban, "Medium", "Moderate", "50-70%"
	}

	s.mu.Lock()
	out.Opportunities = s.pickLocked(opportunityPool, 3)
	out.Threats = s.pickLocked(threatPool, 3)
	s.mu.Unlock()
	return out
}

func (s *Service) pickLocked(pool []string, n int) []string {
	n = min(n, len(pool))
	out := make([]string, 0, n)
	for _, i := range s.rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}

func (s *Service) save(ctx context.Context, typ string, title string, content string, category string, priority string) (domain.RecommendationRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.RecommendationRecord{}, fmt.Errorf("%w: title is required", store.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := domain.RecommendationRecord{
		ID:        xid.New("rec"),
		Type:      typ,
		Title:     title,
		Content:   content,
		Category:  category,
		Priority:  priority,
		CreatedAt: s.now(),
	}
	s.records = append(s.records, rec)
	s.persistLocked(ctx)
	return rec, nil
}

func (s *Service) persistLocked(ctx context.Context) {
	if s.backend == nil {
		return
	}
	if err := kv.Save(ctx, s.backend, KeyRecommendations, s.records); err != nil {
		s.logger.Error("persist failed", zap.String("key", KeyRecommendations), zap.Error(err))
	}
}
