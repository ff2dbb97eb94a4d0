package service

import (
	"context"
	"io"

	"kasirinaja/dashboard/internal/backup"
	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/notify"
	"kasirinaja/dashboard/internal/recommendation"
	"kasirinaja/dashboard/internal/settings"
)

func (s *Service) Settings() domain.Settings {
	if s.settings == nil {
		return settings.Defaults()
	}
	return s.settings.Get()
}

func (s *Service) UpdateSettings(ctx context.Context, upd domain.SettingsUpdate) (domain.Settings, error) {
	updated, err := s.settings.Update(ctx, upd)
	if err != nil {
		return domain.Settings{}, err
	}
	s.logAudit(ctx, "settings_update", "settings", "")
	return updated, nil
}

func (s *Service) ExportJSON(w io.Writer) error {
	return s.backup.WriteJSON(w)
}

func (s *Service) ImportJSON(ctx context.Context, r io.Reader) (backup.ImportResult, error) {
	result, err := s.backup.ImportJSON(ctx, r)
	if err != nil {
		s.hub.Notify(notify.LevelError, "Import failed", err.Error())
		return result, err
	}
	s.logAudit(ctx, "import", "backup", "")
	s.hub.Notify(notify.LevelSuccess, "Data imported", "")
	s.pushCatalog(ctx)
	return result, nil
}

func (s *Service) ExportProductsCSV(w io.Writer) error {
	return s.backup.WriteProductsCSV(w)
}

func (s *Service) ExportTransactionsCSV(w io.Writer) error {
	return s.backup.WriteTransactionsCSV(w)
}

func (s *Service) Snapshots(ctx context.Context) ([]string, error) {
	return s.backup.Snapshots(ctx)
}

func (s *Service) TakeSnapshot(ctx context.Context) (string, error) {
	key, err := s.backup.TakeSnapshot(ctx)
	if err != nil {
		return "", err
	}
	s.hub.Notify(notify.LevelSuccess, "Backup created", key)
	return key, nil
}

func (s *Service) RestoreSnapshot(ctx context.Context, key string) error {
	if _, err := s.backup.Restore(ctx, key); err != nil {
		return err
	}
	s.logAudit(ctx, "restore", key, "")
	s.hub.Notify(notify.LevelSuccess, "Backup restored", key)
	s.pushCatalog(ctx)
	return nil
}

func (s *Service) Recommendations(typ string) []domain.RecommendationRecord {
	return s.recs.List(typ)
}

// BusinessIdeas lists saved business ideas, adding the default set the
// first time none exist.
func (s *Service) BusinessIdeas(ctx context.Context) []domain.RecommendationRecord {
	s.recs.EnsureBusinessIdeas(ctx)
	return s.recs.List(domain.RecommendationBusinessIdea)
}

func (s *Service) SaveIdea(ctx context.Context, title string, description string) (domain.RecommendationRecord, error) {
	rec, err := s.recs.SaveIdea(ctx, title, description)
	if err == nil {
		s.hub.Notify(notify.LevelSuccess, "Business idea saved", rec.Title)
	}
	return rec, err
}

func (s *Service) SaveRecipe(ctx context.Context, title string, url string) (domain.RecommendationRecord, error) {
	rec, err := s.recs.SaveRecipe(ctx, title, url)
	if err == nil {
		s.hub.Notify(notify.LevelSuccess, "Recipe saved", rec.Title)
	}
	return rec, err
}

func (s *Service) SaveAnalysis(ctx context.Context, location string) (domain.RecommendationRecord, error) {
	rec, err := s.recs.SaveAnalysis(ctx, s.recs.MarketAnalysis(location))
	if err == nil {
		s.hub.Notify(notify.LevelSuccess, "Market analysis saved", rec.Title)
	}
	return rec, err
}

func (s *Service) GenerateIdeas(category string, capital string) []recommendation.BusinessIdea {
	return s.recs.GenerateIdeas(category, capital)
}

func (s *Service) Recipes(category string, difficulty string, budget string) []recommendation.Recipe {
	return s.recs.Recipes(category, difficulty, budget)
}

func (s *Service) MarketAnalysis(location string) recommendation.MarketAnalysis {
	return s.recs.MarketAnalysis(location)
}

func (s *Service) CalculateHPP(rawMaterial int64, packaging int64, labor int64, overhead int64) (recommendation.HPPResult, error) {
	return recommendation.CalculateHPP(rawMaterial, packaging, labor, overhead)
}

func (s *Service) MarginAt(sellingPrice int64, unitCost int64) (recommendation.HPPResult, error) {
	return recommendation.MarginAt(sellingPrice, unitCost)
}
