package repo

import (
	"context"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/google/uuid"
)

func (r *GormRepo) CreateDescription(ctx context.Context, d *models.PlayerDescription) error {
	return translate(r.DB.WithContext(ctx).Create(d).Error)
}

func (r *GormRepo) ListDescriptions(ctx context.Context, playerID uuid.UUID) ([]models.PlayerDescription, error) {
	items := make([]models.PlayerDescription, 0)
	if err := r.DB.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
