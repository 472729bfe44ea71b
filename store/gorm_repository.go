package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

// GormRepository keeps podcasts in PostgreSQL.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, p *models.Podcast) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		return fmt.Errorf("create podcast %s: %w", p.ID, err)
	}
	return nil
}

func (r *GormRepository) List(ctx context.Context) ([]models.Podcast, error) {
	var podcasts []models.Podcast
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&podcasts).Error
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	return podcasts, nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (*models.Podcast, error) {
	var p models.Podcast
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
		}
		return nil, fmt.Errorf("get podcast %s: %w", id, err)
	}
	return &p, nil
}

func (r *GormRepository) Update(ctx context.Context, id string, u models.PodcastUpdate) (*models.Podcast, error) {
	var p models.Podcast
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
			}
			return err
		}
		u.Apply(&p)
		return tx.Save(&p).Error
	})
	if err != nil {
		if errors.Is(err, ErrPodcastNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update podcast %s: %w", id, err)
	}
	return &p, nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Podcast{})
	if res.Error != nil {
		return fmt.Errorf("delete podcast %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
	}
	return nil
}

func (r *GormRepository) IncrementLikes(ctx context.Context, id string) error {
	return r.bump(ctx, id, "likes", "likes + ?", "id = ?")
}

func (r *GormRepository) IncrementComments(ctx context.Context, id string) error {
	return r.bump(ctx, id, "comments", "comments + ?", "id = ?")
}

func (r *GormRepository) DecrementLikes(ctx context.Context, id string) error {
	err := r.bump(ctx, id, "likes", "likes - ?", "id = ? AND likes > 0")
	if !errors.Is(err, ErrPodcastNotFound) {
		return err
	}
	// no row matched: either missing, or already at zero
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return getErr
	}
	return nil
}

func (r *GormRepository) bump(ctx context.Context, id, column, expr, where string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Podcast{}).
		Where(where, id).
		UpdateColumn(column, gorm.Expr(expr, 1))
	if res.Error != nil {
		return fmt.Errorf("update %s of podcast %s: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
	}
	return nil
}

func (r *GormRepository) SeedIfEmpty(ctx context.Context, defaults []models.Podcast) (int, error) {
	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Podcast{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 || len(defaults) == 0 {
			return nil
		}

		records := make([]models.Podcast, len(defaults))
		for i, p := range defaults {
			records[i] = p.Clone()
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed podcasts: %w", err)
	}
	return int(inserted), nil
}
