package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/online_school/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
