package repo

import (
	"context"

	"github.com/Skotchmaster/online_school/internal/models"
)

// FindProduct loads the product a reference points at. Exactly one of the
// returned pointers is non-nil on success.
func (r *GormRepo) FindProduct(ctx context.Context, ref models.ProductRef) (*models.Curriculum, *models.Course, error) {
	db := r.DB.WithContext(ctx)

	if ref.CurriculumID != nil {
		var cur models.Curriculum
		if err := db.First(&cur, *ref.CurriculumID).Error; err != nil {
			return nil, nil, err
		}
		return &cur, nil, nil
	}

	var course models.Course
	if err := db.First(&course, *ref.CourseID).Error; err != nil {
		return nil, nil, err
	}
	return nil, &course, nil
}
