package utils

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (ctx's organization_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, organizationId string, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("organization_id = ?", organizationId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models from db
// (ctx's organization_id is used in query's WHERE)
func FetchAllModels[T any](ctx context.Context, organizationId string, associations ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("organization_id = ?", organizationId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
