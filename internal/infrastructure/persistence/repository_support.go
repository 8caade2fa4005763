package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tabler is implemented by every persistence model
type tabler interface {
	TableName() string
}

// notFoundError maps gorm.ErrRecordNotFound to a NOT_FOUND domain error
func notFoundError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, what+" not found")
	}
	return err
}

// applyOrderAndPage applies whitelisted ordering and pagination
func applyOrderAndPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, allowed, defaultField)
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern builds a case-insensitive LIKE pattern for a search term
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// saveWithVersion writes every column of model only if the stored row still
// carries expectedVersion. A missing row is NOT_FOUND; a version mismatch is
// CONCURRENCY_CONFLICT.
func saveWithVersion(ctx context.Context, db *gorm.DB, model tabler, id uuid.UUID, expectedVersion int, what string) error {
	result := db.WithContext(ctx).
		Model(model).
		Where("version = ?", expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Table(model.TableName()).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewDomainError(shared.CodeNotFound, what+" not found")
	}
	return shared.NewDomainError(shared.CodeConcurrencyConflict, what+" was modified by another transaction")
}

// deleteByID removes one row and reports NOT_FOUND when nothing was deleted
func deleteByID(ctx context.Context, db *gorm.DB, model tabler, id uuid.UUID, what string) error {
	result := db.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeNotFound, what+" not found")
	}
	return nil
}
