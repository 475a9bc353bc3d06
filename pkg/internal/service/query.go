package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/filedeck/pkg/internal/model"
	"github.com/yeisme/filedeck/pkg/internal/types"
	"github.com/yeisme/filedeck/pkg/tracing"
)

// List 按条件查询文件，没有匹配时返回空切片.
func (s *FileService) List(ctx context.Context, q types.ListFilesQuery) ([]model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.List")
	defer span.End()

	filter := NewListFilter(q)
	span.SetAttributes(
		attribute.String("list.sort_by", string(filter.SortBy)),
		attribute.String("list.order", string(filter.Order)),
	)

	files, err := s.cache.Get(ctx, filter, func() ([]model.File, error) {
		return s.meta.FindMany(ctx, filter)
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if files == nil {
		files = []model.File{}
	}

	span.SetAttributes(attribute.Int("list.count", len(files)))

	return files, nil
}

// Get 按 id 查询单个文件.
func (s *FileService) Get(ctx context.Context, id string) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Get")
	defer span.End()

	if id == "" {
		return nil, fmt.Errorf("%w: file id is required", ErrValidation)
	}

	f, err := s.meta.FindUnique(ctx, id)
	if err != nil {
		if s.isNotFound(err) {
			return nil, ErrNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return f, nil
}
