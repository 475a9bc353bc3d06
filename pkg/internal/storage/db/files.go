package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/filedeck/pkg/internal/model"
	"github.com/yeisme/filedeck/pkg/internal/types"
)

// ErrNotFound 记录不存在.
var ErrNotFound = errors.New("record not found")

// likeEscape LIKE 转义字符，SQLite/PostgreSQL/MySQL 都接受 ESCAPE '!'.
const likeEscape = "!"

// sortColumns 排序字段到列名的固定映射，调用方字符串不会直接进入 ORDER BY.
var sortColumns = map[types.SortField]string{
	types.SortUploadedAt:   "uploaded_at",
	types.SortName:         "name",
	types.SortOriginalName: "original_name",
	types.SortSize:         "size",
	types.SortType:         "type",
	types.SortMimeType:     "mime_type",
	types.SortFolder:       "folder",
}

// SortColumn 返回排序字段对应的列名，未知字段返回 uploaded_at.
func SortColumn(f types.SortField) string {
	if col, ok := sortColumns[f]; ok {
		return col
	}

	return sortColumns[types.SortUploadedAt]
}

// FileStore 文件元数据仓库.
type FileStore struct {
	db *gorm.DB
}

// NewFileStore 创建文件元数据仓库.
func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

// Create 插入一条新记录.
func (s *FileStore) Create(ctx context.Context, f *model.File) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("create file record: %w", err)
	}

	return nil
}

// FindMany 按过滤条件与排序返回记录，没有匹配时返回空切片.
func (s *FileStore) FindMany(ctx context.Context, filter types.ListFilter) ([]model.File, error) {
	q := s.db.WithContext(ctx).Model(&model.File{})

	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		q = q.Where("(name_fold LIKE ? ESCAPE '"+likeEscape+"' OR original_name_fold LIKE ? ESCAPE '"+likeEscape+"')",
			pattern, pattern)
	}

	if filter.Type != "" {
		q = q.Where("type_fold LIKE ? ESCAPE '"+likeEscape+"'", containsPattern(filter.Type))
	}

	q = q.Order(clause.OrderByColumn{
		Column: clause.Column{Name: SortColumn(filter.SortBy)},
		Desc:   filter.Order != types.SortAsc,
	}).Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	files := make([]model.File, 0)
	if err := q.Find(&files).Error; err != nil {
		return nil, fmt.Errorf("find file records: %w", err)
	}

	return files, nil
}

// FindUnique 按 ID 查找记录，不存在时返回 ErrNotFound.
func (s *FileStore) FindUnique(ctx context.Context, id string) (*model.File, error) {
	var f model.File

	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("find file record %s: %w", id, err)
	}

	return &f, nil
}

// Delete 按 ID 删除记录，没有行被删除时返回 ErrNotFound.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.File{})
	if res.Error != nil {
		return fmt.Errorf("delete file record %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// BlobURLs 返回所有记录引用的对象地址.
func (s *FileStore) BlobURLs(ctx context.Context) ([]string, error) {
	urls := make([]string, 0)
	if err := s.db.WithContext(ctx).Model(&model.File{}).Pluck("blob_url", &urls).Error; err != nil {
		return nil, fmt.Errorf("list blob urls: %w", err)
	}

	return urls, nil
}

// ReferencesBlob 判断是否仍有记录引用该对象地址.
func (s *FileStore) ReferencesBlob(ctx context.Context, url string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.File{}).Where("blob_url = ?", url).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count blob references: %w", err)
	}

	return n > 0, nil
}

// containsPattern 生成匹配折叠列的子串模式，输入中的通配符按字面量处理.
func containsPattern(term string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + r.Replace(model.Fold(term)) + "%"
}

const foldBackfillBatch = 200

// backfillFolds 为折叠列加入之前写入的记录补齐折叠值.
func backfillFolds(ctx context.Context, db *gorm.DB) (int, error) {
	var (
		batch   []model.File
		updated int
	)

	res := db.WithContext(ctx).
		Select("id", "name", "original_name", "type").
		Where("name_fold = '' AND original_name_fold = '' AND type_fold = ''").
		Where("(name <> '' OR original_name <> '' OR type <> '')").
		FindInBatches(&batch, foldBackfillBatch, func(*gorm.DB, int) error {
			for i := range batch {
				f := &batch[i]
				f.RefreshFolds()

				err := db.WithContext(ctx).Model(&model.File{}).Where("id = ?", f.ID).UpdateColumns(map[string]any{
					"name_fold":          f.NameFold,
					"original_name_fold": f.OriginalNameFold,
					"type_fold":          f.TypeFold,
				}).Error
				if err != nil {
					return err
				}

				updated++
			}

			return nil
		})
	if res.Error != nil {
		return updated, fmt.Errorf("backfill folded columns: %w", res.Error)
	}

	return updated, nil
}
