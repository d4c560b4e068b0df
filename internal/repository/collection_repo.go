package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// CollectionRepo 基于 GORM 的专辑仓储
type CollectionRepo struct {
	db *gorm.DB
}

// NewCollectionRepo 创建专辑仓储
func NewCollectionRepo(db *gorm.DB) *CollectionRepo {
	return &CollectionRepo{db: db}
}

func (r *CollectionRepo) GetCollection(ctx context.Context, userID, id int64) (*Collection, error) {
	var m CollectionModel
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		return nil, translateNotFound(err)
	}
	c := m.ToCollection()
	return &c, nil
}

func (r *CollectionRepo) GetOrCreateCollection(ctx context.Context, userID int64, name string) (*Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("collection name 不能为空")
	}

	c, err := r.findByName(ctx, userID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	m := CollectionModel{UserID: userID, Name: name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if !IsUniqueViolation(err) {
			return nil, err
		}
		// 并发创建，读取胜出的那一行
		return r.findByName(ctx, userID, name)
	}
	out := m.ToCollection()
	return &out, nil
}

func (r *CollectionRepo) findByName(ctx context.Context, userID int64, name string) (*Collection, error) {
	var m CollectionModel
	if err := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&m).Error; err != nil {
		return nil, translateNotFound(err)
	}
	c := m.ToCollection()
	return &c, nil
}

// IsUniqueViolation 判断是否为唯一约束冲突（支持 postgres 与 sqlite）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
