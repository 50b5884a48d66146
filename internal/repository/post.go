package repository

import (
	"context"

	"almanac/internal/models"

	"gorm.io/gorm"
)

// PostRepository is the relational implementation of post persistence. It
// keeps the collection-replacing write contract of the document backend so
// services behave identically regardless of which backend is active.
type PostRepository interface {
	ListAll(ctx context.Context) ([]models.Post, error)
	ListByClient(ctx context.Context, clientID uint) ([]models.Post, error)
	// ReplaceClientPosts swaps one client's posts for the given subset inside
	// a transaction, dropping deletedID if non-zero. Other clients' rows are
	// never touched.
	ReplaceClientPosts(ctx context.Context, clientID uint, posts []models.Post, deletedID uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	var rows []postRow
	err := r.db.WithContext(ctx).
		Preload("SocialNetworks").
		Preload("Images").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rowsToPosts(rows), nil
}

func (r *postRepository) ListByClient(ctx context.Context, clientID uint) ([]models.Post, error) {
	var rows []postRow
	err := r.db.WithContext(ctx).
		Preload("SocialNetworks").
		Preload("Images").
		Where("client_id = ?", clientID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rowsToPosts(rows), nil
}

func (r *postRepository) ReplaceClientPosts(ctx context.Context, clientID uint, posts []models.Post, deletedID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldIDs []uint
		if err := tx.Model(&postRow{}).Where("client_id = ?", clientID).Pluck("id", &oldIDs).Error; err != nil {
			return err
		}
		if deletedID != 0 {
			oldIDs = append(oldIDs, deletedID)
		}

		if len(oldIDs) > 0 {
			if err := tx.Where("post_id IN ?", oldIDs).Delete(&postSocialNetworkRow{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", oldIDs).Delete(&postImageRow{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", oldIDs).Delete(&postRow{}).Error; err != nil {
				return err
			}
		}

		for _, p := range posts {
			row := postToRow(p)
			// Join rows carry the parent id explicitly; zero it on the parent
			// association so gorm does not double-insert.
			networks := row.SocialNetworks
			images := row.Images
			row.SocialNetworks = nil
			row.Images = nil

			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			for i := range networks {
				networks[i].PostID = row.ID
				networks[i].ID = 0
			}
			for i := range images {
				images[i].PostID = row.ID
				images[i].ID = 0
			}
			if len(networks) > 0 {
				if err := tx.Create(&networks).Error; err != nil {
					return err
				}
			}
			if len(images) > 0 {
				if err := tx.Create(&images).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func rowsToPosts(rows []postRow) []models.Post {
	posts := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, rowToPost(row))
	}
	return posts
}
