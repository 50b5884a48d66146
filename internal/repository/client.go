package repository

import (
	"context"
	"errors"

	"almanac/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id uint) (*models.Client, error)
	List(ctx context.Context, includeInactive bool) ([]models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	SetActive(ctx context.Context, id uint, active bool) error
	// Delete removes the client and all of its posts in one transaction.
	Delete(ctx context.Context, id uint) error
}

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

// postsCountSelect computes posts_count per client at query time; the column
// is never stored so it cannot drift from the actual post collection.
const postsCountSelect = "clients.*, (SELECT COUNT(*) FROM calendar_posts WHERE calendar_posts.client_id = clients.id) AS posts_count"

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	row := clientToRow(*client)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	client.ID = row.ID
	client.CreatedAt = row.CreatedAt
	client.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id uint) (*models.Client, error) {
	var row clientRow
	err := r.db.WithContext(ctx).
		Select(postsCountSelect).
		First(&row, id).Error
	if err != nil {
		return nil, err
	}
	client := rowToClient(row)
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, includeInactive bool) ([]models.Client, error) {
	q := r.db.WithContext(ctx).
		Select(postsCountSelect).
		Order("created_at ASC")
	if !includeInactive {
		q = q.Where("active = ?", true)
	}

	var rows []clientRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	clients := make([]models.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, rowToClient(row))
	}
	return clients, nil
}

func (r *clientRepository) Update(ctx context.Context, client *models.Client) error {
	row := clientToRow(*client)
	result := r.db.WithContext(ctx).Model(&clientRow{ID: row.ID}).Updates(map[string]any{
		"name":          row.Name,
		"theme_color":   row.ThemeColor,
		"password_hash": row.PasswordHash,
		"active":        row.Active,
		"description":   row.Description,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&clientRow{ID: id}).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row clientRow
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}

		var postIDs []uint
		if err := tx.Model(&postRow{}).Where("client_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&postSocialNetworkRow{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&postImageRow{}).Error; err != nil {
				return err
			}
			if err := tx.Where("client_id = ?", id).Delete(&postRow{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&clientRow{}, id).Error
	})
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
