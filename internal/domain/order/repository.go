package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when an order or project does not exist
var ErrNotFound = errors.New("record not found")

// Repository persists paid orders and the projects that follow them
type Repository interface {
	SaveOrder(ctx context.Context, o *Order) error
	FindOrder(ctx context.Context, id string) (*Order, error)
	UpsertProject(ctx context.Context, p *Project) error
	FindProject(ctx context.Context, id string) (*Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status ProjectStatus, processorSessionID string) error
}

// GormRepository is the PostgreSQL Repository
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new gorm backed repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// SaveOrder inserts or updates an order by primary key
func (r *GormRepository) SaveOrder(ctx context.Context, o *Order) error {
	if err := r.db.WithContext(ctx).Save(o).Error; err != nil {
		return fmt.Errorf("failed to save order %s: %w", o.ID, err)
	}
	return nil
}

// FindOrder retrieves an order by id
func (r *GormRepository) FindOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&o)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &o, nil
}

// UpsertProject creates the project or refreshes its balance and contact.
// A paid project keeps its status.
func (r *GormRepository) UpsertProject(ctx context.Context, p *Project) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"order_id":          gorm.Expr("COALESCE(NULLIF(EXCLUDED.order_id, ''), projects.order_id)"),
			"customer_email":    gorm.Expr("COALESCE(NULLIF(EXCLUDED.customer_email, ''), projects.customer_email)"),
			"customer_name":     gorm.Expr("COALESCE(NULLIF(EXCLUDED.customer_name, ''), projects.customer_name)"),
			"remaining_balance": gorm.Expr("EXCLUDED.remaining_balance"),
			"currency":          gorm.Expr("EXCLUDED.currency"),
			"status": gorm.Expr("CASE WHEN projects.status = ? THEN projects.status ELSE EXCLUDED.status END",
				ProjectStatusPaid),
			"updated_at": gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}
	return nil
}

// FindProject retrieves a project by id
func (r *GormRepository) FindProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve project: %w", result.Error)
	}
	return &p, nil
}

// UpdateProjectStatus moves a project along its final payment
func (r *GormRepository) UpdateProjectStatus(ctx context.Context, id string, status ProjectStatus, processorSessionID string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if processorSessionID != "" {
		updates["final_session_id"] = processorSessionID
	}
	if status == ProjectStatusPaid {
		updates["paid_at"] = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).Model(&Project{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update project status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
