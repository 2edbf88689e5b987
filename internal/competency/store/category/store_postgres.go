package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/sentinel"
)

// PostgresStore persists categories and links in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, category *models.SkillCategory) error {
	query := `
		INSERT INTO skill_categories (id, name, slug, knowledge_description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(category.ID),
		category.Name,
		category.Slug,
		category.KnowledgeDescription,
		category.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("category %s: %w", category.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.CategoryID) (*models.SkillCategory, error) {
	query := `
		SELECT id, name, slug, knowledge_description, created_at
		FROM skill_categories
		WHERE id = $1
	`
	var (
		category models.SkillCategory
		rawID    uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&rawID, &category.Name, &category.Slug, &category.KnowledgeDescription, &category.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	category.ID = domain.CategoryID(rawID)
	return &category, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.SkillCategory, error) {
	query := `
		SELECT id, name, slug, knowledge_description, created_at
		FROM skill_categories
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []*models.SkillCategory
	for rows.Next() {
		var (
			category models.SkillCategory
			rawID    uuid.UUID
		)
		if err := rows.Scan(&rawID, &category.Name, &category.Slug, &category.KnowledgeDescription, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		category.ID = domain.CategoryID(rawID)
		out = append(out, &category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) LinkCourse(ctx context.Context, link *models.CategoryCourseLink) error {
	query := `
		INSERT INTO category_course_links (category_id, course_id, course_name, knowledge_description, learning_hours)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (category_id, course_id) DO UPDATE
		SET course_name = EXCLUDED.course_name,
		    knowledge_description = EXCLUDED.knowledge_description,
		    learning_hours = EXCLUDED.learning_hours
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(link.CategoryID),
		link.CourseID.String(),
		link.CourseName,
		link.KnowledgeDescription,
		link.LearningHours,
	)
	if err != nil {
		return fmt.Errorf("link course: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnlinkCourse(ctx context.Context, categoryID domain.CategoryID, courseID domain.CourseID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM category_course_links WHERE category_id = $1 AND course_id = $2`,
		uuid.UUID(categoryID), courseID.String(),
	)
	if err != nil {
		return fmt.Errorf("unlink course: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("course link %s/%s: %w", categoryID, courseID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CourseLinks(ctx context.Context, categoryID domain.CategoryID) ([]*models.CategoryCourseLink, error) {
	query := `
		SELECT category_id, course_id, course_name, knowledge_description, learning_hours
		FROM category_course_links
		WHERE category_id = $1
		ORDER BY course_id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(categoryID))
	if err != nil {
		return nil, fmt.Errorf("query course links: %w", err)
	}
	defer rows.Close()

	var out []*models.CategoryCourseLink
	for rows.Next() {
		var (
			link     models.CategoryCourseLink
			rawID    uuid.UUID
			courseID string
		)
		if err := rows.Scan(&rawID, &courseID, &link.CourseName, &link.KnowledgeDescription, &link.LearningHours); err != nil {
			return nil, fmt.Errorf("scan course link: %w", err)
		}
		link.CategoryID = domain.CategoryID(rawID)
		link.CourseID = domain.CourseID(courseID)
		out = append(out, &link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course links: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CategoriesForCourse(ctx context.Context, courseID domain.CourseID) ([]domain.CategoryID, error) {
	return s.categoryIDs(ctx,
		`SELECT category_id FROM category_course_links WHERE course_id = $1`,
		courseID.String(),
	)
}

func (s *PostgresStore) LinkCapability(ctx context.Context, link *models.CategoryCapabilityLink) error {
	query := `
		INSERT INTO category_capability_links (category_id, capability_id, application_description)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_id, capability_id) DO UPDATE
		SET application_description = EXCLUDED.application_description
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(link.CategoryID),
		link.CapabilityID.String(),
		link.ApplicationDescription,
	)
	if err != nil {
		return fmt.Errorf("link capability: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnlinkCapability(ctx context.Context, categoryID domain.CategoryID, capabilityID domain.CapabilityID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM category_capability_links WHERE category_id = $1 AND capability_id = $2`,
		uuid.UUID(categoryID), capabilityID.String(),
	)
	if err != nil {
		return fmt.Errorf("unlink capability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("capability link %s/%s: %w", categoryID, capabilityID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CapabilityLinks(ctx context.Context, categoryID domain.CategoryID) ([]*models.CategoryCapabilityLink, error) {
	query := `
		SELECT category_id, capability_id, application_description
		FROM category_capability_links
		WHERE category_id = $1
		ORDER BY capability_id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(categoryID))
	if err != nil {
		return nil, fmt.Errorf("query capability links: %w", err)
	}
	defer rows.Close()

	var out []*models.CategoryCapabilityLink
	for rows.Next() {
		var (
			link         models.CategoryCapabilityLink
			rawID        uuid.UUID
			capabilityID string
		)
		if err := rows.Scan(&rawID, &capabilityID, &link.ApplicationDescription); err != nil {
			return nil, fmt.Errorf("scan capability link: %w", err)
		}
		link.CategoryID = domain.CategoryID(rawID)
		link.CapabilityID = domain.CapabilityID(capabilityID)
		out = append(out, &link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capability links: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CategoriesForCapability(ctx context.Context, capabilityID domain.CapabilityID) ([]domain.CategoryID, error) {
	return s.categoryIDs(ctx,
		`SELECT category_id FROM category_capability_links WHERE capability_id = $1`,
		capabilityID.String(),
	)
}

func (s *PostgresStore) categoryIDs(ctx context.Context, query string, arg any) ([]domain.CategoryID, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query category ids: %w", err)
	}
	defer rows.Close()

	var out []domain.CategoryID
	for rows.Next() {
		var rawID uuid.UUID
		if err := rows.Scan(&rawID); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		out = append(out, domain.CategoryID(rawID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category ids: %w", err)
	}
	return out, nil
}
