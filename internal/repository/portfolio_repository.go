package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/workfolio-backend/internal/content"
	"github.com/ignatzorin/workfolio-backend/internal/models"
	"github.com/ignatzorin/workfolio-backend/internal/repository/common"
)

// ErrPortfolioNotFound возвращается, когда у владельца нет документа портфолио.
var ErrPortfolioNotFound = errors.New("portfolio not found")

const portfolioColumns = `id, author_id, title, description, content, version, is_published, created_at, updated_at`

// PortfolioRepository отвечает за таблицу portfolios и старые таблицы строк портфолио.
type PortfolioRepository struct {
	db *sqlx.DB
}

// NewPortfolioRepository создаёт экземпляр репозитория.
func NewPortfolioRepository(db *sqlx.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// FindLatestByOwner возвращает текущий документ владельца.
func (r *PortfolioRepository) FindLatestByOwner(ctx context.Context, authorID uuid.UUID) (*models.Portfolio, error) {
	var p models.Portfolio
	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolios
		WHERE author_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &p, query, authorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("portfolio repository: find latest by owner %w", err)
	}

	return &p, nil
}

// Create сохраняет первый документ владельца с версией 1.
// Если параллельный запрос успел создать запись, она перезаписывается с увеличением версии.
func (r *PortfolioRepository) Create(ctx context.Context, p *models.Portfolio) error {
	query := `
		INSERT INTO portfolios (author_id, title, description, content, version, is_published)
		VALUES ($1, $2, $3, $4, 1, TRUE)
		ON CONFLICT (author_id) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			version = portfolios.version + 1,
			updated_at = NOW()
		RETURNING ` + portfolioColumns

	if err := r.db.GetContext(ctx, p, query, p.AuthorID, p.Title, p.Description, jsonbParam(p.Content)); err != nil {
		return fmt.Errorf("portfolio repository: create %w", err)
	}

	return nil
}

// UpdateContent заменяет документ целиком и увеличивает версию на единицу.
// Блокировок нет: из двух параллельных сохранений остаётся последнее.
func (r *PortfolioRepository) UpdateContent(ctx context.Context, p *models.Portfolio) error {
	query := `
		UPDATE portfolios
		SET title = $2,
			description = $3,
			content = $4,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + portfolioColumns

	if err := r.db.GetContext(ctx, p, query, p.ID, p.Title, p.Description, jsonbParam(p.Content)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPortfolioNotFound
		}
		return fmt.Errorf("portfolio repository: update content %w", err)
	}

	return nil
}

// SetPublished переключает флаг публикации, не трогая версию.
func (r *PortfolioRepository) SetPublished(ctx context.Context, authorID uuid.UUID, published bool) (*models.Portfolio, error) {
	var p models.Portfolio
	query := `
		UPDATE portfolios
		SET is_published = $2, updated_at = NOW()
		WHERE author_id = $1
		RETURNING ` + portfolioColumns

	if err := r.db.GetContext(ctx, &p, query, authorID, published); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("portfolio repository: set published %w", err)
	}

	return &p, nil
}

type legacyExperienceRow struct {
	ID           string         `db:"id"`
	Role         string         `db:"role"`
	Organization string         `db:"organization"`
	Period       string         `db:"period"`
	Bullets      pq.StringArray `db:"bullets"`
	OrderIndex   int            `db:"order_index"`
}

type legacyProjectRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description *string        `db:"description"`
	Link        *string        `db:"link"`
	Tags        pq.StringArray `db:"tags"`
	OrderIndex  int            `db:"order_index"`
}

type legacySkillRow struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	Category   *string `db:"category"`
	Level      *int    `db:"level"`
	OrderIndex int     `db:"order_index"`
}

// LoadLegacy читает строки старых таблиц одним согласованным снимком.
func (r *PortfolioRepository) LoadLegacy(ctx context.Context, p *models.Portfolio) (content.Legacy, error) {
	legacy := content.Legacy{Title: p.Title, Description: p.Description}

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := common.WithTransaction(ctx, r.db, opts, func(tx *sqlx.Tx) error {
		var exps []legacyExperienceRow
		if err := tx.SelectContext(ctx, &exps, `
			SELECT id, role, organization, period, bullets, order_index
			FROM portfolio_experiences WHERE portfolio_id = $1 ORDER BY order_index
		`, p.ID); err != nil {
			return fmt.Errorf("portfolio repository: load legacy experiences %w", err)
		}

		var projects []legacyProjectRow
		if err := tx.SelectContext(ctx, &projects, `
			SELECT id, title, description, link, tags, order_index
			FROM portfolio_projects WHERE portfolio_id = $1 ORDER BY order_index
		`, p.ID); err != nil {
			return fmt.Errorf("portfolio repository: load legacy projects %w", err)
		}

		var skills []legacySkillRow
		if err := tx.SelectContext(ctx, &skills, `
			SELECT id, name, category, level, order_index
			FROM portfolio_skills WHERE portfolio_id = $1 ORDER BY order_index
		`, p.ID); err != nil {
			return fmt.Errorf("portfolio repository: load legacy skills %w", err)
		}

		for _, e := range exps {
			legacy.Experiences = append(legacy.Experiences, content.LegacyExperience{
				ID: e.ID, Role: e.Role, Organization: e.Organization, Period: e.Period,
				Bullets: []string(e.Bullets), OrderIndex: e.OrderIndex,
			})
		}
		for _, pr := range projects {
			legacy.Projects = append(legacy.Projects, content.LegacyProject{
				ID: pr.ID, Title: pr.Title, Description: pr.Description, Link: pr.Link,
				Tags: []string(pr.Tags), OrderIndex: pr.OrderIndex,
			})
		}
		for _, s := range skills {
			legacy.Skills = append(legacy.Skills, content.LegacySkill{
				ID: s.ID, Name: s.Name, Category: s.Category, Level: s.Level, OrderIndex: s.OrderIndex,
			})
		}
		return nil
	})

	return legacy, err
}

// jsonbParam передаёт документ в драйвер строкой: []byte pq отправил бы как bytea.
func jsonbParam(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
