package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/raderre/cresite/internal/model"
)

// propertyColumns is the column list used for SELECT statements on the properties table.
const propertyColumns = `id, title, address, type, size, price, image_url,
	description, featured, mls, received_at, created_at, updated_at`

const blogColumns = `id, title, excerpt, content, image_url, category, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// placeholders numbers positional arguments as they are appended.
type placeholders struct {
	args []any
}

func (p *placeholders) add(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

func queryCreateProperty(ctx context.Context, db executor, p *model.Property) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO properties (
			id, title, address, type, size, price, image_url,
			description, featured, mls, received_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13
		)`,
		p.ID,
		p.Title,
		p.Address,
		p.Type,
		p.Size,
		p.Price,
		p.ImageURL,
		p.Description,
		p.Featured,
		nullString(p.MLS),
		p.ReceivedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func queryGetProperty(ctx context.Context, db executor, id string) (*model.Property, error) {
	row := db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	return scanProperty(row)
}

func queryListProperties(ctx context.Context, db executor, filter model.PropertyFilter) ([]*model.Property, int, error) {
	var (
		where []string
		ph    placeholders
	)

	if len(filter.Type) > 0 {
		in := make([]string, len(filter.Type))
		for i, t := range filter.Type {
			in[i] = ph.add(t)
		}
		where = append(where, "type IN ("+strings.Join(in, ", ")+")")
	}

	if filter.Featured != nil {
		where = append(where, "featured = "+ph.add(*filter.Featured))
	}

	if filter.Search != "" {
		p := ph.add(filter.Search)
		where = append(where, fmt.Sprintf(
			"(title ILIKE '%%' || %s || '%%' OR address ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')",
			p, p, p))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	// COUNT(*) OVER() returns the unpaginated total alongside each row.
	q := "SELECT COUNT(*) OVER() AS total_count, " + propertyColumns + " FROM properties" + whereSQL +
		" ORDER BY " + parseSortClause(filter.Sort)
	if filter.Limit > 0 {
		q += " LIMIT " + ph.add(filter.Limit)
	}
	if filter.Offset > 0 {
		q += " OFFSET " + ph.add(filter.Offset)
	}

	rows, err := db.QueryContext(ctx, q, ph.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var (
		props []*model.Property
		total int
	)
	for rows.Next() {
		p, t, err := scanPropertyWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan properties: %w", err)
		}
		total = t
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list properties rows: %w", err)
	}
	return props, total, nil
}

// queryFeaturedProperties returns featured rows newest-received first. A
// non-positive limit returns every featured row.
func queryFeaturedProperties(ctx context.Context, db executor, limit int) ([]*model.Property, error) {
	q := `SELECT ` + propertyColumns + ` FROM properties WHERE featured = TRUE ORDER BY received_at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("featured properties: %w", err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

// queryUpdateProperty rewrites every mutable column. received_at is fixed
// at ingestion and never changes.
func queryUpdateProperty(ctx context.Context, db executor, p *model.Property) error {
	res, err := db.ExecContext(ctx, `
		UPDATE properties SET
			title = $2, address = $3, type = $4, size = $5, price = $6,
			image_url = $7, description = $8, featured = $9, mls = $10,
			updated_at = $11
		WHERE id = $1`,
		p.ID,
		p.Title,
		p.Address,
		p.Type,
		p.Size,
		p.Price,
		p.ImageURL,
		p.Description,
		p.Featured,
		nullString(p.MLS),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	return requireOneRow(res)
}

func queryDeleteProperty(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return requireOneRow(res)
}

func queryCreateBlogPost(ctx context.Context, db executor, b *model.BlogPost) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO blog_posts (id, title, excerpt, content, image_url, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID,
		b.Title,
		b.Excerpt,
		b.Content,
		nullString(b.ImageURL),
		b.Category,
		b.CreatedAt,
		b.UpdatedAt,
	)
	return err
}

func queryGetBlogPost(ctx context.Context, db executor, id string) (*model.BlogPost, error) {
	row := db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE id = $1`, id)
	return scanBlogPost(row)
}

func queryListBlogPosts(ctx context.Context, db executor, filter model.BlogFilter) ([]*model.BlogPost, int, error) {
	var ph placeholders
	q := "SELECT COUNT(*) OVER() AS total_count, " + blogColumns + " FROM blog_posts"
	if filter.Category != "" {
		q += " WHERE category = " + ph.add(filter.Category)
	}
	q += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		q += " LIMIT " + ph.add(filter.Limit)
	}
	if filter.Offset > 0 {
		q += " OFFSET " + ph.add(filter.Offset)
	}

	rows, err := db.QueryContext(ctx, q, ph.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()

	var (
		posts []*model.BlogPost
		total int
	)
	for rows.Next() {
		b, t, err := scanBlogPostWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan blog posts: %w", err)
		}
		total = t
		posts = append(posts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list blog posts rows: %w", err)
	}
	return posts, total, nil
}

func queryUpdateBlogPost(ctx context.Context, db executor, b *model.BlogPost) error {
	res, err := db.ExecContext(ctx, `
		UPDATE blog_posts SET
			title = $2, excerpt = $3, content = $4, image_url = $5,
			category = $6, updated_at = $7
		WHERE id = $1`,
		b.ID,
		b.Title,
		b.Excerpt,
		b.Content,
		nullString(b.ImageURL),
		b.Category,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update blog post: %w", err)
	}
	return requireOneRow(res)
}

func queryDeleteBlogPost(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog post: %w", err)
	}
	return requireOneRow(res)
}

func queryDeleteBlogPosts(ctx context.Context, db executor, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `DELETE FROM blog_posts WHERE id = ANY($1) RETURNING id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("bulk delete blog posts: %w", err)
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted id: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deleted, nil
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, subject_id, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.SubjectID, nullString(e.Actor), jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, subjectID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, subject_id, actor, payload, created_at
		FROM events WHERE subject_id = $1
		ORDER BY created_at, id`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// requireOneRow maps a zero-row result to sql.ErrNoRows.
func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// parseSortClause maps a "-col" / "col" sort key onto an ORDER BY clause.
// Unknown columns fall back to newest-received first.
func parseSortClause(sort string) string {
	const fallback = "received_at DESC"
	if sort == "" {
		return fallback
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"received_at": true, "created_at": true, "updated_at": true,
		"title": true, "price": true, "type": true,
	}
	if !allowed[col] {
		return fallback
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
