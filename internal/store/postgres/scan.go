package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/raderre/cresite/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// propertyDest returns scan destinations in propertyColumns order. The
// nullable mls column lands in the returned NullString.
func propertyDest(p *model.Property, mls *sql.NullString) []any {
	return []any{
		&p.ID,
		&p.Title,
		&p.Address,
		&p.Type,
		&p.Size,
		&p.Price,
		&p.ImageURL,
		&p.Description,
		&p.Featured,
		mls,
		&p.ReceivedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func scanProperty(row scannable) (*model.Property, error) {
	var (
		p   model.Property
		mls sql.NullString
	)
	if err := row.Scan(propertyDest(&p, &mls)...); err != nil {
		return nil, err
	}
	p.MLS = mls.String
	return &p, nil
}

// scanPropertyWithTotal scans a row with a leading total_count column.
func scanPropertyWithTotal(row scannable) (*model.Property, int, error) {
	var (
		total int
		p     model.Property
		mls   sql.NullString
	)
	dest := append([]any{&total}, propertyDest(&p, &mls)...)
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	p.MLS = mls.String
	return &p, total, nil
}

func scanProperties(rows *sql.Rows) ([]*model.Property, error) {
	var props []*model.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

func blogDest(b *model.BlogPost, imageURL *sql.NullString) []any {
	return []any{
		&b.ID,
		&b.Title,
		&b.Excerpt,
		&b.Content,
		imageURL,
		&b.Category,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

func scanBlogPost(row scannable) (*model.BlogPost, error) {
	var (
		b        model.BlogPost
		imageURL sql.NullString
	)
	if err := row.Scan(blogDest(&b, &imageURL)...); err != nil {
		return nil, err
	}
	b.ImageURL = imageURL.String
	return &b, nil
}

func scanBlogPostWithTotal(row scannable) (*model.BlogPost, int, error) {
	var (
		total    int
		b        model.BlogPost
		imageURL sql.NullString
	)
	dest := append([]any{&total}, blogDest(&b, &imageURL)...)
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	b.ImageURL = imageURL.String
	return &b, total, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var (
		e       model.Event
		actor   sql.NullString
		payload []byte
	)
	if err := row.Scan(&e.ID, &e.Topic, &e.SubjectID, &actor, &payload, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
