package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/idgen"
	"github.com/raderre/cresite/internal/model"
	"github.com/raderre/cresite/internal/store"
)

// propertyInput holds transport-agnostic parameters for creating a property.
type propertyInput struct {
	Title       string `json:"title"`
	Address     string `json:"address"`
	Type        string `json:"type"`
	Size        string `json:"size"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	Featured    bool   `json:"featured"`
	MLS         string `json:"mls"`
}

// updatePropertyInput holds a partial update; nil fields are left unchanged.
type updatePropertyInput struct {
	Title       *string `json:"title"`
	Address     *string `json:"address"`
	Type        *string `json:"type"`
	Size        *string `json:"size"`
	Price       *string `json:"price"`
	ImageURL    *string `json:"image_url"`
	Description *string `json:"description"`
	Featured    *bool   `json:"featured"`
	MLS         *string `json:"mls"`
}

func (in propertyInput) toModel() *model.Property {
	return &model.Property{
		Title:       strings.TrimSpace(in.Title),
		Address:     strings.TrimSpace(in.Address),
		Type:        strings.TrimSpace(in.Type),
		Size:        strings.TrimSpace(in.Size),
		Price:       strings.TrimSpace(in.Price),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Description: in.Description,
		Featured:    in.Featured,
		MLS:         strings.TrimSpace(in.MLS),
	}
}

// createProperties validates and inserts every input in one transaction,
// stamping received_at with the current time, then publishes one
// PropertyCreated event per row in input order. Returns inputError when
// any input is invalid; nothing is written in that case.
func (s *ListingsServer) createProperties(ctx context.Context, actor string, ins []propertyInput) ([]*model.Property, error) {
	if len(ins) == 0 {
		return nil, inputError("no properties given")
	}

	now := s.now()
	props := make([]*model.Property, 0, len(ins))
	for i, in := range ins {
		p := in.toModel()
		if err := model.ValidateProperty(p); err != nil {
			if len(ins) == 1 {
				return nil, inputError("invalid property: " + err.Error())
			}
			return nil, inputError(fmt.Sprintf("invalid property %d: %v", i, err))
		}
		id, err := idgen.Property()
		if err != nil {
			return nil, fmt.Errorf("failed to generate ID: %w", err)
		}
		p.ID = id
		// Later rows in a batch sort as newer, preserving input order.
		p.ReceivedAt = now.Add(time.Duration(i) * time.Microsecond)
		p.CreatedAt = now
		p.UpdatedAt = now
		props = append(props, p)
	}

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		for _, p := range props {
			if err := tx.CreateProperty(ctx, p); err != nil {
				return fmt.Errorf("failed to create property: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range props {
		s.recordAndPublish(ctx, events.TopicPropertyCreated, p.ID, actor, events.PropertyCreated{New: p})
	}
	return props, nil
}

func (s *ListingsServer) createProperty(ctx context.Context, actor string, in propertyInput) (*model.Property, error) {
	props, err := s.createProperties(ctx, actor, []propertyInput{in})
	if err != nil {
		return nil, err
	}
	return props[0], nil
}

// updateProperty applies a partial update and publishes PropertyUpdated with
// the changed fields. Returns sql.ErrNoRows when the property is missing.
func (s *ListingsServer) updateProperty(ctx context.Context, id, actor string, in updatePropertyInput) (*model.Property, error) {
	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	// The getter may be cached; never mutate what it handed back.
	cp := *p
	p = &cp

	changes := make(map[string]any)
	setString := func(field string, dst *string, v *string, trim bool) {
		if v == nil {
			return
		}
		val := *v
		if trim {
			val = strings.TrimSpace(val)
		}
		if *dst != val {
			*dst = val
			changes[field] = val
		}
	}
	setString("title", &p.Title, in.Title, true)
	setString("address", &p.Address, in.Address, true)
	setString("type", &p.Type, in.Type, true)
	setString("size", &p.Size, in.Size, true)
	setString("price", &p.Price, in.Price, true)
	setString("image_url", &p.ImageURL, in.ImageURL, true)
	setString("description", &p.Description, in.Description, false)
	setString("mls", &p.MLS, in.MLS, true)
	if in.Featured != nil && *in.Featured != p.Featured {
		p.Featured = *in.Featured
		changes["featured"] = p.Featured
	}

	if len(changes) == 0 {
		return p, nil
	}
	if err := model.ValidateProperty(p); err != nil {
		return nil, inputError("invalid property: " + err.Error())
	}

	p.UpdatedAt = s.now()
	if err := s.store.UpdateProperty(ctx, p); err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicPropertyUpdated, p.ID, actor, events.PropertyUpdated{Property: p, Changes: changes})
	return p, nil
}

func (s *ListingsServer) deleteProperty(ctx context.Context, id, actor string) error {
	if err := s.store.DeleteProperty(ctx, id); err != nil {
		return err
	}
	s.recordAndPublish(ctx, events.TopicPropertyDeleted, id, actor, events.PropertyDeleted{PropertyID: id})
	return nil
}
