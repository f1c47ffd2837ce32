// ABOUTME: Lead and deal stores backing the dashboard and pipeline views
// ABOUTME: Plain CRUD with light validation; new leads are prepended
package store

import (
	"context"
	"strings"
	"time"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
)

type LeadStore struct {
	coll *Collection[models.Lead]
	now  func() time.Time
}

func NewLeadStore(res db.Resource, bus *broadcast.Bus, opts ...Option) *LeadStore {
	o := buildOptions(opts)
	return &LeadStore{
		now: o.now,
		coll: NewCollection(res, bus, Spec[models.Lead]{
			Key:   db.KeyLeads,
			Topic: broadcast.TopicLeads,
			ID:    func(l models.Lead) string { return l.ID },
			SetID: func(l *models.Lead, id string) { l.ID = id },
			Seed:  SeedLeads,
		}),
	}
}

func prepareLead(l *models.Lead) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return invalid("name is required")
	}
	if l.Status == "" {
		l.Status = models.LeadNew
	}
	if !l.Status.Valid() {
		return invalid("unknown lead status %q", l.Status)
	}
	if l.Email != "" && !strings.Contains(l.Email, "@") {
		return invalid("email %q is not valid", l.Email)
	}
	if l.Value < 0 {
		return invalid("value must not be negative")
	}
	return nil
}

func (s *LeadStore) List(ctx context.Context) ([]models.Lead, error) {
	return s.coll.List(ctx)
}

func (s *LeadStore) Get(ctx context.Context, id string) (models.Lead, error) {
	return s.coll.Get(ctx, id)
}

func (s *LeadStore) Create(ctx context.Context, l models.Lead) (models.Lead, error) {
	if err := prepareLead(&l); err != nil {
		return models.Lead{}, err
	}
	if l.CreatedOn == "" {
		l.CreatedOn = s.now().Format(models.DateLayout)
	}
	return s.coll.Insert(ctx, l, true)
}

func (s *LeadStore) Update(ctx context.Context, l models.Lead) error {
	if err := prepareLead(&l); err != nil {
		return err
	}
	_, err := s.coll.Replace(ctx, l)
	return err
}

func (s *LeadStore) Remove(ctx context.Context, id string) error {
	_, err := s.coll.Remove(ctx, id)
	return err
}

func (s *LeadStore) Reload(ctx context.Context) error {
	return s.coll.Reload(ctx)
}

type DealStore struct {
	coll *Collection[models.Deal]
	now  func() time.Time
}

func NewDealStore(res db.Resource, bus *broadcast.Bus, opts ...Option) *DealStore {
	o := buildOptions(opts)
	return &DealStore{
		now: o.now,
		coll: NewCollection(res, bus, Spec[models.Deal]{
			Key:   db.KeyDeals,
			Topic: broadcast.TopicDeals,
			ID:    func(d models.Deal) string { return d.ID },
			SetID: func(d *models.Deal, id string) { d.ID = id },
			Seed:  SeedDeals,
		}),
	}
}

func prepareDeal(d *models.Deal) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return invalid("title is required")
	}
	if d.Stage == "" {
		d.Stage = models.DealQualification
	}
	if !d.Stage.Valid() {
		return invalid("unknown deal stage %q", d.Stage)
	}
	if d.Amount < 0 {
		return invalid("amount must not be negative")
	}
	if d.CloseDate != "" {
		if _, err := time.Parse(models.DateLayout, d.CloseDate); err != nil {
			return invalid("closeDate must be YYYY-MM-DD, got %q", d.CloseDate)
		}
	}
	return nil
}

func (s *DealStore) List(ctx context.Context) ([]models.Deal, error) {
	return s.coll.List(ctx)
}

func (s *DealStore) Get(ctx context.Context, id string) (models.Deal, error) {
	return s.coll.Get(ctx, id)
}

func (s *DealStore) Create(ctx context.Context, d models.Deal) (models.Deal, error) {
	if err := prepareDeal(&d); err != nil {
		return models.Deal{}, err
	}
	if d.CreatedOn == "" {
		d.CreatedOn = s.now().Format(models.DateLayout)
	}
	return s.coll.Insert(ctx, d, false)
}

func (s *DealStore) Update(ctx context.Context, d models.Deal) error {
	if err := prepareDeal(&d); err != nil {
		return err
	}
	_, err := s.coll.Replace(ctx, d)
	return err
}

func (s *DealStore) Remove(ctx context.Context, id string) error {
	_, err := s.coll.Remove(ctx, id)
	return err
}

func (s *DealStore) Reload(ctx context.Context) error {
	return s.coll.Reload(ctx)
}
