package requirements

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"casedesk/internal/requirements/metrics"
	"casedesk/pkg/domain"
)

// PartySubject is the part of a linked party the resolver needs.
type PartySubject struct {
	ID              domain.PartyID
	ResidencyStatus string
}

// Subject is everything about a case that selects requirements.
type Subject struct {
	EntityType   domain.EntityType
	RiskLevel    domain.RiskLevel
	Parties      []PartySubject
	AccountTypes []string
}

// Build computes the checklist for subject from templates. It is pure:
// the same inputs always give the same ids in the same order.
//
// Rules are applied independently and unioned. Within a rule group the
// index is the template's position in Seq order, inactive templates
// included so that retiring one never renumbers its neighbours; each
// owner's list is then
// stable-sorted by SortOrder. The entity owner comes first, parties follow
// in link order.
func Build(templates []Template, subject Subject) []Item {
	ordered := slices.Clone(templates)
	slices.SortStableFunc(ordered, func(a, b Template) int { return a.Seq - b.Seq })

	var entity []Item
	entity = append(entity, group(ordered, "req-entity", OwnerEntity, func(t Template) bool {
		return t.Kind == KindEntityDocument && t.EntityType == subject.EntityType
	})...)
	formCategory := subject.EntityType.FormCategory()
	entity = append(entity, group(ordered, "req-forms", OwnerEntity, func(t Template) bool {
		return t.Kind == KindBankForm && t.FormCategory == formCategory
	})...)
	entity = append(entity, group(ordered, "req-risk", OwnerEntity, func(t Template) bool {
		return t.Kind == KindRiskBased && t.RiskLevel == subject.RiskLevel
	})...)
	for _, accountType := range distinct(subject.AccountTypes) {
		entity = append(entity, group(ordered, "req-account-"+accountType, OwnerEntity, func(t Template) bool {
			return t.Kind == KindAccountDocument && t.AccountType == accountType
		})...)
	}
	sortByOrder(entity)

	out := entity
	seenParty := make(map[domain.PartyID]struct{}, len(subject.Parties))
	for _, p := range subject.Parties {
		if _, dup := seenParty[p.ID]; dup {
			continue
		}
		seenParty[p.ID] = struct{}{}
		residency := strings.TrimSpace(p.ResidencyStatus)
		if residency == "" {
			residency = domain.DefaultResidencyStatus
		}
		items := group(ordered, "req-party-"+string(p.ID), string(p.ID), func(t Template) bool {
			return t.Kind == KindIndividualDocument && strings.EqualFold(t.ResidencyStatus, residency)
		})
		sortByOrder(items)
		out = append(out, items...)
	}
	return dedupe(out)
}

func group(templates []Template, prefix, owner string, match func(Template) bool) []Item {
	var items []Item
	index := 0
	for _, t := range templates {
		if !match(t) {
			continue
		}
		if !t.Active {
			index++
			continue
		}
		items = append(items, Item{
			ID:             fmt.Sprintf("%s-%d", prefix, index),
			TemplateID:     t.ID,
			Name:           t.Name,
			Description:    t.Description,
			Kind:           t.Kind,
			Required:       t.Required,
			ValidityMonths: t.ValidityMonths,
			OwnerID:        owner,
			SortOrder:      t.SortOrder,
		})
		index++
	}
	return items
}

func sortByOrder(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int { return a.SortOrder - b.SortOrder })
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupe(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Resolver loads the catalog and builds checklists.
type Resolver struct {
	catalog Catalog
	metrics *metrics.Metrics
}

type Option func(*Resolver)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func NewResolver(catalog Catalog, opts ...Option) *Resolver {
	r := &Resolver{catalog: catalog}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the target checklist for subject. A catalog with no
// matching templates yields an empty list, not an error.
func (r *Resolver) Resolve(ctx context.Context, subject Subject) ([]Item, error) {
	start := time.Now()
	templates, err := r.catalog.Templates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load requirement catalog: %w", err)
	}
	items := Build(templates, subject)
	r.metrics.ObserveResolve(time.Since(start), len(items))
	return items, nil
}
