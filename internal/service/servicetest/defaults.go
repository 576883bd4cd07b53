package servicetest

import (
	"context"
	"sort"
	"time"

	"bakery-shop-backend/internal/model"
)

// flagged is the part of Address and PaymentMethod the default flag logic
// needs.
type flagged interface {
	model.Address | model.PaymentMethod
}

// defaults mirrors the partial unique index on {user_id} where is_default is
// true: any write that would leave two defaults for a user fails with
// model.ErrDuplicate.
type defaults[T flagged] struct {
	s     *Store
	items func() map[string]T
	owner func(T) string
	isDef func(T) bool
	setID func(*T, string)
	setDf func(*T, bool)
	touch func(*T, time.Time)
}

func (d defaults[T]) conflict(userID, exceptID string) bool {
	for id, v := range d.items() {
		if id != exceptID && d.owner(v) == userID && d.isDef(v) {
			return true
		}
	}
	return false
}

func (d defaults[T]) UnsetDefaults(_ context.Context, userID, exceptID string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	for id, v := range d.items() {
		if id != exceptID && d.owner(v) == userID && d.isDef(v) {
			d.setDf(&v, false)
			d.touch(&v, time.Now().UTC())
			d.items()[id] = v
		}
	}
	return nil
}

func (d defaults[T]) MarkDefault(_ context.Context, id string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	v, ok := d.items()[id]
	if !ok {
		return model.ErrNotFound
	}
	if d.conflict(d.owner(v), id) {
		return model.ErrDuplicate
	}
	d.setDf(&v, true)
	d.touch(&v, time.Now().UTC())
	d.items()[id] = v
	return nil
}

func (d defaults[T]) Delete(_ context.Context, id string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.items()[id]; !ok {
		return model.ErrNotFound
	}
	delete(d.items(), id)
	return nil
}

func (d defaults[T]) insert(v *T) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	id := newID()
	if d.isDef(*v) && d.conflict(d.owner(*v), id) {
		return model.ErrDuplicate
	}
	d.setID(v, id)
	d.touch(v, time.Now().UTC())
	d.items()[id] = *v
	return nil
}

func (d defaults[T]) list(userID string, createdAt func(T) time.Time) []T {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var out []T
	for _, v := range d.items() {
		if d.owner(v) == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if d.isDef(out[i]) != d.isDef(out[j]) {
			return d.isDef(out[i])
		}
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	return out
}

type Addresses struct{ s *Store }

func (r *Addresses) flags() defaults[model.Address] {
	return defaults[model.Address]{
		s:     r.s,
		items: func() map[string]model.Address { return r.s.st.addresses },
		owner: func(a model.Address) string { return a.UserID },
		isDef: func(a model.Address) bool { return a.IsDefault },
		setID: func(a *model.Address, id string) { a.ID = id },
		setDf: func(a *model.Address, v bool) { a.IsDefault = v },
		touch: func(a *model.Address, t time.Time) {
			if a.CreatedAt.IsZero() {
				a.CreatedAt = t
			}
			a.UpdatedAt = t
		},
	}
}

func (r *Addresses) UnsetDefaults(ctx context.Context, userID, exceptID string) error {
	return r.flags().UnsetDefaults(ctx, userID, exceptID)
}

func (r *Addresses) MarkDefault(ctx context.Context, id string) error {
	return r.flags().MarkDefault(ctx, id)
}

func (r *Addresses) Delete(ctx context.Context, id string) error {
	return r.flags().Delete(ctx, id)
}

func (r *Addresses) List(_ context.Context, userID string) ([]*model.Address, error) {
	out := []*model.Address{}
	for _, a := range r.flags().list(userID, func(a model.Address) time.Time { return a.CreatedAt }) {
		out = append(out, &a)
	}
	return out, nil
}

func (r *Addresses) FindByID(_ context.Context, id string) (*model.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.st.addresses[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (r *Addresses) Create(_ context.Context, a *model.Address) error {
	return r.flags().insert(a)
}

func (r *Addresses) Update(_ context.Context, a *model.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.addresses[a.ID]
	if !ok {
		return model.ErrNotFound
	}
	if a.IsDefault && r.flags().conflict(cur.UserID, a.ID) {
		return model.ErrDuplicate
	}
	next := *a
	next.UserID = cur.UserID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	r.s.st.addresses[a.ID] = next
	return nil
}

type PaymentMethods struct{ s *Store }

func (r *PaymentMethods) flags() defaults[model.PaymentMethod] {
	return defaults[model.PaymentMethod]{
		s:     r.s,
		items: func() map[string]model.PaymentMethod { return r.s.st.payments },
		owner: func(p model.PaymentMethod) string { return p.UserID },
		isDef: func(p model.PaymentMethod) bool { return p.IsDefault },
		setID: func(p *model.PaymentMethod, id string) { p.ID = id },
		setDf: func(p *model.PaymentMethod, v bool) { p.IsDefault = v },
		touch: func(p *model.PaymentMethod, t time.Time) {
			if p.CreatedAt.IsZero() {
				p.CreatedAt = t
			}
			p.UpdatedAt = t
		},
	}
}

func (r *PaymentMethods) UnsetDefaults(ctx context.Context, userID, exceptID string) error {
	return r.flags().UnsetDefaults(ctx, userID, exceptID)
}

func (r *PaymentMethods) MarkDefault(ctx context.Context, id string) error {
	return r.flags().MarkDefault(ctx, id)
}

func (r *PaymentMethods) Delete(ctx context.Context, id string) error {
	return r.flags().Delete(ctx, id)
}

func (r *PaymentMethods) List(_ context.Context, userID string) ([]*model.PaymentMethod, error) {
	out := []*model.PaymentMethod{}
	for _, p := range r.flags().list(userID, func(p model.PaymentMethod) time.Time { return p.CreatedAt }) {
		out = append(out, &p)
	}
	return out, nil
}

func (r *PaymentMethods) FindByID(_ context.Context, id string) (*model.PaymentMethod, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.payments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (r *PaymentMethods) Create(_ context.Context, p *model.PaymentMethod) error {
	return r.flags().insert(p)
}
