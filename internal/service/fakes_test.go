package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/notification"
	"github.com/egannguyen/tica-shop/internal/repository"
)

type fakeProducts struct {
	products map[int64]entity.Product
	err      error
}

func (f *fakeProducts) FindActive(ctx context.Context) ([]entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.Product
	for id := int64(1); id <= int64(len(f.products)); id++ {
		if p, ok := f.products[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) Seed(ctx context.Context, products []entity.Product) error {
	if f.err != nil {
		return f.err
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return nil
}

type fakeOrders struct {
	mu        sync.Mutex
	created   []*entity.PlaceOrder
	details   map[int64]*entity.OrderDetail
	createErr error
	listErr   error
	updateErr error
	nextID    int64
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{details: map[int64]*entity.OrderDetail{}, nextID: 1}
}

func (f *fakeOrders) Create(ctx context.Context, cmd *entity.PlaceOrder) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	id := f.nextID
	f.nextID++
	f.created = append(f.created, cmd)
	f.details[id] = &entity.OrderDetail{Order: entity.Order{ID: id, Status: entity.OrderStatusPending, CustomerName: cmd.CustomerName}}
	return id, nil
}

func (f *fakeOrders) FindAll(ctx context.Context) ([]entity.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []entity.Order
	for id := f.nextID - 1; id >= 1; id-- {
		out = append(out, f.details[id].Order)
	}
	return out, nil
}

func (f *fakeOrders) FindByID(ctx context.Context, id int64) (*entity.OrderDetail, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, id int64, from, to entity.OrderStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	d, ok := f.details[id]
	if !ok {
		return repository.ErrNotFound
	}
	if d.Status != from {
		return repository.ErrConflict
	}
	d.Status = to
	return nil
}

type fakeNotifier struct {
	calls  []notification.OrderEmail
	result notification.Result
}

func (f *fakeNotifier) OrderPlaced(ctx context.Context, order notification.OrderEmail) notification.Result {
	f.calls = append(f.calls, order)
	return f.result
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

type fakeUsers struct {
	users map[string]*entity.User
	err   error
}

func (f *fakeUsers) Upsert(ctx context.Context, u *entity.User) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	saved := *u
	if existing, ok := f.users[u.OpenID]; ok {
		saved.ID = existing.ID
		if saved.Role == "" {
			saved.Role = existing.Role
		}
	} else {
		saved.ID = int64(len(f.users) + 1)
		if saved.Role == "" {
			saved.Role = entity.RoleUser
		}
	}
	f.users[u.OpenID] = &saved
	return &saved, nil
}

func (f *fakeUsers) FindByOpenID(ctx context.Context, openID string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[openID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

var errDatabase = errors.New("connection refused")
