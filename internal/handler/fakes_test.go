package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/greenloop/waste2fertilizer/internal/middleware"
	"github.com/greenloop/waste2fertilizer/internal/model"
	"github.com/greenloop/waste2fertilizer/internal/repository"
	"github.com/greenloop/waste2fertilizer/internal/utils"
)

// In-memory store fakes. They implement the same sentinel-error contract as
// the MySQL repositories so handlers are tested against realistic behavior.

type fakeUserStore struct {
	users map[string]model.User // keyed by id
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User, password string, cost int) error {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type fakeListingStore struct {
	listings map[string]model.WasteListing
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: map[string]model.WasteListing{}}
}

func (s *fakeListingStore) Create(_ context.Context, l *model.WasteListing) error {
	s.listings[l.ID] = *l
	return nil
}

func (s *fakeListingStore) List(_ context.Context) ([]model.WasteListing, error) {
	out := make([]model.WasteListing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	return out, nil
}

func (s *fakeListingStore) ListByDonor(_ context.Context, donorID string) ([]model.WasteListing, error) {
	out := []model.WasteListing{}
	for _, l := range s.listings {
		if l.DonorID == donorID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeListingStore) GetByID(_ context.Context, id string) (model.WasteListing, error) {
	l, ok := s.listings[id]
	if !ok {
		return model.WasteListing{}, repository.ErrNotFound
	}
	return l, nil
}

func (s *fakeListingStore) Update(_ context.Context, l *model.WasteListing) error {
	if _, ok := s.listings[l.ID]; !ok {
		return repository.ErrNotFound
	}
	s.listings[l.ID] = *l
	return nil
}

func (s *fakeListingStore) Delete(_ context.Context, id string) error {
	if _, ok := s.listings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.listings, id)
	return nil
}

type fakeProductStore struct {
	products map[string]model.FertilizerProduct
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[string]model.FertilizerProduct{}}
}

func (s *fakeProductStore) Create(_ context.Context, p *model.FertilizerProduct) error {
	s.products[p.ID] = *p
	return nil
}

func (s *fakeProductStore) List(_ context.Context) ([]model.FertilizerProduct, error) {
	out := make([]model.FertilizerProduct, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeProductStore) ListByManufacturer(_ context.Context, manufacturerID string) ([]model.FertilizerProduct, error) {
	out := []model.FertilizerProduct{}
	for _, p := range s.products {
		if p.ManufacturerID == manufacturerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeProductStore) GetByID(_ context.Context, id string) (model.FertilizerProduct, error) {
	p, ok := s.products[id]
	if !ok {
		return model.FertilizerProduct{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *fakeProductStore) Update(_ context.Context, p *model.FertilizerProduct) error {
	if _, ok := s.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	s.products[p.ID] = *p
	return nil
}

func (s *fakeProductStore) Delete(_ context.Context, id string) error {
	if _, ok := s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

type fakeOrderStore struct {
	orders map[string]model.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]model.Order{}}
}

func (s *fakeOrderStore) Create(_ context.Context, o *model.Order) error {
	s.orders[o.ID] = *o
	return nil
}

func (s *fakeOrderStore) ListByBuyer(_ context.Context, buyerID string) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) ListByManufacturer(_ context.Context, manufacturerID string) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range s.orders {
		if o.ManufacturerID == manufacturerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id string) (model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (s *fakeOrderStore) Update(_ context.Context, o *model.Order) error {
	if _, ok := s.orders[o.ID]; !ok {
		return repository.ErrNotFound
	}
	s.orders[o.ID] = *o
	return nil
}

type fakeProcessingStore struct {
	records map[string]model.ProcessingRecord
}

func newFakeProcessingStore() *fakeProcessingStore {
	return &fakeProcessingStore{records: map[string]model.ProcessingRecord{}}
}

func (s *fakeProcessingStore) Create(_ context.Context, p *model.ProcessingRecord) error {
	s.records[p.ID] = *p
	return nil
}

func (s *fakeProcessingStore) ListByManufacturer(_ context.Context, manufacturerID string) ([]model.ProcessingRecord, error) {
	out := []model.ProcessingRecord{}
	for _, p := range s.records {
		if p.ManufacturerID == manufacturerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeProcessingStore) GetByID(_ context.Context, id string) (model.ProcessingRecord, error) {
	p, ok := s.records[id]
	if !ok {
		return model.ProcessingRecord{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *fakeProcessingStore) Update(_ context.Context, p *model.ProcessingRecord) error {
	if _, ok := s.records[p.ID]; !ok {
		return repository.ErrNotFound
	}
	s.records[p.ID] = *p
	return nil
}

// newTestContext builds an Echo context carrying a JSON body and, when
// claims is non-nil, the identity keys the access boundary would have set.
func newTestContext(t *testing.T, method, target string, body interface{}, claims *Claims) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	e := echo.New()
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if claims != nil {
		c.Set(middleware.CtxUserID, claims.UserID)
		c.Set(middleware.CtxEmail, claims.Email)
		c.Set(middleware.CtxRole, string(claims.Role))
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
