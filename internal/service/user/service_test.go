package user

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	userrepo "storefront/internal/repository/user"
)

type stubRepo struct {
	records []userrepo.Record
}

func (r *stubRepo) Create(_ context.Context, rec userrepo.Record) (*userrepo.Record, error) {
	rec.ID = fmt.Sprintf("u%d", len(r.records)+1)
	r.records = append(r.records, rec)
	return &rec, nil
}

func (r *stubRepo) ListByEmail(_ context.Context, email string) ([]userrepo.Record, error) {
	var out []userrepo.Record
	for _, rec := range r.records {
		if rec.Email == email {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubRepo) List(context.Context) ([]userrepo.Record, error) {
	return r.records, nil
}

func newService(repo *stubRepo) *Service {
	svc := New(repo, nil)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegisterHashesAndForcesRole(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)

	u, err := svc.Register(context.Background(), domain.User{
		Email: " Ann@Example.com ", FullName: "Ann", Password: "secret1", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Empty(t, u.Password)
	require.Len(t, repo.records, 1)
	assert.NotEqual(t, "secret1", repo.records[0].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.records[0].PasswordHash), []byte("secret1")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(&stubRepo{})
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.User{Email: "a@b.c", FullName: "A", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.User{Email: "A@B.C", FullName: "A2", Password: "secret2"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(&stubRepo{})
	cases := []domain.User{
		{Email: "", FullName: "A", Password: "secret1"},
		{Email: "nope", FullName: "A", Password: "secret1"},
		{Email: "a@b.c", FullName: " ", Password: "secret1"},
		{Email: "a@b.c", FullName: "A", Password: "123"},
	}
	for _, c := range cases {
		_, err := svc.Register(context.Background(), c)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", c)
	}
}

func TestMatch(t *testing.T) {
	svc := newService(&stubRepo{})
	ctx := context.Background()
	_, err := svc.Register(ctx, domain.User{Email: "a@b.c", FullName: "A", Password: "secret1"})
	require.NoError(t, err)

	got, err := svc.Match(ctx, "A@b.c", "secret1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Password)

	got, err = svc.Match(ctx, "a@b.c", "wrong")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.Match(ctx, "a@b.c", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)
	ctx := context.Background()
	admin := domain.User{Email: "admin@shop.test", FullName: "Admin", Password: "admin123"}

	first, err := svc.EnsureAdmin(ctx, admin)
	require.NoError(t, err)
	second, err := svc.EnsureAdmin(ctx, admin)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.RoleAdmin, second.Role)
	assert.Len(t, repo.records, 1)
}
