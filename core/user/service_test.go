package user

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/observa/core"
)

type fakeRepo struct {
	emails map[string]bool
	users  []User
}

var _ Repository = (*fakeRepo)(nil)

func (repo *fakeRepo) EmailExists(_ context.Context, email string, _ ...core.DBExecutor) (bool, error) {
	return repo.emails[email], nil
}

func (repo *fakeRepo) CreateUser(_ context.Context, usr User, _ ...core.DBExecutor) (User, error) {
	usr.ID = "u" + string(rune('0'+len(repo.users)))
	repo.users = append(repo.users, usr)
	return usr, nil
}

func (repo *fakeRepo) QueryUsers(_ context.Context, filter QueryFilter, _ ...core.DBExecutor) ([]User, error) {
	var users []User
	for _, usr := range repo.users {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *fakeRepo) GetUser(_ context.Context, filter GetFilter, _ ...core.DBExecutor) (User, error) {
	for _, usr := range repo.users {
		if (filter.ID != "" && usr.ID == filter.ID) || (filter.ID == "" && filter.Email != "" && usr.Email == filter.Email) {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (repo *fakeRepo) UpdateUser(_ context.Context, usr User, _ ...core.DBExecutor) (User, error) {
	for i := range repo.users {
		if repo.users[i].ID == usr.ID {
			repo.users[i] = usr
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func TestService(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = func() time.Time { return time.Now().UTC() } }()

	ctx := context.Background()
	svc := NewService(&fakeRepo{})

	usr, err := svc.Create(ctx, NewUser{Name: "Ana", Email: "ana@school.test", Role: "chairperson", Department: "BSIT"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !usr.IsActive || usr.Role != RoleChairperson || !usr.CreatedAt.Equal(now) {
		t.Errorf("Create() = %+v", usr)
	}

	t.Run("get by email is case-insensitive", func(t *testing.T) {
		got, err := svc.GetByEmail(ctx, " ANA@school.test ")
		if err != nil || got.ID != usr.ID {
			t.Errorf("GetByEmail() = (%+v, %v)", got, err)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		if _, err := svc.GetByID(ctx, "missing"); err != ErrNotFound {
			t.Errorf("GetByID() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("deactivate", func(t *testing.T) {
		got, err := svc.SetActive(ctx, usr.ID, false)
		if err != nil || got.IsActive {
			t.Errorf("SetActive() = (%+v, %v)", got, err)
		}
	})

	t.Run("query by role", func(t *testing.T) {
		users, err := svc.Query(ctx, QueryFilter{Role: RoleDean})
		if err != nil || len(users) != 0 {
			t.Errorf("Query() = (%v, %v)", users, err)
		}
	})
}

func TestRequestContext(t *testing.T) {
	usr := User{ID: "u1", Role: RoleTeacher, Department: "BSED", TeacherID: "t1"}
	rc := usr.RequestContext()
	want := RequestContext{UserID: "u1", Role: RoleTeacher, Department: "BSED", TeacherID: "t1"}
	if rc != want {
		t.Errorf("RequestContext() = %+v, want %+v", rc, want)
	}
	if !rc.IsAuthenticated() {
		t.Error("IsAuthenticated() = false")
	}
	if (RequestContext{UserID: "  "}).IsAuthenticated() {
		t.Error("blank user id should not be authenticated")
	}
}
