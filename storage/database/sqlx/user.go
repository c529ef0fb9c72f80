package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/user"
)

const userColumns = "id, name, email, role, department, teacher_id, is_active, created_at, updated_at"

type userRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Email      null.String `db:"email"`
	Role       string      `db:"role"`
	Department string      `db:"department"`
	TeacherID  null.String `db:"teacher_id"`
	IsActive   bool        `db:"is_active"`
	CreatedAt  null.Time   `db:"created_at"`
	UpdatedAt  null.Time   `db:"updated_at"`
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) boil(usr user.User) userRow {
	return userRow{
		ID:         usr.ID,
		Name:       usr.Name,
		Email:      null.NewString(usr.Email, usr.Email != ""),
		Role:       string(usr.Role),
		Department: usr.Department,
		TeacherID:  null.NewString(usr.TeacherID, usr.TeacherID != ""),
		IsActive:   usr.IsActive,
		CreatedAt:  null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:  null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	return user.User{
		ID:         row.ID,
		Name:       row.Name,
		Email:      row.Email.String,
		Role:       user.Role(row.Role),
		Department: row.Department,
		TeacherID:  row.TeacherID.String,
		IsActive:   row.IsActive,
		CreatedAt:  row.CreatedAt.Time.UTC(),
		UpdatedAt:  row.UpdatedAt.Time.UTC(),
	}
}

func (repo userRepository) EmailExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error) {
	var cnt int
	if err := repo.get(ctx, exec, &cnt, "SELECT COUNT(*) FROM users WHERE email = ?", email); err != nil {
		return false, errors.Wrap(err, "counting users by email")
	}
	return cnt > 0, nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.boil(usr)
	_, err := repo.exe(ctx, exec,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		row.ID, row.Name, row.Email, row.Role, row.Department, row.TeacherID, row.IsActive, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, exec ...core.DBExecutor) ([]user.User, error) {
	var w where
	if filter.Role != "" {
		w.add("role = ?", string(filter.Role))
	}
	if filter.Department != "" {
		w.add("LOWER(department) = LOWER(?)", filter.Department)
	}

	var rows []userRow
	if err := repo.sel(ctx, exec, &rows, "SELECT "+userColumns+" FROM users"+w.String()+" ORDER BY name", w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var (
		row userRow
		err error
	)
	switch {
	case filter.ID != "":
		err = repo.get(ctx, exec, &row, "SELECT "+userColumns+" FROM users WHERE id = ?", filter.ID)
	case filter.Email != "":
		err = repo.get(ctx, exec, &row, "SELECT "+userColumns+" FROM users WHERE email = ?", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := repo.boil(usr)
	cnt, err := repo.affected(ctx, exec,
		"UPDATE users SET name = ?, email = ?, role = ?, department = ?, teacher_id = ?, is_active = ?, updated_at = ? WHERE id = ?",
		row.Name, row.Email, row.Role, row.Department, row.TeacherID, row.IsActive, row.UpdatedAt, row.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
}
