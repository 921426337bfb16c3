package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/aloks98/authcore/store"
)

const userColumns = `id, email, password_hash, name, picture, role, services, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*store.User, error) {
	var (
		u        store.User
		role     string
		services []byte
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Picture, &role, &services, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = store.Role(role)
	if len(services) > 0 {
		if err := json.Unmarshal(services, &u.Services); err != nil {
			return nil, oops.With("operation", "decode services").With("id", u.ID).Wrap(err)
		}
	}
	return &u, nil
}

func encodeServices(services map[string]string) ([]byte, error) {
	if services == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(services)
}

// validID reports whether id could have been assigned by Create.
func validID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// Constraint names from migrations/001_schema.sql.
const (
	constraintUsersPKey  = "users_pkey"
	constraintUsersEmail = "users_email_key"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// conflict names the column behind a unique violation.
func conflict(err error) *store.ConflictError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == constraintUsersPKey {
		return &store.ConflictError{Field: "id", Err: err}
	}
	return &store.ConflictError{Field: "email", Err: err}
}

// GetByID retrieves a user by id.
func (s *Store) GetByID(ctx context.Context, id string) (*store.User, error) {
	if !validID(id) {
		return nil, oops.With("id", id).Wrap(store.ErrNotFound)
	}

	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id).Wrap(store.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user").With("id", id).Wrap(err)
	}
	return u, nil
}

// FindByEmail retrieves a user by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("operation", "find user by email").Wrap(err)
	}
	return u, nil
}

// FindByServiceOrEmail prefers a provider link over an email match.
func (s *Store) FindByServiceOrEmail(ctx context.Context, provider, externalID, email string) (*store.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE services ->> $1 = $2 OR email = $3
		ORDER BY (services ->> $1 = $2) IS TRUE DESC
		LIMIT 1
	`, provider, externalID, email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("operation", "find user by service").With("provider", provider).Wrap(err)
	}
	return u, nil
}

// Create inserts a user, assigning ID and CreatedAt when empty.
func (s *Store) Create(ctx context.Context, user *store.User) error {
	services, err := encodeServices(user.Services)
	if err != nil {
		return oops.With("operation", "encode services").Wrap(err)
	}

	id := user.ID
	if id == "" {
		id = ulid.Make().String()
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, user.Email, user.PasswordHash, user.Name, user.Picture, string(user.Role), services, createdAt)
	if isUniqueViolation(err) {
		return conflict(err)
	}
	if err != nil {
		return oops.With("operation", "create user").With("id", id).Wrap(err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	return nil
}

// Update writes every mutable field. CreatedAt is never changed.
func (s *Store) Update(ctx context.Context, user *store.User) error {
	if !validID(user.ID) {
		return oops.With("id", user.ID).Wrap(store.ErrNotFound)
	}
	services, err := encodeServices(user.Services)
	if err != nil {
		return oops.With("operation", "encode services").Wrap(err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, name = $4, picture = $5, role = $6, services = $7
		WHERE id = $1
	`, user.ID, user.Email, user.PasswordHash, user.Name, user.Picture, string(user.Role), services)
	if isUniqueViolation(err) {
		return conflict(err)
	}
	if err != nil {
		return oops.With("operation", "update user").With("id", user.ID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.With("id", user.ID).Wrap(store.ErrNotFound)
	}
	return nil
}

// List returns one page of users matching filter, newest first.
func (s *Store) List(ctx context.Context, filter store.ListFilter, page store.Page) ([]*store.User, error) {
	query, args := listQuery(filter, page)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	users := []*store.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, oops.With("operation", "scan user row").Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

func listQuery(filter store.ListFilter, page store.Page) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		where = append(where, column+" = $"+strconv.Itoa(len(args)))
	}
	add("name", filter.Name)
	add("email", filter.Email)
	add("role", filter.Role)

	var b strings.Builder
	b.WriteString(`SELECT ` + userColumns + ` FROM users`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	args = append(args, page.PerPage, page.Offset())
	b.WriteString(" ORDER BY created_at DESC, id DESC LIMIT $")
	b.WriteString(strconv.Itoa(len(args) - 1))
	b.WriteString(" OFFSET $")
	b.WriteString(strconv.Itoa(len(args)))

	return b.String(), args
}
