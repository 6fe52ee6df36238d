package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Dheelyte/studyflow/internal/core/domain"
	"github.com/Dheelyte/studyflow/internal/core/port"
	"github.com/Dheelyte/studyflow/internal/repository"
)

var resetCodeColumns = []string{
	"id",
	"user_id",
	"code_hash",
	"used",
	"expires_at",
	"created_at",
}

// ResetCodeRepository implements port.ResetCodeRepository using PostgreSQL.
type ResetCodeRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewResetCodeRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewResetCodeRepository(exec pgExecutor) *ResetCodeRepository {
	return &ResetCodeRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ResetCodeRepository) WithTx(tx pgx.Tx) *ResetCodeRepository {
	if tx == nil {
		return r
	}
	return &ResetCodeRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new reset code row.
func (r *ResetCodeRepository) Create(ctx context.Context, code domain.ResetCode) error {
	stmt, args, err := r.builder.Insert("auth.password_reset_codes").
		Columns(resetCodeColumns...).
		Values(
			code.ID,
			code.UserID,
			code.CodeHash,
			code.Used,
			code.ExpiresAt,
			code.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reset code sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert reset code: %w", err)
	}

	return nil
}

// FindValidByCodeAndEmail returns the unused, unexpired code matching the
// supplied hash whose owner matches the case-folded email.
func (r *ResetCodeRepository) FindValidByCodeAndEmail(ctx context.Context, codeHash, email string) (*domain.ResetCode, error) {
	stmt, args, err := r.builder.
		Select(
			"c.id",
			"c.user_id",
			"c.code_hash",
			"c.used",
			"c.expires_at",
			"c.created_at",
		).
		From("auth.password_reset_codes c").
		Join("auth.users u ON u.id = c.user_id").
		Where(squirrel.Expr("lower(u.email) = lower(?)", email)).
		Where(squirrel.Eq{"c.code_hash": codeHash, "c.used": false}).
		Where(squirrel.Expr("c.expires_at > now()")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reset code sql: %w", err)
	}

	var code domain.ResetCode
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&code.ID,
		&code.UserID,
		&code.CodeHash,
		&code.Used,
		&code.ExpiresAt,
		&code.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset code: %w", err)
	}

	return &code, nil
}

// InvalidateUnusedForUser marks every unused code belonging to the user as
// used. The user row is locked first so that concurrent invalidate-then-insert
// sequences for the same user serialize and at most one valid code survives.
func (r *ResetCodeRepository) InvalidateUnusedForUser(ctx context.Context, userID string) error {
	if _, err := r.exec.Exec(ctx, "SELECT 1 FROM auth.users WHERE id = $1 FOR UPDATE", userID); err != nil {
		return fmt.Errorf("lock user row: %w", err)
	}

	stmt, args, err := r.builder.Update("auth.password_reset_codes").
		Set("used", true).
		Where(squirrel.Eq{"user_id": userID, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build invalidate reset codes sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("invalidate reset codes: %w", err)
	}

	return nil
}

// MarkUsed consumes a single reset code.
func (r *ResetCodeRepository) MarkUsed(ctx context.Context, codeID string) error {
	stmt, args, err := r.builder.Update("auth.password_reset_codes").
		Set("used", true).
		Where(squirrel.Eq{"id": codeID, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark used sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark reset code used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.ResetCodeRepository = (*ResetCodeRepository)(nil)
