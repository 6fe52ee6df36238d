package port

import (
	"context"

	"github.com/Dheelyte/studyflow/internal/core/domain"
)

// ResetCodeRepository manages password reset code records.
type ResetCodeRepository interface {
	Create(ctx context.Context, code domain.ResetCode) error
	// FindValidByCodeAndEmail returns the unused, unexpired code matching the
	// supplied hash whose owner matches the case-folded email.
	FindValidByCodeAndEmail(ctx context.Context, codeHash, email string) (*domain.ResetCode, error)
	// InvalidateUnusedForUser marks every unused code belonging to the user as
	// used. Implementations must serialize concurrent invalidate-then-insert
	// sequences for the same user so two valid codes can never coexist.
	InvalidateUnusedForUser(ctx context.Context, userID string) error
	MarkUsed(ctx context.Context, codeID string) error
}
