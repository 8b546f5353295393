package evalerrors

import (
	"context"
)

// Repository defines persistence for evaluation failures
type Repository interface {
	Save(ctx context.Context, e *EvalError) error
	Latest(ctx context.Context, limit int) ([]*EvalError, error)
}
