package approval

import (
	"context"
	"errors"

	"github.com/viant/routegate/service/dao"
	"github.com/viant/routegate/service/messaging"
)

// ErrEmptyTraceID is returned by Add for a record without trace id.
var ErrEmptyTraceID = errors.New("approval: empty trace id")

// Service defines the approval queue. Lookups of unknown trace ids return a
// nil record and a nil error.
type Service interface {
	// Add stores rec with status pending, overwriting any record with the same trace id.
	Add(ctx context.Context, rec *Pending) error

	Get(ctx context.Context, traceID string) (*Pending, error)

	// Approve and Reject overwrite the status and return the updated record.
	Approve(ctx context.Context, traceID, reason string) (*Pending, error)
	Reject(ctx context.Context, traceID, reason string) (*Pending, error)

	// Resolve records the first decision on a pending record; claimed is
	// false when the record was already decided, and rec is then the stored
	// record unchanged.
	Resolve(ctx context.Context, traceID string, status Status, reason string) (rec *Pending, claimed bool, err error)

	// MarkResumed claims an approved record for resumption; claimed is false
	// when the record is not approved or was already resumed.
	MarkResumed(ctx context.Context, traceID string) (rec *Pending, claimed bool, err error)

	List(ctx context.Context, filters ...dao.Filter[Pending]) ([]*Pending, error)

	Queue() messaging.Queue[Event]
}
