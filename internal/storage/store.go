package storage

import (
	"context"

	"github.com/Sanjanaa7/face-recognition/internal/models"
)

// Store is the durable backing for enrolled identities and the recognition
// audit log. Two implementations exist: SQLite (default, embedded) and
// Postgres. EnrollFace and DeleteFaces each run in a single transaction; a
// partially applied enroll or delete is never observable. ListFaces reads
// without a long-lived lock, so a concurrently running match sees a
// best-effort snapshot no older than the start of the call — an identity
// enrolled mid-scan may or may not be visible to it.
type Store interface {
	// EnrollFace persists a new record and fills in its assigned id and
	// timestamps. Ids are monotonic in enrollment order. Fails with
	// models.ErrInvalidInput when name or embedding is empty.
	EnrollFace(ctx context.Context, rec *models.FaceRecord) error

	// DeleteFaces removes records by id or by name (by-name removes every
	// record sharing the name). Exactly one selector must be non-nil;
	// otherwise models.ErrInvalidInput. Returns the number of records
	// removed (0 is not an error) and the object-store keys of any source
	// images the removed records referenced.
	DeleteFaces(ctx context.Context, id *int64, name *string) (int64, []string, error)

	// ListFaces returns every enrolled record in ascending id order.
	ListFaces(ctx context.Context) ([]models.FaceRecord, error)

	// LogRecognition appends one audit entry and fills in its id and
	// timestamp. Entries are immutable once written.
	LogRecognition(ctx context.Context, entry *models.RecognitionLog) error

	// ListRecognitionLogs returns the most recent audit entries, newest
	// first, capped at limit.
	ListRecognitionLogs(ctx context.Context, limit int) ([]models.RecognitionLog, error)

	Ping(ctx context.Context) error
	Close()
}
