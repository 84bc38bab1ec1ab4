package storage

import (
	"context"

	"ovmTranslator/internal/model"
)

// Storage defines a sink for translated receipts.
type Storage interface {
	PutReceiptBatch(ctx context.Context, receipts []*model.Receipt) error
}
