package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ovmTranslator/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS ovm_receipts (
	tx_hash          TEXT PRIMARY KEY,
	block_number     BIGINT NOT NULL,
	block_hash       TEXT NOT NULL,
	tx_index         BIGINT NOT NULL,
	from_address     TEXT NOT NULL,
	to_address       TEXT,
	contract_address TEXT,
	status           SMALLINT NOT NULL,
	revert_message   TEXT,
	log_count        INTEGER NOT NULL,
	logs_bloom       TEXT NOT NULL,
	receipt          JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS ovm_receipts_block_number_idx ON ovm_receipts (block_number);

CREATE TABLE IF NOT EXISTS ovm_tx_hashes (
	internal_tx_hash TEXT PRIMARY KEY,
	ovm_tx_hash      TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS indexer_state (
	name                 TEXT PRIMARY KEY,
	last_processed_block BIGINT NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for translated receipts.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the translator.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutReceiptBatch inserts or updates translated receipts.
func (s *Store) PutReceiptBatch(ctx context.Context, receipts []*model.Receipt) error {
	batch := &pgx.Batch{}
	for _, receipt := range receipts {
		if receipt == nil {
			continue
		}
		raw, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshal receipt %s: %w", receipt.TransactionHash.Hex(), err)
		}
		batch.Queue(`
			INSERT INTO ovm_receipts (
				tx_hash, block_number, block_hash, tx_index, from_address, to_address, contract_address,
				status, revert_message, log_count, logs_bloom, receipt, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
			ON CONFLICT (tx_hash)
			DO UPDATE SET
				block_number = EXCLUDED.block_number,
				block_hash = EXCLUDED.block_hash,
				tx_index = EXCLUDED.tx_index,
				from_address = EXCLUDED.from_address,
				to_address = EXCLUDED.to_address,
				contract_address = EXCLUDED.contract_address,
				status = EXCLUDED.status,
				revert_message = EXCLUDED.revert_message,
				log_count = EXCLUDED.log_count,
				logs_bloom = EXCLUDED.logs_bloom,
				receipt = EXCLUDED.receipt,
				updated_at = now()
		`,
			hashKey(receipt.TransactionHash),
			int64(receipt.BlockNumber),
			hashKey(receipt.BlockHash),
			int64(receipt.TransactionIndex),
			addressKey(&receipt.From),
			addressKey(receipt.To),
			addressKey(receipt.ContractAddress),
			int16(receipt.Status),
			receipt.RevertMessage,
			len(receipt.Logs),
			hexutil.Encode(receipt.LogsBloom.Bytes()),
			json.RawMessage(raw),
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LookupOvmTxHash returns the OVM transaction hash recorded for an internal
// transaction hash.
func (s *Store) LookupOvmTxHash(ctx context.Context, internalTxHash common.Hash) (common.Hash, bool, error) {
	var ovmTxHash string
	row := s.pool.QueryRow(ctx, `SELECT ovm_tx_hash FROM ovm_tx_hashes WHERE internal_tx_hash=$1`, hashKey(internalTxHash))
	if err := row.Scan(&ovmTxHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.Hash{}, false, nil
		}
		return common.Hash{}, false, err
	}
	return common.HexToHash(ovmTxHash), true, nil
}

// SaveOvmTxHash records the OVM transaction hash for an internal transaction hash.
func (s *Store) SaveOvmTxHash(ctx context.Context, internalTxHash, ovmTxHash common.Hash) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ovm_tx_hashes (internal_tx_hash, ovm_tx_hash, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (internal_tx_hash) DO UPDATE
		SET ovm_tx_hash = EXCLUDED.ovm_tx_hash
	`, hashKey(internalTxHash), hashKey(ovmTxHash))
	return err
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}

func hashKey(h common.Hash) string {
	return strings.ToLower(h.Hex())
}

func addressKey(addr *common.Address) *string {
	if addr == nil {
		return nil
	}
	key := strings.ToLower(addr.Hex())
	return &key
}
