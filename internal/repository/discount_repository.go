package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kkkkikiki/discount/internal/apperr"
	"github.com/kkkkikiki/discount/internal/model"
)

// insertChunkSize keeps multi-VALUES inserts under the PostgreSQL
// prepared statement parameter limit.
const insertChunkSize = 1000

// DiscountCodeRepository handles pool and ledger data operations
type DiscountCodeRepository struct {
	db *sqlx.DB
}

// NewDiscountCodeRepository creates a new discount code repository
func NewDiscountCodeRepository(db *sqlx.DB) *DiscountCodeRepository {
	return &DiscountCodeRepository{db: db}
}

// FindFetchedCode looks up the code already allocated to a user for a
// campaign. Read-only, takes no locks. Returns ErrCodeNotAvailable when
// the user holds no code.
func (r *DiscountCodeRepository) FindFetchedCode(ctx context.Context, campaignID, userID int64) (*model.FetchedDiscountCode, error) {
	query := `
		SELECT id, campaign_id, user_id, is_used, is_fetch_event_sent
		FROM fetched_discount_codes
		WHERE campaign_id = $1 AND user_id = $2
	`

	var fetched model.FetchedDiscountCode
	err := r.db.GetContext(ctx, &fetched, query, campaignID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrCodeNotAvailable
		}
		return nil, fmt.Errorf("failed to get fetched discount code: %w", err)
	}

	return &fetched, nil
}

// AllocateCode moves one available code into the ledger for the given
// user, all inside a single transaction: pop an unlocked pool row with
// SELECT ... FOR UPDATE SKIP LOCKED, delete it, insert the ledger row.
// Returns ErrCodeNotAvailable when the pool is empty and
// ErrCodeAlreadyAllocated when a concurrent transaction won the
// first-time allocation race for this (campaign, user) pair.
func (r *DiscountCodeRepository) AllocateCode(ctx context.Context, campaignID, userID int64) (*model.FetchedDiscountCode, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	available, err := popAvailableCode(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	deleteQuery := `
		DELETE FROM available_discount_codes
		WHERE id = $1 AND campaign_id = $2
	`
	if _, err := tx.ExecContext(ctx, deleteQuery, available.Code, available.CampaignID); err != nil {
		return nil, fmt.Errorf("failed to delete available discount code: %w", err)
	}

	fetched := &model.FetchedDiscountCode{
		Code:       available.Code,
		CampaignID: available.CampaignID,
		UserID:     userID,
	}
	insertQuery := `
		INSERT INTO fetched_discount_codes (id, campaign_id, user_id)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, insertQuery, fetched.Code, fetched.CampaignID, fetched.UserID); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrCodeAlreadyAllocated
		}
		return nil, fmt.Errorf("failed to insert fetched discount code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrCodeAlreadyAllocated
		}
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return fetched, nil
}

// popAvailableCode selects one pool row for the campaign, skipping rows
// locked by other in-flight allocations so concurrent callers never
// queue behind each other.
func popAvailableCode(ctx context.Context, tx *sqlx.Tx, campaignID int64) (*model.AvailableDiscountCode, error) {
	query := `
		SELECT id, campaign_id
		FROM available_discount_codes
		WHERE campaign_id = $1
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var available model.AvailableDiscountCode
	err := tx.GetContext(ctx, &available, query, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrCodeNotAvailable
		}
		return nil, fmt.Errorf("failed to reserve available discount code: %w", err)
	}

	return &available, nil
}

// InsertAvailableCodes appends codes to a campaign's pool in a single
// transaction, split into multi-VALUES chunks.
func (r *DiscountCodeRepository) InsertAvailableCodes(ctx context.Context, campaignID int64, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := 0; i < len(codes); i += insertChunkSize {
		end := i + insertChunkSize
		if end > len(codes) {
			end = len(codes)
		}
		if err := insertCodeChunk(ctx, tx, campaignID, codes[i:end]); err != nil {
			return fmt.Errorf("failed to insert discount code chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insertCodeChunk inserts a chunk of pool codes using a single query
func insertCodeChunk(ctx context.Context, tx *sqlx.Tx, campaignID int64, codes []string) error {
	valuesClause := make([]string, len(codes))
	args := make([]interface{}, 0, len(codes)*2)

	for i, code := range codes {
		valuesClause[i] = fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
		args = append(args, code, campaignID)
	}

	query := fmt.Sprintf(`
		INSERT INTO available_discount_codes (id, campaign_id)
		VALUES %s
	`, strings.Join(valuesClause, ", "))

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CountAvailable returns the number of unused codes in a campaign's pool
func (r *DiscountCodeRepository) CountAvailable(ctx context.Context, campaignID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM available_discount_codes
		WHERE campaign_id = $1
	`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, campaignID); err != nil {
		return 0, fmt.Errorf("failed to count available discount codes: %w", err)
	}

	return count, nil
}

// MarkFetchEventSent records that the post-allocation notification for
// a ledger row has been dispatched.
func (r *DiscountCodeRepository) MarkFetchEventSent(ctx context.Context, code string, campaignID int64) error {
	query := `
		UPDATE fetched_discount_codes
		SET is_fetch_event_sent = TRUE
		WHERE id = $1 AND campaign_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, code, campaignID)
	if err != nil {
		return fmt.Errorf("failed to mark fetch event sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("fetched discount code %s not found for campaign %d", code, campaignID)
	}

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
