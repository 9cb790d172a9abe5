package credits

import (
	"context"

	"vibecoder/internal/domain"
	"vibecoder/internal/infra"
	"vibecoder/internal/sqlinline"
)

// Ledger records credit movements. Generation deducts before the first paid
// agent call; failures not attributable to the user are compensated with a
// refund. Policy rejections never reach a paid call, so they never touch the
// ledger.
type Ledger struct {
	sql infra.SQLExecutor
}

func NewLedger(sql infra.SQLExecutor) *Ledger {
	return &Ledger{sql: sql}
}

// Deduct withdraws amount from the user's balance, recording the job that
// consumed it. domain.ErrInsufficientCredits is returned when the balance
// cannot cover the amount; nothing is written in that case.
func (l *Ledger) Deduct(ctx context.Context, userID, jobID string, amount int, reason string) (int, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QDeductCredits, userID, amount, jobID, reason)
	var balance int
	if err := row.Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, err
	}
	return balance, nil
}

// Refund issues a compensating credit for a failed generation.
func (l *Ledger) Refund(ctx context.Context, userID, jobID string, amount int, reason string) (int, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QRefundCredits, userID, amount, jobID, reason)
	var balance int
	if err := row.Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Grant adds credits to a user, creating the account row when absent.
func (l *Ledger) Grant(ctx context.Context, userID string, amount int) (int, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QGrantCredits, userID, amount)
	var balance int
	if err := row.Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// Balance reports the user's current balance; a missing account reads as zero.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QCreditBalance, userID)
	var balance int
	if err := row.Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}
