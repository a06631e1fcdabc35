// Package postgres implements store.Store on PostgreSQL via the Bun ORM and
// the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/xraph/vitrine"
	"github.com/xraph/vitrine/artifact"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
	vitrinestore "github.com/xraph/vitrine/store"
	"github.com/xraph/vitrine/types"
	"github.com/xraph/vitrine/user"
)

// compile-time interface check
var _ vitrinestore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Bun.
type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

// New opens a PostgreSQL database with the given DSN.
func New(dsn string) (*Store, error) {
	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("vitrine/postgres: open: %w", err)
	}
	return &Store{
		sqldb: sqldb,
		db:    bun.NewDB(sqldb, pgdialect.New()),
	}, nil
}

// DB returns the underlying bun database for direct access.
func (s *Store) DB() *bun.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("vitrine/postgres: %w: %v", vitrine.ErrMigrationFailed, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqldb.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== User Store ====================

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	m := toUserModel(u)
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return vitrine.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", userID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vitrine.ErrNotFound
		}
		return nil, err
	}
	return fromUserModel(m)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return fromUserModel(m)
}

// ==================== Artifact Store ====================

func (s *Store) CreateArtifact(ctx context.Context, a *artifact.Artifact) error {
	m := toArtifactModel(a)
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return vitrine.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetArtifact(ctx context.Context, artifactID id.ArtifactID) (*artifact.Artifact, error) {
	m := new(artifactModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", artifactID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vitrine.ErrArtifactNotFound
		}
		return nil, err
	}
	return fromArtifactModel(m)
}

func (s *Store) GetArtifactByName(ctx context.Context, name string) (*artifact.Artifact, error) {
	m := new(artifactModel)
	err := s.db.NewSelect().Model(m).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return fromArtifactModel(m)
}

func (s *Store) ListArtifacts(ctx context.Context, opts artifact.ListOpts) ([]*artifact.Artifact, error) {
	var models []artifactModel
	q := s.db.NewSelect().Model(&models)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, name ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*artifact.Artifact, len(models))
	for i := range models {
		a, err := fromArtifactModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Payment Store ====================

func (s *Store) RecordAttempt(ctx context.Context, userID id.UserID, artifactID id.ArtifactID, amount types.Money) (id.PaymentID, error) {
	p := &payment.Payment{
		Entity:     types.NewEntity(),
		ID:         id.NewPaymentID(),
		UserID:     userID,
		ArtifactID: artifactID,
		Amount:     amount,
		Status:     payment.StatusPending,
	}
	if _, err := s.db.NewInsert().Model(toPaymentModel(p)).Exec(ctx); err != nil {
		return id.Nil, err
	}
	return p.ID, nil
}

func (s *Store) MarkCompleted(ctx context.Context, paymentID id.PaymentID, transactionRef string) error {
	cur := new(paymentModel)
	err := s.db.NewSelect().Model(cur).
		Where("id = ?", paymentID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return vitrine.ErrPaymentRecordNotFound
		}
		return err
	}
	if cur.Status == string(payment.StatusCompleted) {
		return nil
	}

	res, err := s.db.NewUpdate().Model((*paymentModel)(nil)).
		Set("status = ?", string(payment.StatusCompleted)).
		Set("transaction_ref = ?", transactionRef).
		Set("updated_at = ?", now()).
		Where("id = ?", paymentID.String()).
		Where("status = ?", string(payment.StatusPending)).
		Exec(ctx)
	if err != nil {
		// The partial unique index refuses a second completed row per pair.
		if isUniqueViolation(err) {
			return vitrine.ErrPaymentAlreadyComplete
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.classifyCompletionConflict(ctx, paymentID)
	}
	return nil
}

func (s *Store) classifyCompletionConflict(ctx context.Context, paymentID id.PaymentID) error {
	m := new(paymentModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", paymentID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return vitrine.ErrPaymentRecordNotFound
		}
		return err
	}
	if m.Status == string(payment.StatusCompleted) {
		return nil
	}
	return vitrine.ErrPaymentAlreadyComplete
}

func (s *Store) MarkFailed(ctx context.Context, paymentID id.PaymentID, reason string) error {
	res, err := s.db.NewUpdate().Model((*paymentModel)(nil)).
		Set("status = ?", string(payment.StatusFailed)).
		Set("failure_reason = ?", reason).
		Set("updated_at = ?", now()).
		Where("id = ?", paymentID.String()).
		Where("status != ?", string(payment.StatusCompleted)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		m := new(paymentModel)
		err := s.db.NewSelect().Model(m).
			Where("id = ?", paymentID.String()).
			Scan(ctx)
		if err != nil {
			if isNoRows(err) {
				return vitrine.ErrPaymentRecordNotFound
			}
			return err
		}
		return vitrine.ErrPaymentAlreadyComplete
	}
	return nil
}

func (s *Store) HasCompleted(ctx context.Context, userID id.UserID, artifactID id.ArtifactID) (bool, error) {
	count, err := s.db.NewSelect().Model((*paymentModel)(nil)).
		Where("user_id = ?", userID.String()).
		Where("artifact_id = ?", artifactID.String()).
		Where("status = ?", string(payment.StatusCompleted)).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", paymentID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vitrine.ErrPaymentRecordNotFound
		}
		return nil, err
	}
	return fromPaymentModel(m)
}

func (s *Store) ListPayments(ctx context.Context, userID id.UserID, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel
	q := s.db.NewSelect().Model(&models).
		Where("user_id = ?", userID.String())
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== helpers ====================

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
