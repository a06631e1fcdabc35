package postgres

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/vitrine/artifact"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
	"github.com/xraph/vitrine/types"
	"github.com/xraph/vitrine/user"
)

func now() time.Time { return time.Now().UTC() }

type userModel struct {
	bun.BaseModel `bun:"table:vitrine_users"`

	ID             string    `bun:"id,pk"`
	Username       string    `bun:"username,notnull"`
	CredentialHash string    `bun:"credential_hash,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func toUserModel(u *user.User) *userModel {
	return &userModel{
		ID:             u.ID.String(),
		Username:       u.Username,
		CredentialHash: u.CredentialHash,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) (*user.User, error) {
	uid, err := id.ParseUserID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("vitrine/postgres: bad user id %q: %w", m.ID, err)
	}
	return &user.User{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             uid,
		Username:       m.Username,
		CredentialHash: m.CredentialHash,
	}, nil
}

type artifactModel struct {
	bun.BaseModel `bun:"table:vitrine_artifacts"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,notnull"`
	ImageRef    string    `bun:"image_ref,notnull"`
	ModelRef    string    `bun:"model_ref,notnull"`
	Amount      int64     `bun:"price_amount,notnull"`
	Currency    string    `bun:"price_currency,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func toArtifactModel(a *artifact.Artifact) *artifactModel {
	return &artifactModel{
		ID:          a.ID.String(),
		Name:        a.Name,
		Description: a.Description,
		ImageRef:    a.ImageRef,
		ModelRef:    a.ModelRef,
		Amount:      a.Price.Amount,
		Currency:    a.Price.Currency,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func fromArtifactModel(m *artifactModel) (*artifact.Artifact, error) {
	aid, err := id.ParseArtifactID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("vitrine/postgres: bad artifact id %q: %w", m.ID, err)
	}
	return &artifact.Artifact{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          aid,
		Name:        m.Name,
		Description: m.Description,
		ImageRef:    m.ImageRef,
		ModelRef:    m.ModelRef,
		Price:       types.Money{Amount: m.Amount, Currency: m.Currency},
	}, nil
}

type paymentModel struct {
	bun.BaseModel `bun:"table:vitrine_payments"`

	ID             string    `bun:"id,pk"`
	UserID         string    `bun:"user_id,notnull"`
	ArtifactID     string    `bun:"artifact_id,notnull"`
	Amount         int64     `bun:"amount,notnull"`
	Currency       string    `bun:"currency,notnull"`
	Status         string    `bun:"status,notnull"`
	TransactionRef string    `bun:"transaction_ref,notnull"`
	FailureReason  string    `bun:"failure_reason,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:             p.ID.String(),
		UserID:         p.UserID.String(),
		ArtifactID:     p.ArtifactID.String(),
		Amount:         p.Amount.Amount,
		Currency:       p.Amount.Currency,
		Status:         string(p.Status),
		TransactionRef: p.TransactionRef,
		FailureReason:  p.FailureReason,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	pid, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("vitrine/postgres: bad payment id %q: %w", m.ID, err)
	}
	uid, err := id.ParseUserID(m.UserID)
	if err != nil {
		return nil, fmt.Errorf("vitrine/postgres: bad user id %q: %w", m.UserID, err)
	}
	aid, err := id.ParseArtifactID(m.ArtifactID)
	if err != nil {
		return nil, fmt.Errorf("vitrine/postgres: bad artifact id %q: %w", m.ArtifactID, err)
	}
	return &payment.Payment{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             pid,
		UserID:         uid,
		ArtifactID:     aid,
		Amount:         types.Money{Amount: m.Amount, Currency: m.Currency},
		Status:         payment.Status(m.Status),
		TransactionRef: m.TransactionRef,
		FailureReason:  m.FailureReason,
	}, nil
}
