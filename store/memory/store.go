// Package memory is an in-process store for development and tests. It
// enforces the same completed-uniqueness guarantee as the SQL drivers.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/vitrine"
	"github.com/xraph/vitrine/artifact"
	"github.com/xraph/vitrine/id"
	"github.com/xraph/vitrine/payment"
	"github.com/xraph/vitrine/types"
	"github.com/xraph/vitrine/user"
)

type Store struct {
	mu sync.RWMutex

	// User storage
	users      map[string]*user.User
	byUsername map[string]string

	// Artifact storage
	artifacts map[string]*artifact.Artifact
	byName    map[string]string

	// Payment storage. completed tracks pairKey → payment id for the
	// at-most-one-completed guarantee.
	payments  map[string]*payment.Payment
	completed map[string]string
}

func New() *Store {
	return &Store{
		users:      make(map[string]*user.User),
		byUsername: make(map[string]string),
		artifacts:  make(map[string]*artifact.Artifact),
		byName:     make(map[string]string),
		payments:   make(map[string]*payment.Payment),
		completed:  make(map[string]string),
	}
}

func pairKey(userID id.UserID, artifactID id.ArtifactID) string {
	return userID.String() + ":" + artifactID.String()
}

// User Store implementation
func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID.String()]; exists {
		return vitrine.ErrAlreadyExists
	}
	if _, exists := s.byUsername[u.Username]; exists {
		return vitrine.ErrAlreadyExists
	}
	cp := *u
	s.users[u.ID.String()] = &cp
	s.byUsername[u.Username] = u.ID.String()
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID.String()]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, vitrine.ErrNotFound
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	cp := *s.users[uid]
	return &cp, nil
}

// Artifact Store implementation
func (s *Store) CreateArtifact(_ context.Context, a *artifact.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artifacts[a.ID.String()]; exists {
		return vitrine.ErrAlreadyExists
	}
	if _, exists := s.byName[a.Name]; exists {
		return vitrine.ErrAlreadyExists
	}
	cp := *a
	s.artifacts[a.ID.String()] = &cp
	s.byName[a.Name] = a.ID.String()
	return nil
}

func (s *Store) GetArtifact(_ context.Context, artifactID id.ArtifactID) (*artifact.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.artifacts[artifactID.String()]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, vitrine.ErrArtifactNotFound
}

func (s *Store) GetArtifactByName(_ context.Context, name string) (*artifact.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	aid, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	cp := *s.artifacts[aid]
	return &cp, nil
}

func (s *Store) ListArtifacts(_ context.Context, opts artifact.ListOpts) ([]*artifact.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*artifact.Artifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		cp := *a
		result = append(result, &cp)
	}
	// Map iteration order is random; listings need a stable order.
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Name < result[j].Name
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

// Payment Store implementation
func (s *Store) RecordAttempt(_ context.Context, userID id.UserID, artifactID id.ArtifactID, amount types.Money) (id.PaymentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &payment.Payment{
		Entity:     types.NewEntity(),
		ID:         id.NewPaymentID(),
		UserID:     userID,
		ArtifactID: artifactID,
		Amount:     amount,
		Status:     payment.StatusPending,
	}
	s.payments[p.ID.String()] = p
	return p.ID, nil
}

func (s *Store) MarkCompleted(_ context.Context, paymentID id.PaymentID, transactionRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID.String()]
	if !ok {
		return vitrine.ErrPaymentRecordNotFound
	}
	if p.Status == payment.StatusCompleted {
		return nil
	}
	if p.Status == payment.StatusFailed {
		return vitrine.ErrPaymentAlreadyComplete
	}
	key := pairKey(p.UserID, p.ArtifactID)
	if _, exists := s.completed[key]; exists {
		return vitrine.ErrPaymentAlreadyComplete
	}
	p.Status = payment.StatusCompleted
	p.TransactionRef = transactionRef
	p.Touch()
	s.completed[key] = p.ID.String()
	return nil
}

func (s *Store) MarkFailed(_ context.Context, paymentID id.PaymentID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID.String()]
	if !ok {
		return vitrine.ErrPaymentRecordNotFound
	}
	if p.Status == payment.StatusCompleted {
		return vitrine.ErrPaymentAlreadyComplete
	}
	p.Status = payment.StatusFailed
	p.FailureReason = reason
	p.Touch()
	return nil
}

func (s *Store) HasCompleted(_ context.Context, userID id.UserID, artifactID id.ArtifactID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.completed[pairKey(userID, artifactID)]
	return ok, nil
}

func (s *Store) GetPayment(_ context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.payments[paymentID.String()]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, vitrine.ErrPaymentRecordNotFound
}

func (s *Store) ListPayments(_ context.Context, userID id.UserID, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.UserID == userID {
			if opts.Status == "" || p.Status == opts.Status {
				cp := *p
				result = append(result, &cp)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
