package service

import (
	"testing"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestAllowedRequests(t *testing.T) {
	cases := []struct {
		name    string
		student model.Student
		want    int
	}{
		{"balance $1000", model.Student{BalanceCents: 100000}, 2},
		{"balance $500", model.Student{BalanceCents: 50000}, 1},
		{"balance $1499", model.Student{BalanceCents: 149900}, 2},
		{"balance $400 no overrides", model.Student{BalanceCents: 40000}, 0},
		{"balance $400 with credit", model.Student{BalanceCents: 40000, HasCredit: true}, 1},
		{"balance $400 with temporary permission", model.Student{BalanceCents: 40000, HasTemporaryPermission: true}, 1},
		// Флаги допуска дают минимальную квоту, а не снимают лимит
		{"balance $0 with both overrides", model.Student{HasCredit: true, HasTemporaryPermission: true}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, allowedRequests(&tc.student))
		})
	}
}

func TestCheckBalance(t *testing.T) {
	assert.NoError(t, checkBalance(&model.Student{BalanceCents: 50000}))
	assert.NoError(t, checkBalance(&model.Student{BalanceCents: 0, HasCredit: true}))
	assert.NoError(t, checkBalance(&model.Student{BalanceCents: 0, HasTemporaryPermission: true}))

	err := checkBalance(&model.Student{BalanceCents: 49999})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Contains(t, err.Error(), "$499.99")
}

func TestUsesTemporaryPermission(t *testing.T) {
	// Решающим допуск становится только при низком балансе и без кредита
	assert.True(t, usesTemporaryPermission(&model.Student{BalanceCents: 40000, HasTemporaryPermission: true}))
	assert.False(t, usesTemporaryPermission(&model.Student{BalanceCents: 50000, HasTemporaryPermission: true}))
	assert.False(t, usesTemporaryPermission(&model.Student{BalanceCents: 40000, HasCredit: true, HasTemporaryPermission: true}))
	assert.False(t, usesTemporaryPermission(&model.Student{BalanceCents: 40000}))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, approvableFrom(model.RequestStatusPending))
	assert.False(t, approvableFrom(model.RequestStatusApproved))
	assert.False(t, approvableFrom(model.RequestStatusCancelled))

	assert.True(t, cancellableFrom(model.RequestStatusPending))
	assert.True(t, cancellableFrom(model.RequestStatusApproved))
	assert.False(t, cancellableFrom(model.RequestStatusCancelled))
}
