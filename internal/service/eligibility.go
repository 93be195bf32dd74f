package service

import (
	"fmt"

	"github.com/aeroclub/flightsched/internal/model"
)

// MinBalanceCents — минимальный баланс для подачи заявки ($500).
const MinBalanceCents int64 = 50000

// allowedRequests возвращает допустимое число одновременных
// pending/approved заявок студента. Флаги допуска при низком балансе
// дают минимальную квоту в одну заявку, а не снимают лимит.
func allowedRequests(st *model.Student) int {
	if st.BalanceCents < MinBalanceCents {
		if st.HasCredit || st.HasTemporaryPermission {
			return 1
		}
		return 0
	}
	return int(st.BalanceCents / MinBalanceCents)
}

// checkBalance проверяет минимальный баланс с учётом флагов допуска
func checkBalance(st *model.Student) error {
	if st.BalanceCents >= MinBalanceCents || st.HasCredit || st.HasTemporaryPermission {
		return nil
	}
	return fmt.Errorf("%w: balance $%.2f, need $%.2f",
		ErrInsufficientBalance,
		float64(st.BalanceCents)/100,
		float64(MinBalanceCents)/100,
	)
}

// usesTemporaryPermission сообщает, что допуск проходит только
// благодаря одноразовому временному разрешению — его нужно погасить
// при одобрении заявки.
func usesTemporaryPermission(st *model.Student) bool {
	return st.BalanceCents < MinBalanceCents && !st.HasCredit && st.HasTemporaryPermission
}

// approvableFrom проверяет, допустим ли переход в approved
func approvableFrom(status model.RequestStatus) bool {
	return status == model.RequestStatusPending
}

// cancellableFrom проверяет, допустим ли переход в cancelled
func cancellableFrom(status model.RequestStatus) bool {
	return status == model.RequestStatusPending || status == model.RequestStatusApproved
}
