package domain

import "errors"

// Классификация ошибок движка. Хендлеры мапят их в HTTP-коды,
// сервисы оборачивают через fmt.Errorf("...: %w", err).
var (
	// ErrAuthorizationDenied — у актора нет полномочий на действие.
	// Не ретраится, отдается вызывающему как отказ, а не сбой системы.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrInvalidRequest — некорректный вход: нет делегата у DELEGATED,
	// неизвестная ссылка на документ, отрицательная сумма и т.п.
	// Никакие side effects при этом не фиксируются.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound — сущность не найдена.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyFinalized — документ в поглощающем статусе,
	// повторные решения по нему не обрабатываются.
	ErrAlreadyFinalized = errors.New("document already finalized")
)
