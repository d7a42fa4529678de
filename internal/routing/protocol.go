// Package routing содержит общий протокол алгоритмов динамической маршрутизации
// и вспомогательные функции, которые разделяют все три движка.
package routing

import "context"

// DynamicRouting - единый контракт движков маршрутизации.
//
// C - конфигурация алгоритма, L - набор меток для оценки, F - отчёт об исходах,
// R - результат оценки. tenant пустой, если мультиарендность выключена.
type DynamicRouting[C, L, F, R any] interface {
	// PerformRouting ранжирует или фильтрует метки. Только чтение.
	PerformRouting(ctx context.Context, id, params string, labels L, cfg C, tenant string) (R, error)
	// UpdateWindow применяет исходы завершённых попыток.
	// Повторная доставка того же отчёта учитывается повторно.
	UpdateWindow(ctx context.Context, id, params string, feedback F, cfg C, tenant string) error
	// InvalidateMetrics удаляет всё состояние сущности и возвращает удалённые ключи.
	InvalidateMetrics(ctx context.Context, id, tenant string) ([]string, error)
}
