package elimination

import (
	"slices"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

// DefaultBucketName используется, когда в отчёте не указано имя ведра.
const DefaultBucketName = "default"

// Status - решение по одной области.
type Status struct {
	ShouldEliminate bool     `json:"should_eliminate"`
	BucketNames     []string `json:"bucket_names,omitempty"`
	// ShouldPersist - утечка изменила состояние, и его нужно записать обратно.
	ShouldPersist bool `json:"-"`
}

// leak уменьшает уровень ведра на единицу за каждый полный интервал с LeakedAt.
// Остаток неполного интервала переносится: LeakedAt сдвигается на целое число интервалов.
func leak(b *domain.Bucket, now int64, s BucketSettings) bool {
	if b.Level == 0 || now <= b.LeakedAt {
		return false
	}
	interval := int64(s.BucketLeakIntervalInSecs)
	intervals := (now - b.LeakedAt) / interval
	if intervals == 0 {
		return false
	}
	if uint64(intervals) >= b.Level {
		b.Level = 0
		b.LeakedAt = now
		return true
	}
	b.Level -= uint64(intervals)
	b.LeakedAt += intervals * interval
	return true
}

// leakAll применяет утечку ко всем вёдрам и приводит уровни к ёмкости.
// Ёмкость могла уменьшиться после смены конфигурации.
func leakAll(buckets []domain.Bucket, now int64, s BucketSettings) bool {
	changed := false
	for i := range buckets {
		if buckets[i].Level > s.BucketSize {
			buckets[i].Level = s.BucketSize
			changed = true
		}
		if leak(&buckets[i], now, s) {
			changed = true
		}
	}
	return changed
}

// GetEliminationStatus протекает вёдра к моменту now и решает, исключать ли метку.
// Возвращает обновлённую копию списка.
func GetEliminationStatus(buckets []domain.Bucket, now int64, s BucketSettings) (Status, []domain.Bucket) {
	leaked := slices.Clone(buckets)
	st := Status{ShouldPersist: leakAll(leaked, now, s)}
	for _, b := range leaked {
		if b.Level >= s.BucketSize {
			st.ShouldEliminate = true
			st.BucketNames = append(st.BucketNames, b.Name)
		}
	}
	return st, leaked
}

// UpsertBucket протекает все вёдра, находит (или заводит) ведро name и добавляет в него единицу,
// не превышая ёмкость.
func UpsertBucket(buckets []domain.Bucket, name string, now int64, s BucketSettings) []domain.Bucket {
	if name == "" {
		name = DefaultBucketName
	}
	out := slices.Clone(buckets)
	leakAll(out, now, s)

	i := slices.IndexFunc(out, func(b domain.Bucket) bool { return b.Name == name })
	if i < 0 {
		out = append(out, domain.Bucket{Name: name, LeakedAt: now})
		i = len(out) - 1
	}
	b := &out[i]
	if b.Level == 0 {
		b.LeakedAt = now
	}
	if b.Level < s.BucketSize {
		b.Level++
	}
	return out
}
