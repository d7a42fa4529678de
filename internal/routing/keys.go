package routing

import (
	"fmt"
	"strings"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

const keySeparator = ":"

// reservedChars - разделитель и метасимволы шаблона SCAN/MATCH.
const reservedChars = keySeparator + "*?[]\\"

// Суффиксы ключей состояния success rate.
const (
	SuffixAggregates   = "aggregates"
	SuffixCurrentBlock = "current_block"
)

// Key - составной ключ состояния:
// prefix : [tenant :] entity : params : label [: suffix].
type Key struct {
	Prefix string
	Tenant string
	Entity string
	Params string
	Label  string
	Suffix string
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteString(EntityPrefix(k.Prefix, k.Tenant, k.Entity))
	b.WriteString(k.Params)
	b.WriteString(keySeparator)
	b.WriteString(k.Label)
	if k.Suffix != "" {
		b.WriteString(keySeparator)
		b.WriteString(k.Suffix)
	}
	return b.String()
}

// WithSuffix возвращает копию ключа с другим суффиксом.
func (k Key) WithSuffix(suffix string) Key {
	k.Suffix = suffix
	return k
}

// EntityPrefix возвращает префикс всех ключей сущности, включая завершающий разделитель,
// чтобы "merchant1" не совпадал с "merchant10".
func EntityPrefix(prefix, tenant, entity string) string {
	parts := make([]string, 0, 4)
	parts = append(parts, prefix)
	if tenant != "" {
		parts = append(parts, tenant)
	}
	parts = append(parts, entity, "")
	return strings.Join(parts, keySeparator)
}

// ValidateSegment проверяет значение, которое станет частью ключа перед меткой.
// Без разделителя и метасимволов шаблона ключи разных сущностей не пересекаются,
// а префиксный поиск в InvalidateMetrics не задевает чужие ключи.
func ValidateSegment(name, value string) error {
	if strings.ContainsAny(value, reservedChars) {
		return fmt.Errorf("%w: %s %q contains reserved characters %q", domain.ErrInvalidRequest, name, value, reservedChars)
	}
	return nil
}
