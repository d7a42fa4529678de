package domain

import "time"

// Algorithm представляет алгоритм динамической маршрутизации.
type Algorithm string

const (
	SuccessRate     Algorithm = "success_rate"
	Elimination     Algorithm = "elimination"
	ContractRouting Algorithm = "contract_routing"
)

// Scope представляет область, в которой накапливается статистика по метке.
type Scope string

const (
	ScopeEntity Scope = "entity"
	ScopeGlobal Scope = "global"
)

// GlobalEntityID - общий для всех вызывающих идентификатор сущности,
// под которым хранится статистика глобального уровня.
const GlobalEntityID = "global"

// MaxCounter - верхняя граница счётчиков блока.
// Lua в Redis хранит числа как double, поэтому держимся в пределах точного целого.
const MaxCounter uint64 = 1<<53 - 1

// Поля записи текущего блока.
const (
	FieldSuccessCount = "success_count"
	FieldTotalCount   = "total_count"
	FieldCreatedAt    = "created_at"
)

// Block - агрегат исходов за окно. После закрытия не изменяется.
type Block struct {
	SuccessCount uint64 `json:"success_count"`
	TotalCount   uint64 `json:"total_count"`
	CreatedAt    int64  `json:"created_at"`
}

// FieldDelta - знаковое приращение одного поля текущего блока.
type FieldDelta struct {
	Field string
	Delta int64
}

// Bucket - дырявое ведро элиминации.
// Level убывает на единицу за каждый полный интервал утечки, прошедший с LeakedAt.
type Bucket struct {
	Name     string `json:"name"`
	Level    uint64 `json:"level"`
	LeakedAt int64  `json:"leaked_at"`
}

// ContractMap - состояние контракта по метке.
type ContractMap struct {
	Label        string `json:"label"`
	TargetCount  uint64 `json:"target_count"`
	TargetTime   uint64 `json:"target_time"`
	CurrentCount uint64 `json:"current_count"`
}

// Fulfilled сообщает, выполнен ли контракт.
func (c ContractMap) Fulfilled() bool {
	return c.CurrentCount == c.TargetCount
}

// Identity - результат проверки API-ключа.
type Identity struct {
	TenantID   string    `db:"tenant_id"`
	MerchantID string    `db:"merchant_id"`
	KeyID      string    `db:"key_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// ConfigRef адресует сохранённую конфигурацию алгоритма.
type ConfigRef struct {
	TenantID   string    `json:"tenant_id,omitempty"`
	ProfileID  string    `json:"profile_id"`
	MerchantID string    `json:"merchant_id"`
	Algorithm  Algorithm `json:"algorithm"`
}
