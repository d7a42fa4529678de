package routingv1

import "encoding/json"

type Outcome struct {
	Label   string `json:"label"`
	Success bool   `json:"success"`
}

type BucketReport struct {
	Label      string `json:"label"`
	BucketName string `json:"bucket_name,omitempty"`
}

type Contract struct {
	Label        string `json:"label"`
	TargetCount  uint64 `json:"target_count"`
	TargetTime   uint64 `json:"target_time"`
	CurrentCount uint64 `json:"current_count"`
}

type PerformRoutingRequest struct {
	Algorithm    string          `json:"algorithm"`
	TenantID     string          `json:"tenant_id,omitempty"`
	ProfileID    string          `json:"profile_id,omitempty"`
	ID           string          `json:"id"`
	Params       string          `json:"params"`
	Labels       []string        `json:"labels"`
	GlobalLabels []string        `json:"global_labels,omitempty"`
	Config       json.RawMessage `json:"config,omitempty"`
}

type LabelScore struct {
	Label            string  `json:"label"`
	Score            float64 `json:"score"`
	CurrentBlockSize uint64  `json:"current_block_size,omitempty"`
	CurrentCount     uint64  `json:"current_count,omitempty"`
	TargetCount      uint64  `json:"target_count,omitempty"`
}

type EliminationStatus struct {
	Label            string   `json:"label"`
	EntityEliminated bool     `json:"entity_eliminated"`
	EntityBuckets    []string `json:"entity_buckets,omitempty"`
	GlobalEliminated bool     `json:"global_eliminated"`
	GlobalBuckets    []string `json:"global_buckets,omitempty"`
}

type PerformRoutingResponse struct {
	Algorithm    string              `json:"algorithm"`
	Labels       []LabelScore        `json:"labels,omitempty"`
	GlobalLabels []LabelScore        `json:"global_labels,omitempty"`
	Eliminations []EliminationStatus `json:"eliminations,omitempty"`
	// Eligible - метки, не исключённые алгоритмом elimination, во входном порядке.
	Eligible []string `json:"eligible,omitempty"`
}

type UpdateWindowRequest struct {
	Algorithm      string          `json:"algorithm"`
	TenantID       string          `json:"tenant_id,omitempty"`
	ProfileID      string          `json:"profile_id,omitempty"`
	ID             string          `json:"id"`
	Params         string          `json:"params"`
	Config         json.RawMessage `json:"config,omitempty"`
	Outcomes       []Outcome       `json:"outcomes,omitempty"`
	GlobalOutcomes []Outcome       `json:"global_outcomes,omitempty"`
	Reports        []BucketReport  `json:"reports,omitempty"`
	Contracts      []Contract      `json:"contracts,omitempty"`
}

type UpdateWindowResponse struct{}

type InvalidateMetricsRequest struct {
	Algorithm string `json:"algorithm,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	ID        string `json:"id"`
}

type InvalidateMetricsResponse struct {
	DeletedKeys []string `json:"deleted_keys"`
}

type ConfigRef struct {
	TenantID   string `json:"tenant_id,omitempty"`
	ProfileID  string `json:"profile_id,omitempty"`
	MerchantID string `json:"merchant_id"`
	Algorithm  string `json:"algorithm"`
}

type UpsertConfigRequest struct {
	Ref    ConfigRef       `json:"ref"`
	Config json.RawMessage `json:"config"`
}

type UpsertConfigResponse struct{}

type GetConfigRequest struct {
	Ref ConfigRef `json:"ref"`
}

type GetConfigResponse struct {
	Config json.RawMessage `json:"config"`
}
