package api

type CreateNodeRequest struct {
	Name      string `json:"name" validate:"required"`
	NodeType  string `json:"node_type" validate:"required"`
	ComputeId string `json:"compute_id" validate:"required"`
	Symbol    string `json:"symbol,omitempty"`
}
