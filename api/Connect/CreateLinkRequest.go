package api

import "github.com/David-Antunes/gone-topo/api"

type CreateLinkRequest struct {
	Nodes []api.LinkEndpoint `json:"nodes" validate:"len=2,dive"`
}
