package deploy

import (
	"fmt"
	"time"
)

type Phase string

const (
	PhaseIndex         Phase = "index"
	PhaseNodes         Phase = "nodes"
	PhaseCentrals      Phase = "centrals"
	PhaseMediums       Phase = "mediums"
	PhaseAreaLinks     Phase = "area_links"
	PhaseTopologyLinks Phase = "topology_links"
)

type EffectKind string

const (
	KindNode EffectKind = "create_node"
	KindLink EffectKind = "create_link"
)

// Effect is one provisioning step of a deployment. Skipped effects found the
// entity already present on the server.
type Effect struct {
	Phase    Phase      `json:"phase"`
	Kind     EffectKind `json:"kind"`
	Name     string     `json:"name"`
	RemoteId string     `json:"remote_id"`
	Skipped  bool       `json:"skipped"`
}

// Report lists the effects of a deployment in phase order.
type Report struct {
	RunId    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Effects  []Effect      `json:"effects"`
}

// Created counts the effects of kind that reached the server.
func (r *Report) Created(kind EffectKind) int {
	count := 0
	for _, effect := range r.Effects {
		if effect.Kind == kind && !effect.Skipped {
			count++
		}
	}
	return count
}

func (r *Report) Skipped() int {
	count := 0
	for _, effect := range r.Effects {
		if effect.Skipped {
			count++
		}
	}
	return count
}

// DeployError names the phase and entity a deployment halted on.
type DeployError struct {
	Phase  Phase
	Entity string
	Err    error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy %s %s: %v", e.Phase, e.Entity, e.Err)
}

func (e *DeployError) Unwrap() error {
	return e.Err
}
