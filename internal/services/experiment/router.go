// Package experiment routes each request to a model according to the
// configured experiment mode. Routing is a pure function of the config
// and the request ID so the same request always lands on the same arm.
package experiment

import (
	"hash/fnv"
	"strconv"

	"github.com/chronoverse/chronoverse/internal/models"
)

// Router assigns models per request.
type Router struct {
	cfg models.ExperimentConfig
}

// NewRouter creates a router for the given experiment configuration.
func NewRouter(cfg models.ExperimentConfig) *Router {
	return &Router{cfg: cfg}
}

// Assign decides which model serves the request, and which shadow
// targets (if any) are exercised off the response path.
//
// In ab mode the bucket is the last four hex characters of the request
// ID taken base 16 modulo 100; buckets below the split percentage go to
// the secondary model. Request IDs are hex-suffixed by construction, so
// the FNV fallback only fires for foreign IDs.
func (r *Router) Assign(requestID string) models.ModelAssignment {
	assignment := models.ModelAssignment{
		Primary:  r.cfg.PrimaryModel,
		Selected: r.cfg.PrimaryModel,
		Mode:     r.cfg.Mode,
	}

	switch r.cfg.Mode {
	case models.ExperimentAB:
		if bucket(requestID) < clampSplit(r.cfg.ABSplitPct) {
			assignment.Selected = r.cfg.SecondaryModel
		}
	case models.ExperimentShadow:
		assignment.ShadowTargets = append(assignment.ShadowTargets, r.cfg.ShadowTargets...)
	}

	return assignment
}

func bucket(requestID string) int {
	if len(requestID) >= 4 {
		suffix := requestID[len(requestID)-4:]
		if n, err := strconv.ParseUint(suffix, 16, 64); err == nil {
			return int(n % 100)
		}
	}

	h := fnv.New32a()
	h.Write([]byte(requestID))
	return int(h.Sum32() % 100)
}

func clampSplit(split int) int {
	if split < 0 {
		return 0
	}
	if split > 100 {
		return 100
	}
	return split
}
