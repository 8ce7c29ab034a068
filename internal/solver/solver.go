// Package solver assigns base-station targets to routers by real road
// distance, with Haversine radius pre-filtering and an optional
// unique-assignment mode that resolves router conflicts over multiple
// rounds.
package solver

import (
	"context"
	"log"
	"math"

	"github.com/nguyensongnghiem/routeplanner/internal/geo"
	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

// MatrixClient provides one-to-many road distances in kilometers, +Inf for
// unroutable pairs
type MatrixClient interface {
	TableDistances(ctx context.Context, source models.Coordinates, dests []models.Coordinates) ([]float64, error)
}

// Solver matches targets to routers
type Solver struct {
	client   MatrixClient
	radiusKM float64
}

// New creates a solver using the given distance client and pre-filter
// radius in kilometers
func New(client MatrixClient, radiusKM float64) *Solver {
	return &Solver{client: client, radiusKM: radiusKM}
}

// FilterByRadius returns the routers within radiusKM of the target by
// great-circle distance. The boundary is inclusive. Pure filter, no side
// effects; an empty result just means no candidates nearby.
func FilterByRadius(target models.Coordinates, routers []models.Router, radiusKM float64) []models.Router {
	var filtered []models.Router
	for _, r := range routers {
		if geo.Distance(target, r.GetCoords()) <= radiusKM*1000 {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// BestRouter finds the closest router to one target by road distance:
// radius pre-filter, then a single matrix call over the candidates. The
// target is never dropped; failures come back as a status.
func (s *Solver) BestRouter(ctx context.Context, target models.Target, routers []models.Router) models.Assignment {
	candidates := FilterByRadius(target.GetCoords(), routers, s.radiusKM)
	if len(candidates) == 0 {
		log.Printf("[SOLVER] No router within %.1fkm of target %s", s.radiusKM, target.Name)
		return models.Assignment{Target: target, Status: models.StatusNoRouterInRange}
	}

	dests := make([]models.Coordinates, len(candidates))
	for i, r := range candidates {
		dests[i] = r.GetCoords()
	}

	distances, err := s.client.TableDistances(ctx, target.GetCoords(), dests)
	if err != nil {
		log.Printf("[ERROR] Matrix lookup failed for target %s: err=%v", target.Name, err)
		return models.Assignment{Target: target, Status: models.StatusRouteFailed}
	}

	bestIdx := -1
	bestDist := math.Inf(1)
	for i, d := range distances {
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}

	if bestIdx < 0 || math.IsInf(bestDist, 1) {
		log.Printf("[SOLVER] No routable candidate for target %s (candidates=%d)", target.Name, len(candidates))
		return models.Assignment{Target: target, Status: models.StatusRouteFailed}
	}

	best := candidates[bestIdx]
	return models.Assignment{
		Target:     target,
		Router:     &best,
		DistanceKM: bestDist,
		Status:     models.StatusSuccess,
	}
}

// Assign runs the simple (non-unique) mode: every target independently gets
// its closest router. The same router may serve several targets.
func (s *Solver) Assign(ctx context.Context, targets []models.Target, routers []models.Router) []models.Assignment {
	log.Printf("[SOLVER] Simple assignment: targets=%d routers=%d radius=%.1fkm", len(targets), len(routers), s.radiusKM)

	results := make([]models.Assignment, 0, len(targets))
	for i, target := range targets {
		a := s.BestRouter(ctx, target, routers)
		if a.Status == models.StatusSuccess {
			log.Printf("[SOLVER] [%d/%d] %s -> %s (%.3fkm)", i+1, len(targets), target.Name, a.Router.Name, a.DistanceKM)
		} else {
			log.Printf("[SOLVER] [%d/%d] %s -> %s", i+1, len(targets), target.Name, a.Status)
		}
		results = append(results, a)
	}
	return results
}

// AssignUnique runs the conflict-resolution mode: each round every still
// unassigned target nominates its closest available router, each contested
// router goes to the closest nominator, winners are committed and their
// routers leave the pool. The loop ends when all targets are assigned, no
// round commits anything, or the pool is empty; leftovers are marked
// "Not Assigned after Loop". A committed router is never reconsidered, so
// each final router name is distinct.
func (s *Solver) AssignUnique(ctx context.Context, targets []models.Target, routers []models.Router) []models.Assignment {
	log.Printf("[SOLVER] Unique assignment: targets=%d routers=%d radius=%.1fkm", len(targets), len(routers), s.radiusKM)

	assigned := make(map[string]models.Assignment) // target name -> final
	taken := make(map[string]bool)                 // router name -> committed
	unassigned := append([]models.Target(nil), targets...)

	for round := 1; len(unassigned) > 0; round++ {
		available := make([]models.Router, 0, len(routers))
		for _, r := range routers {
			if !taken[r.Name] {
				available = append(available, r)
			}
		}
		if len(available) == 0 {
			log.Printf("[SOLVER] Round %d: no routers left, stopping", round)
			break
		}

		log.Printf("[SOLVER] Round %d: targets=%d available_routers=%d", round, len(unassigned), len(available))

		// Nominations: contested routers keep only the closest target
		nominations := make(map[string]models.Assignment)
		for i, target := range unassigned {
			a := s.BestRouter(ctx, target, available)
			if a.Status != models.StatusSuccess {
				log.Printf("[SOLVER] [R%d %d/%d] %s -> %s", round, i+1, len(unassigned), target.Name, a.Status)
				continue
			}
			current, contested := nominations[a.Router.Name]
			if !contested || a.DistanceKM < current.DistanceKM {
				nominations[a.Router.Name] = a
			}
		}

		if len(nominations) == 0 {
			log.Printf("[SOLVER] Round %d: no new assignments, stopping", round)
			break
		}

		// Commit the round winners
		for routerName, a := range nominations {
			assigned[a.Target.Name] = a
			taken[routerName] = true
			log.Printf("[SOLVER] Round %d commit: %s -> %s (%.3fkm)", round, a.Target.Name, routerName, a.DistanceKM)
		}

		remaining := unassigned[:0]
		for _, target := range unassigned {
			if _, ok := assigned[target.Name]; !ok {
				remaining = append(remaining, target)
			}
		}
		unassigned = remaining

		log.Printf("[SOLVER] Round %d summary: committed=%d remaining_targets=%d remaining_routers=%d",
			round, len(nominations), len(unassigned), len(routers)-len(taken))
	}

	// Emit results in input order, deadlocked targets included
	results := make([]models.Assignment, 0, len(targets))
	for _, target := range targets {
		if a, ok := assigned[target.Name]; ok {
			results = append(results, a)
		} else {
			results = append(results, models.Assignment{Target: target, Status: models.StatusNotAssigned})
		}
	}
	return results
}
