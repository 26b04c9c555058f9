package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/commonshub/trustcore/internal/errs"
	"github.com/commonshub/trustcore/internal/model"
	"github.com/commonshub/trustcore/internal/repository"
)

// Scorer supplies the current score; implemented by TrustServiceImpl.
type Scorer interface {
	Score(ctx context.Context, communityID, userID uuid.UUID) (int, error)
}

// Resolver turns configured trust requirements into numeric thresholds
// and builds the community threshold roadmap.
type Resolver interface {
	// Resolve returns the numeric threshold for a requirement. Literal
	// numbers pass through without any lookup; level references load
	// the referenced level, ErrNotFound if it is gone or belongs to a
	// different community. A zero-value requirement resolves to 0.
	Resolve(ctx context.Context, communityID uuid.UUID, req model.TrustRequirement) (int, error)
	// ResolveByName looks a level up by its exact name.
	ResolveByName(ctx context.Context, communityID uuid.UUID, name string) (*model.TrustLevel, error)
	// Timeline returns every distinct threshold in the community's
	// configuration and level ladder, ascending, annotated with the
	// capabilities unlocking there and whether the user has reached it.
	Timeline(ctx context.Context, communityID, userID uuid.UUID) (*model.TimelineView, error)
}

type ResolverImpl struct {
	levels      repository.LevelRepository
	communities repository.CommunityRepository
	scores      Scorer
}

// NewResolver constructs a Resolver.
func NewResolver(levels repository.LevelRepository, communities repository.CommunityRepository, scores Scorer) *ResolverImpl {
	return &ResolverImpl{levels: levels, communities: communities, scores: scores}
}

// Resolve resolves one requirement with exhaustive variant matching.
func (r *ResolverImpl) Resolve(ctx context.Context, communityID uuid.UUID, req model.TrustRequirement) (int, error) {
	switch req.Type {
	case "":
		// unconfigured slot: no requirement
		return 0, nil
	case model.RequirementNumber:
		return req.Value, nil
	case model.RequirementLevel:
		level, err := r.levels.GetByID(ctx, req.Level)
		if err != nil {
			return 0, fmt.Errorf("trust level %s: %w", req.Level, err)
		}
		if level.CommunityID != communityID {
			return 0, fmt.Errorf("trust level %s not in community %s: %w", req.Level, communityID, errs.ErrNotFound)
		}
		return level.Threshold, nil
	default:
		return 0, fmt.Errorf("unknown requirement type %q: %w", req.Type, errs.ErrValidation)
	}
}

// ResolveByName resolves a human-supplied level name.
func (r *ResolverImpl) ResolveByName(ctx context.Context, communityID uuid.UUID, name string) (*model.TrustLevel, error) {
	if communityID.IsNil() {
		return nil, fmt.Errorf("empty community id: %w", errs.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("empty level name: %w", errs.ErrValidation)
	}
	return r.levels.GetByName(ctx, communityID, name)
}

// Timeline builds the threshold roadmap for a user. Every capability
// slot contributes its resolved threshold (0 when unconfigured), every
// named level contributes its own, duplicates collapse into one rung.
func (r *ResolverImpl) Timeline(ctx context.Context, communityID, userID uuid.UUID) (*model.TimelineView, error) {
	if communityID.IsNil() || userID.IsNil() {
		return nil, fmt.Errorf("empty community/user id: %w", errs.ErrValidation)
	}

	community, err := r.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	score, err := r.scores.Score(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	levels, err := r.levels.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}

	capsAt := make(map[int][]string)
	for _, cap := range model.Capabilities() {
		threshold, err := r.Resolve(ctx, communityID, community.Config[cap])
		if err != nil {
			return nil, fmt.Errorf("capability %s: %w", cap, err)
		}
		capsAt[threshold] = append(capsAt[threshold], cap.Label())
	}

	levelAt := make(map[int]*model.RoadmapLevel)
	for i := range levels {
		levelAt[levels[i].Threshold] = &model.RoadmapLevel{ID: levels[i].ID, Name: levels[i].Name}
	}

	distinct := make(map[int]struct{})
	for t := range capsAt {
		distinct[t] = struct{}{}
	}
	for t := range levelAt {
		distinct[t] = struct{}{}
	}
	thresholds := make([]int, 0, len(distinct))
	for t := range distinct {
		thresholds = append(thresholds, t)
	}
	sort.Ints(thresholds)

	roadmap := make([]model.RoadmapEntry, 0, len(thresholds))
	for _, t := range thresholds {
		roadmap = append(roadmap, model.RoadmapEntry{
			Threshold:    t,
			Level:        levelAt[t],
			Capabilities: capsAt[t],
			Unlocked:     score >= t,
		})
	}
	return &model.TimelineView{UserScore: score, Roadmap: roadmap}, nil
}
