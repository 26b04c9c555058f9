// Package model defines domain entities used by services and repositories.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// TrustAward is a single peer-to-peer endorsement worth one point.
// At most one active award exists per (community, from, to) triple.
type TrustAward struct {
	ID          uuid.UUID
	CommunityID uuid.UUID
	FromUserID  uuid.UUID
	ToUserID    uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time // refreshed on recertification; anchor for decay
}

// AdminTrustGrant is an administrator-set addition to a user's score,
// independent of peer awards. At most one per (community, to) pair.
type AdminTrustGrant struct {
	ID          uuid.UUID
	CommunityID uuid.UUID
	ToUserID    uuid.UUID
	AdminUserID uuid.UUID
	TrustAmount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HistoryAction is the kind of a trust ledger entry.
type HistoryAction string

const (
	ActionAward      HistoryAction = "award"
	ActionRemove     HistoryAction = "remove"
	ActionAdminGrant HistoryAction = "admin_grant"
	ActionRecertify  HistoryAction = "recertify"
)

// HistoryEntry is one append-only ledger row. Never updated or deleted.
// Seq is the insertion sequence and breaks ordering ties between rows
// sharing a timestamp.
type HistoryEntry struct {
	Seq         int64
	ID          uuid.UUID
	CommunityID uuid.UUID
	FromUserID  *uuid.UUID // nil for admin actions without an acting peer
	ToUserID    uuid.UUID
	Action      HistoryAction
	PointsDelta int
	CreatedAt   time.Time
}

// TrustLevel is a named threshold scoped to a community. Name and
// threshold are each unique within their community.
type TrustLevel struct {
	ID          uuid.UUID
	CommunityID uuid.UUID
	Name        string
	Threshold   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequirementType tags a TrustRequirement variant.
type RequirementType string

const (
	// RequirementNumber is a literal integer threshold.
	RequirementNumber RequirementType = "number"
	// RequirementLevel references a TrustLevel by id.
	RequirementLevel RequirementType = "level"
)

// TrustRequirement is a tagged union: either a literal threshold or a
// reference to a named trust level. The zero value means "no requirement"
// and resolves to 0.
type TrustRequirement struct {
	Type  RequirementType
	Value int       // set when Type == RequirementNumber
	Level uuid.UUID // set when Type == RequirementLevel
}

// Number builds a literal requirement.
func Number(v int) TrustRequirement {
	return TrustRequirement{Type: RequirementNumber, Value: v}
}

// LevelRef builds a level-reference requirement.
func LevelRef(id uuid.UUID) TrustRequirement {
	return TrustRequirement{Type: RequirementLevel, Level: id}
}

// IsZero reports whether no requirement is configured.
func (r TrustRequirement) IsZero() bool { return r.Type == "" }

type requirementJSON struct {
	Type  RequirementType `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON serializes the union as {"type":...,"value":...}.
func (r TrustRequirement) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case RequirementNumber:
		return json.Marshal(map[string]any{"type": r.Type, "value": r.Value})
	case RequirementLevel:
		return json.Marshal(map[string]any{"type": r.Type, "value": r.Level.String()})
	case "":
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("trust requirement: unknown type %q", r.Type)
	}
}

// UnmarshalJSON accepts the tagged object form, null, and a bare
// integer. Configs written before the union existed stored plain
// numbers; those read as number requirements.
func (r *TrustRequirement) UnmarshalJSON(data []byte) error {
	*r = TrustRequirement{}
	if string(data) == "null" {
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		r.Type = RequirementNumber
		r.Value = n
		return nil
	}

	var raw requirementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("trust requirement: %w", err)
	}
	switch raw.Type {
	case RequirementNumber:
		if err := json.Unmarshal(raw.Value, &r.Value); err != nil {
			return fmt.Errorf("trust requirement value: %w", err)
		}
	case RequirementLevel:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("trust requirement level: %w", err)
		}
		id, err := uuid.FromString(s)
		if err != nil {
			return fmt.Errorf("trust requirement level id: %w", err)
		}
		r.Level = id
	default:
		return fmt.Errorf("trust requirement: unknown type %q", raw.Type)
	}
	r.Type = raw.Type
	return nil
}

// Capability names a community feature gated by a trust threshold.
type Capability string

const (
	CapAwardTrust      Capability = "award_trust"
	CapWealth          Capability = "wealth"
	CapItemManagement  Capability = "item_management"
	CapDisputes        Capability = "disputes"
	CapPolls           Capability = "polls"
	CapThreadCreation  Capability = "thread_creation"
	CapAttachments     Capability = "attachments"
	CapFlagging        Capability = "flagging"
	CapFlagReview      Capability = "flag_review"
	CapForumModeration Capability = "forum_moderation"
)

// capabilityLabels maps capabilities to the human-readable strings shown
// on the trust roadmap.
var capabilityLabels = map[Capability]string{
	CapAwardTrust:      "Award trust to others",
	CapWealth:          "Publish wealth",
	CapItemManagement:  "Manage items",
	CapDisputes:        "Handle disputes",
	CapPolls:           "Create polls",
	CapThreadCreation:  "Create forum threads",
	CapAttachments:     "Upload attachments",
	CapFlagging:        "Flag content",
	CapFlagReview:      "Review flagged content",
	CapForumModeration: "Moderate forum",
}

// Label returns the display string for a capability.
func (c Capability) Label() string {
	if l, ok := capabilityLabels[c]; ok {
		return l
	}
	return string(c)
}

// Capabilities lists every known capability slot in a stable order.
func Capabilities() []Capability {
	return []Capability{
		CapAwardTrust, CapWealth, CapItemManagement, CapDisputes, CapPolls,
		CapThreadCreation, CapAttachments, CapFlagging, CapFlagReview,
		CapForumModeration,
	}
}

// CommunityConfig maps feature capabilities to their trust requirements.
// Stored as JSONB on the community row; absent slots mean no requirement.
type CommunityConfig map[Capability]TrustRequirement

// Community carries the reference data the engine needs: a display name
// and the capability requirement mapping.
type Community struct {
	ID        uuid.UUID
	Name      string
	Config    CommunityConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DecayInfo describes how far a single endorsement has decayed.
type DecayInfo struct {
	MonthsElapsed     float64
	DecayPercent      float64 // continuous in [0,100]
	IsDecaying        bool
	IsExpired         bool
	MonthsUntilExpiry float64
}

// DecayStatus pairs an endorsement with its computed decay state.
type DecayStatus struct {
	AwardID     uuid.UUID
	FromUserID  uuid.UUID
	ToUserID    uuid.UUID
	LastUpdated time.Time
	DecayInfo
}

// RoadmapLevel identifies the trust level sitting at a roadmap threshold.
type RoadmapLevel struct {
	ID   uuid.UUID
	Name string
}

// RoadmapEntry is one rung of the community threshold roadmap.
type RoadmapEntry struct {
	Threshold    int
	Level        *RoadmapLevel // nil when no named level sits at this threshold
	Capabilities []string
	Unlocked     bool
}

// TimelineView is the threshold roadmap annotated against a user's score.
type TimelineView struct {
	UserScore int
	Roadmap   []RoadmapEntry
}

// TimelineEvent is one reconstructed ledger event with the running score
// after applying its delta.
type TimelineEvent struct {
	Timestamp       time.Time
	Action          HistoryAction
	FromUserID      *uuid.UUID
	Delta           int
	CumulativeScore int
	CommunityID     uuid.UUID
	CommunityName   string
}

// TimelineFilter narrows a ledger reconstruction.
type TimelineFilter struct {
	CommunityID *uuid.UUID
	From        *time.Time
	To          *time.Time
}

// CommunityTrust is a per-community score line in a summary.
type CommunityTrust struct {
	CommunityID   uuid.UUID
	CommunityName string
	Points        int
}

// TrustSummary aggregates a user's ledger across communities.
type TrustSummary struct {
	TotalPoints    int
	AwardsReceived int
	AwardsRemoved  int
	ByCommunity    []CommunityTrust
}

// Notification is a stored decay warning. Delivery happens elsewhere.
type Notification struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CommunityID  uuid.UUID
	Kind         string
	Title        string
	Message      string
	ResourceType string
	ResourceID   uuid.UUID
	CreatedAt    time.Time
}
