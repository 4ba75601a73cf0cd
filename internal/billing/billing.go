// Package billing defines the read-only subscription lookup the scan
// pipeline gates on. The billing system itself is an external
// collaborator; this package only consumes its answers.
package billing

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/localsignal/visibility-cli/internal/config"
)

// Subscription is the billing system's answer for a user.
type Subscription struct {
	Subscribed       bool   `json:"subscribed"`
	PaymentCollected bool   `json:"payment_collected"`
	Tier             string `json:"tier"`
}

// Store looks up the subscription for a user.
type Store interface {
	Lookup(ctx context.Context, userID string) (Subscription, error)
}

// Tier names, lowest to highest.
const (
	TierStarter = "starter"
	TierGrowth  = "growth"
	TierScale   = "scale"
)

// tierRank orders tiers for upgrade comparisons. Unknown tiers rank
// below all allowed ones.
var tierRank = map[string]int{
	TierStarter: 1,
	TierGrowth:  2,
	TierScale:   3,
}

// modelRosters maps each allowed tier to its default model roster.
// Lower tiers scan against fewer models.
var modelRosters = map[string][]string{
	TierStarter: {"chatgpt"},
	TierGrowth:  {"chatgpt", "claude"},
	TierScale:   {"chatgpt", "claude", "perplexity"},
}

// Allowed reports whether the tier may start scan runs.
func Allowed(tier string) bool {
	_, ok := modelRosters[tier]
	return ok
}

// RankAtLeast reports whether tier meets or exceeds required.
func RankAtLeast(tier, required string) bool {
	return tierRank[tier] >= tierRank[required]
}

// RosterFor returns a copy of the default model roster for a tier.
func RosterFor(tier string) []string {
	roster := modelRosters[tier]
	out := make([]string, len(roster))
	copy(out, roster)
	return out
}

// StaticStore serves subscriptions from configuration. Demo deployments
// use it directly; production wires a client for the real billing
// system behind the same interface.
type StaticStore struct {
	subs map[string]Subscription
}

// NewStaticStore builds a StaticStore from billing config.
func NewStaticStore(cfg config.BillingConfig) *StaticStore {
	subs := make(map[string]Subscription, len(cfg.Subscriptions))
	for userID, s := range cfg.Subscriptions {
		subs[userID] = Subscription{
			Subscribed:       s.Subscribed,
			PaymentCollected: s.PaymentCollected,
			Tier:             s.Tier,
		}
	}
	return &StaticStore{subs: subs}
}

// Lookup returns the configured subscription for a user. Unknown users
// get a zero Subscription (not subscribed) rather than an error.
func (s *StaticStore) Lookup(_ context.Context, userID string) (Subscription, error) {
	if userID == "" {
		return Subscription{}, eris.New("billing: empty user id")
	}
	return s.subs[userID], nil
}
