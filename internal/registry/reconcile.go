package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"canvass/internal/logging"
	"canvass/internal/store"
)

// Outcome is the terminal classification of one reconciliation run. Staff
// re-trigger by calling again after the data changes; there are no retries.
type Outcome string

const (
	OutcomeSkipped      Outcome = "skipped"
	OutcomeUnregistered Outcome = "unregistered"
	OutcomeAutoVerified Outcome = "auto_verified"
	OutcomeReferral     Outcome = "referral"
	OutcomeFlagged      Outcome = "flagged"
)

// Result reports what one reconciliation decided. Detail carries the
// human-readable distinction between match kinds that share an outcome.
type Result struct {
	Outcome Outcome
	Detail  string
	Match   *store.RegistryRecord
}

// Reconciler classifies supporters against the loaded voter registry.
type Reconciler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewReconciler wires a Reconciler to the campaign store.
func NewReconciler(st *store.Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: st, logger: logging.WithComponent(logger, "registry")}
}

// Reconcile performs a one-shot classification of one supporter against the
// registry. All writes go through direct field updates rather than the edit
// path: this is a system-initiated decision, not a staff submission.
func (r *Reconciler) Reconcile(ctx context.Context, supporterID int64) (*Result, error) {
	supporter, err := r.store.GetSupporter(ctx, supporterID)
	if err != nil {
		return nil, err
	}

	count, err := r.store.ActiveRegistryCount(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return &Result{Outcome: OutcomeSkipped, Detail: "No voter registry snapshot loaded."}, nil
	}

	candidates, err := Match(ctx, r.store, supporter)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		registered := false
		if err := r.store.ApplyVerification(ctx, supporter.ID, store.VerificationUpdate{
			RegisteredVoter: &registered,
		}); err != nil {
			return nil, err
		}
		return r.finish(supporter, &Result{
			Outcome: OutcomeUnregistered,
			Detail:  "No registry record matches this name.",
		})
	}

	best := candidates[0]
	registered := true
	switch best.Confidence {
	case ConfidenceExact:
		return r.verify(ctx, supporter, best.Record, "Exact registry match on name, date of birth, and village.")
	case ConfidenceHigh:
		if supporter.VillageID != nil && !foldEqual(villageNameOf(ctx, r.store, supporter), best.Record.VillageName) {
			return r.refer(ctx, supporter, best.Record)
		}
		return r.verify(ctx, supporter, best.Record, "Name and date of birth match the registry.")
	case ConfidenceMedium:
		if err := r.store.ApplyVerification(ctx, supporter.ID, store.VerificationUpdate{
			VerificationStatus: store.VerificationFlagged,
			RegisteredVoter:    &registered,
		}); err != nil {
			return nil, err
		}
		return r.finish(supporter, &Result{
			Outcome: OutcomeFlagged,
			Detail:  "Name and village match the registry but no date of birth confirms it.",
			Match:   best.Record,
		})
	default:
		if err := r.store.ApplyVerification(ctx, supporter.ID, store.VerificationUpdate{
			VerificationStatus: store.VerificationFlagged,
			RegisteredVoter:    &registered,
		}); err != nil {
			return nil, err
		}
		return r.finish(supporter, &Result{
			Outcome: OutcomeFlagged,
			Detail:  "Only the name matches the registry; manual review needed.",
			Match:   best.Record,
		})
	}
}

func (r *Reconciler) verify(ctx context.Context, supporter *store.Supporter, record *store.RegistryRecord, detail string) (*Result, error) {
	registered := true
	now := time.Now().UTC()
	if err := r.store.ApplyVerification(ctx, supporter.ID, store.VerificationUpdate{
		VerificationStatus: store.VerificationVerified,
		RegisteredVoter:    &registered,
		VerifiedAt:         &now,
	}); err != nil {
		return nil, err
	}
	return r.finish(supporter, &Result{Outcome: OutcomeAutoVerified, Detail: detail, Match: record})
}

// refer handles a registry record that places the supporter in a different
// village than the one they declared: they are registered, but their vote
// counts elsewhere, so the record is flagged and the registry village noted.
func (r *Reconciler) refer(ctx context.Context, supporter *store.Supporter, record *store.RegistryRecord) (*Result, error) {
	registered := true
	update := store.VerificationUpdate{
		VerificationStatus: store.VerificationFlagged,
		RegisteredVoter:    &registered,
	}
	village, err := r.store.VillageByName(ctx, record.VillageName)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if village != nil {
		update.ReferredFromVillageID = &village.ID
	}
	if err := r.store.ApplyVerification(ctx, supporter.ID, update); err != nil {
		return nil, err
	}
	return r.finish(supporter, &Result{
		Outcome: OutcomeReferral,
		Detail:  fmt.Sprintf("Registered in %s, not the declared village.", record.VillageName),
		Match:   record,
	})
}

func (r *Reconciler) finish(supporter *store.Supporter, result *Result) (*Result, error) {
	r.logger.Info("reconciled supporter",
		slog.Int64(logging.FieldSupporterID, supporter.ID),
		slog.String("outcome", string(result.Outcome)),
	)
	return result, nil
}

func villageNameOf(ctx context.Context, st *store.Store, supporter *store.Supporter) string {
	if supporter.VillageID == nil {
		return ""
	}
	village, err := st.VillageByID(ctx, *supporter.VillageID)
	if err != nil {
		return ""
	}
	return village.Name
}
