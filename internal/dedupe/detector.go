package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"canvass/internal/config"
	"canvass/internal/logging"
	"canvass/internal/normalize"
	"canvass/internal/store"
)

// Probe names one of the independent duplicate checks.
type Probe string

const (
	ProbePhone Probe = "phone"
	ProbeEmail Probe = "email"
	ProbeName  Probe = "name and village"
)

// Candidate is one suspected duplicate together with every probe that
// matched it.
type Candidate struct {
	Supporter *store.Supporter
	Probes    []Probe
}

// Detector finds and flags suspected duplicate supporters.
type Detector struct {
	store    *store.Store
	areaCode string
	lockPath string
	logger   *slog.Logger
}

// NewDetector wires a Detector to the campaign store.
func NewDetector(st *store.Store, cfg *config.Config, logger *slog.Logger) *Detector {
	return &Detector{
		store:    st,
		areaCode: cfg.Campaign.LocalAreaCode,
		lockPath: cfg.LockPath(),
		logger:   logging.WithComponent(logger, "dedupe"),
	}
}

// FindDuplicates runs the three probes and returns the union of their hits,
// ordered oldest record first. A record matched by several probes appears
// once, carrying every probe that hit it.
func (d *Detector) FindDuplicates(ctx context.Context, supporter *store.Supporter) ([]*Candidate, error) {
	found := make(map[int64]*Candidate)
	add := func(s *store.Supporter, probe Probe) {
		c, ok := found[s.ID]
		if !ok {
			c = &Candidate{Supporter: s}
			found[s.ID] = c
		}
		for _, p := range c.Probes {
			if p == probe {
				return
			}
		}
		c.Probes = append(c.Probes, probe)
	}

	if err := d.probePhone(ctx, supporter, add); err != nil {
		return nil, err
	}
	if supporter.Email != "" {
		matches, err := d.store.FindSupportersByEmail(ctx, supporter.Email, supporter.ID)
		if err != nil {
			return nil, fmt.Errorf("email probe: %w", err)
		}
		for _, m := range matches {
			add(m, ProbeEmail)
		}
	}
	if err := d.probeName(ctx, supporter, add); err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, len(found))
	for _, c := range found {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Supporter.ID < candidates[j].Supporter.ID
	})
	return candidates, nil
}

// probePhone compares both the raw and normalized phone of the supporter
// against both stored forms of every other record. Stored raw values are
// re-normalized on the fly since rows created before normalization existed
// may hold unnormalized numbers.
func (d *Detector) probePhone(ctx context.Context, supporter *store.Supporter, add func(*store.Supporter, Probe)) error {
	own := phoneForms(supporter.Phone, supporter.NormalizedPhone, d.areaCode)
	if len(own) == 0 {
		return nil
	}

	candidates, err := d.store.ListPhoneCandidates(ctx, supporter.ID)
	if err != nil {
		return fmt.Errorf("phone probe: %w", err)
	}
	for _, c := range candidates {
		theirs := phoneForms(c.Phone, c.NormalizedPhone, d.areaCode)
		if !intersects(own, theirs) {
			continue
		}
		match, err := d.store.GetSupporter(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("phone probe: load supporter %d: %w", c.ID, err)
		}
		add(match, ProbePhone)
	}
	return nil
}

func (d *Detector) probeName(ctx context.Context, supporter *store.Supporter, add func(*store.Supporter, Probe)) error {
	if supporter.VillageID == nil {
		return nil
	}
	pairs := [][2]string{
		{supporter.FirstName, supporter.LastName},
		// Swapped order catches first/last transposed at entry time.
		{supporter.LastName, supporter.FirstName},
	}
	for _, pair := range pairs {
		matches, err := d.store.FindSupportersByName(ctx, pair[0], pair[1], *supporter.VillageID, supporter.ID)
		if err != nil {
			return fmt.Errorf("name probe: %w", err)
		}
		for _, m := range matches {
			add(m, ProbeName)
		}
	}
	return nil
}

// phoneForms collects the distinct non-blank comparable forms of a phone.
func phoneForms(raw, normalized, areaCode string) map[string]struct{} {
	forms := make(map[string]struct{}, 3)
	for _, v := range []string{raw, normalized, normalize.Phone(raw, areaCode)} {
		if v = strings.TrimSpace(v); v != "" {
			forms[v] = struct{}{}
		}
	}
	return forms
}

func intersects(a, b map[string]struct{}) bool {
	for v := range a {
		if _, ok := b[v]; ok {
			return true
		}
	}
	return false
}
