package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"canvass/internal/config"
	"canvass/internal/dedupe"
	"canvass/internal/normalize"
	"canvass/internal/precinct"
	"canvass/internal/store"
)

// newEditCommand is the staff edit path. Contact changes flow through the same
// checks as fresh records: the edited supporter is re-probed for duplicates and
// its precinct assignment is recomputed.
func newEditCommand(ctx *commandContext) *cobra.Command {
	var firstName string
	var lastName string
	var phone string
	var email string
	var address string
	var birthDate string
	var villageName string

	cmd := &cobra.Command{
		Use:   "edit <supporter-id>",
		Short: "Edit a supporter's contact details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid supporter id %q", args[0])
			}
			flags := cmd.Flags()
			if !flags.Changed("first") && !flags.Changed("last") && !flags.Changed("phone") &&
				!flags.Changed("email") && !flags.Changed("address") &&
				!flags.Changed("birth-date") && !flags.Changed("village") {
				return fmt.Errorf("no changes given; pass at least one field flag")
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				supporter, err := st.GetSupporter(cmd.Context(), id)
				if err != nil {
					return err
				}

				if flags.Changed("first") {
					supporter.FirstName = strings.TrimSpace(firstName)
				}
				if flags.Changed("last") {
					supporter.LastName = strings.TrimSpace(lastName)
				}
				if flags.Changed("first") || flags.Changed("last") {
					supporter.DisplayName = normalize.DisplayName(supporter.FirstName, supporter.LastName)
				}
				if flags.Changed("phone") {
					supporter.Phone = strings.TrimSpace(phone)
					supporter.NormalizedPhone = normalize.Phone(supporter.Phone, cfg.Campaign.LocalAreaCode)
				}
				if flags.Changed("email") {
					supporter.Email = strings.TrimSpace(email)
				}
				if flags.Changed("address") {
					supporter.Address = strings.TrimSpace(address)
				}
				if flags.Changed("birth-date") {
					raw := strings.TrimSpace(birthDate)
					if raw == "" {
						supporter.BirthDate = nil
						supporter.BirthDateAmbiguous = false
					} else {
						parsed, ambiguous, ok := normalize.ParseDate(raw)
						if !ok {
							return fmt.Errorf("unparseable --birth-date %q", birthDate)
						}
						supporter.BirthDate = &parsed
						supporter.BirthDateAmbiguous = ambiguous
					}
				}
				if flags.Changed("village") {
					village, err := st.VillageByName(cmd.Context(), strings.TrimSpace(villageName))
					if err != nil {
						if errors.Is(err, store.ErrNotFound) {
							return fmt.Errorf("unknown village %q", villageName)
						}
						return err
					}
					supporter.VillageID = &village.ID
				}

				if err := st.UpdateContact(cmd.Context(), supporter); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Updated supporter %d.\n", supporter.ID)

				updated, err := st.GetSupporter(cmd.Context(), supporter.ID)
				if err != nil {
					return err
				}
				flagged, err := dedupe.NewDetector(st, cfg, logger).FlagIfDuplicate(cmd.Context(), updated.ID)
				if err != nil {
					return err
				}
				if flagged {
					fmt.Fprintf(out, "Supporter %d now matches an existing record; flagged for review.\n", updated.ID)
				}
				assigned, err := precinct.NewAssigner(st, logger).Assign(cmd.Context(), updated)
				if err != nil {
					return err
				}
				if assigned != nil && (updated.PrecinctID == nil || *updated.PrecinctID != assigned.ID) {
					fmt.Fprintf(out, "Assigned precinct %s.\n", assigned.Number)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&firstName, "first", "", "New first name")
	cmd.Flags().StringVar(&lastName, "last", "", "New last name")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone number")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().StringVar(&address, "address", "", "New street address")
	cmd.Flags().StringVar(&birthDate, "birth-date", "", "New birth date; empty clears it")
	cmd.Flags().StringVar(&villageName, "village", "", "New home village by name")
	return cmd
}
