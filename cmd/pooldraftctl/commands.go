package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/pooldraft/internal/adapters/repository"
	"github.com/okian/pooldraft/internal/config"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/seed"
	"github.com/okian/pooldraft/internal/smoke"
)

type rootOptions struct {
	dbPath string
	actor  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "pooldraftctl",
		Short:         "Administer the pooldraft store",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.dbPath != "" {
				return nil
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			opts.dbPath = cfg.DBPath
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default from POOLDRAFT_DB_PATH or config)")
	root.PersistentFlags().StringVar(&opts.actor, "actor", "pooldraftctl", "Name recorded in audit fields")

	root.AddCommand(
		newSeedCmd(opts),
		newAddCandidateCmd(opts),
		newRemoveCandidateCmd(opts),
		newListCandidatesCmd(opts),
		newCreateEventCmd(opts),
		newShowEventCmd(opts),
		newSmokeCmd(),
	)
	return root
}

// withStore opens the store for one command and closes it afterwards.
func withStore(ctx context.Context, opts *rootOptions, fn func(context.Context, *repository.Store) error) error {
	store, err := repository.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(ctx, store)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo roster, or a YAML/JSON roster file, into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			candidates := seed.DefaultRoster()
			if file != "" {
				var err error
				if candidates, err = seed.ReadFile(file); err != nil {
					return err
				}
			}
			return withStore(cmd.Context(), opts, func(ctx context.Context, s *repository.Store) error {
				rep, err := seed.Run(ctx, s, candidates, opts.actor)
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d candidates\n", rep.Seeded)
				for name, ferr := range rep.Failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", name, ferr)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Roster file with a top-level candidates list")
	return cmd
}

func newAddCandidateCmd(opts *rootOptions) *cobra.Command {
	var c model.Candidate
	var role string
	cmd := &cobra.Command{
		Use:   "add-candidate",
		Short: "Create or update a master roster candidate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, ok := model.ParseRole(role)
			if !ok || r == model.RoleAll {
				return fmt.Errorf("unknown role %q", role)
			}
			c.Role = r
			return withStore(cmd.Context(), opts, func(ctx context.Context, s *repository.Store) error {
				saved, err := s.UpsertCandidate(ctx, c, opts.actor)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), saved)
			})
		},
	}
	cmd.Flags().StringVar(&c.ID, "id", "", "Candidate id (generated when empty)")
	cmd.Flags().StringVar(&c.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleBatsman), "Batsman, Bowler, All-Rounder or Wicket-Keeper")
	cmd.Flags().IntVar(&c.SkillScore, "score", 70, "Skill score 0-100")
	cmd.Flags().Float64Var(&c.BasePrice, "price", 0.5, "Base price")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRemoveCandidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-candidate <id>",
		Short: "Delete a master roster candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, s *repository.Store) error {
				if err := s.DeleteCandidate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newListCandidatesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-candidates",
		Short: "Print the master roster sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, s *repository.Store) error {
				snap, err := s.RosterSnapshot(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), snap)
			})
		},
	}
}

func newCreateEventCmd(opts *rootOptions) *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "create-event",
		Short: "Create an event in the lobby state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, s *repository.Store) error {
				ev, err := s.CreateEvent(ctx, host)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ev)
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Organizer id that owns the event")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}

type eventDetail struct {
	Event     model.Event      `json:"event"`
	Overrides []model.Override `json:"overrides"`
}

func newShowEventCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show-event <id>",
		Short: "Print an event with its committed groups and overrides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, s *repository.Store) error {
				ev, err := s.GetEvent(ctx, args[0])
				if err != nil {
					return err
				}
				overrides, err := s.GetOverrides(ctx, args[0])
				if err != nil {
					return err
				}
				if overrides == nil {
					overrides = []model.Override{}
				}
				return printJSON(cmd.OutOrStdout(), eventDetail{Event: ev, Overrides: overrides})
			})
		},
	}
}

func newSmokeCmd() *cobra.Command {
	var cfg smoke.Config
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Curate and commit events against a running server, then verify they hydrate back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := smoke.Run(cmd.Context(), cfg)
			fmt.Fprintf(cmd.OutOrStdout(), "sessions=%d committed=%d verified=%d failed=%d duration=%s\n",
				stats.Sessions, stats.Committed, stats.Verified, stats.Failed, stats.Duration)
			for _, f := range stats.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", f)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	cmd.Flags().IntVar(&cfg.Sessions, "sessions", smoke.DefaultSessions, "Events to curate")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "Concurrent sessions (default CPU cores)")
	cmd.Flags().IntVar(&cfg.Groups, "groups", smoke.DefaultGroups, "Groups per event")
	cmd.Flags().IntVar(&cfg.PerGroup, "per-group", smoke.DefaultPerGroup, "Candidates per group")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", smoke.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log each verified session")
	return cmd
}
