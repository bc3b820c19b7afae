package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theoryboard/theoryboard/internal/app"
	"github.com/theoryboard/theoryboard/internal/docstore"
	"github.com/theoryboard/theoryboard/internal/model"
	"github.com/theoryboard/theoryboard/internal/repository"
)

var demoProfiles = []model.UserProfile{
	{DisplayName: "Ada Lovelace"},
	{DisplayName: "Grace Hopper", PhotoURL: "https://avatars.githubusercontent.com/u/1?v=4"},
	{},
}

var demoTheories = []struct {
	title       string
	description string
	author      int // index into demoProfiles, -1 for none
}{
	{"Birds are surveillance drones", "Have you ever seen a baby pigeon? Exactly.", 0},
	{"The moon is a hologram", "Look at it through a polarizing filter and tell me I'm wrong.", 1},
	{"Socks are eaten by the dryer", "Matter cannot vanish, so where do they go?", 2},
	{"Cats invented the internet", "Follow the content.", -1},
}

func SeedCmd() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo profiles and theories into the document store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenStore(cmd.Context(), flags.config())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return seed(cmd.Context(), store)
		},
	}
	bindStoreFlags(cmd, &flags)

	return cmd
}

func seed(ctx context.Context, store docstore.Store) error {
	profiles := repository.NewProfileRepository(store)
	posts := repository.NewPostRepository(store)

	userIDs := make([]string, len(demoProfiles))
	for i, p := range demoProfiles {
		profile := p
		profile.ID = uuid.NewString()
		err := profiles.Save(ctx, &profile)
		if err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
		userIDs[i] = profile.ID
	}

	createdAt := time.Now().Add(-time.Duration(len(demoTheories)) * time.Hour)
	for _, t := range demoTheories {
		post := &model.Post{
			Title:       t.title,
			Description: t.description,
			CreatedAt:   createdAt,
		}
		if t.author >= 0 {
			post.UserID = userIDs[t.author]
		}

		err := posts.Create(ctx, post)
		if err != nil {
			return fmt.Errorf("failed to seed theory: %w", err)
		}
		createdAt = createdAt.Add(time.Hour)
	}

	fmt.Printf("seeded %d profiles and %d theories\n", len(demoProfiles), len(demoTheories))
	return nil
}
