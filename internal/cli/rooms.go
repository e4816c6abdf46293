package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarppi/sketchparty/internal/model"
)

// RoomListResult is the room listing response
type RoomListResult struct {
	Rooms []model.RoomDescription `json:"rooms"`
}

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect live rooms",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List live rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomListResult
			if err := client.Get("/api/v1/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if cfg.Output == "json" {
				out.Print(result)
				return nil
			}
			if len(result.Rooms) == 0 {
				out.PrintMessage("no live rooms")
				return nil
			}
			for _, room := range result.Rooms {
				fmt.Printf("%-20s %-8s %-12s %d/%d players\n",
					room.ID, room.Variant, room.Phase, room.Players, room.MaxPlayers)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <room_id>",
		Short: "Show one room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.RoomDescription
			if err := client.Get("/api/v1/rooms/"+args[0], &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	return cmd
}
