package cmd

import (
	"fmt"
	"os"

	"github.com/example/hotelier/internal/catalog"
	"github.com/example/hotelier/internal/config"
	"github.com/spf13/cobra"
)

func newRoomTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roomtype",
		Short: "Show or edit the hotel's room-type catalog",
	}
	cmd.AddCommand(newRoomTypeShowCmd())
	cmd.AddCommand(newRoomTypeSetCmd())
	return cmd
}

func newRoomTypeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List configured room types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.HotelConfigPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s (%s)\n", cat.HotelName, cat.HotelCode)
			for _, rt := range cat.Types() {
				fmt.Fprintf(os.Stdout, "  %s inventory=%d rate=%s rooms=%d-%d\n",
					rt.Code, rt.Inventory, catalog.FormatMoney(rt.RateCents), rt.FirstRoom, rt.LastRoom)
			}
			return nil
		},
	}
}

func newRoomTypeSetCmd() *cobra.Command {
	var (
		code      string
		inventory int
		rate      string
		firstRoom int
		lastRoom  int
	)

	c := &cobra.Command{
		Use:   "set",
		Short: "Add or replace a room type in the hotel config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			rateCents, err := catalog.ParseMoney(rate)
			if err != nil {
				return err
			}
			rt := catalog.RoomType{
				Code:      code,
				Inventory: inventory,
				RateCents: rateCents,
				FirstRoom: firstRoom,
				LastRoom:  lastRoom,
			}
			if err := catalog.SetRoomType(cfg.HotelConfigPath, rt); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "wrote room type %s to %s (takes effect on next load)\n",
				code, cfg.HotelConfigPath)
			return nil
		},
	}

	c.Flags().StringVar(&code, "code", "", "room type code")
	c.Flags().IntVar(&inventory, "inventory", 0, "total inventory count")
	c.Flags().StringVar(&rate, "rate", "", "nightly rate, e.g. 100 or 89.50")
	c.Flags().IntVar(&firstRoom, "first-room", 0, "first physical room number")
	c.Flags().IntVar(&lastRoom, "last-room", 0, "last physical room number")

	_ = c.MarkFlagRequired("code")
	_ = c.MarkFlagRequired("inventory")
	_ = c.MarkFlagRequired("rate")
	_ = c.MarkFlagRequired("first-room")
	_ = c.MarkFlagRequired("last-room")
	return c
}
