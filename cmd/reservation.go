package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/example/hotelier/internal/booking"
	"github.com/example/hotelier/internal/catalog"
	"github.com/example/hotelier/internal/config"
	"github.com/example/hotelier/internal/domain/reservation"
	"github.com/spf13/cobra"
)

func newReservationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservation",
		Aliases: []string{"res"},
		Short:   "Create, look up and manage reservations",
	}
	cmd.AddCommand(newReservationCreateCmd())
	cmd.AddCommand(newReservationListCmd())
	cmd.AddCommand(newReservationLookupCmd())
	cmd.AddCommand(newReservationDeleteCmd())
	cmd.AddCommand(newReservationCheckInCmd())
	cmd.AddCommand(newReservationCheckOutCmd())
	return cmd
}

func newReservationCreateCmd() *cobra.Command {
	var (
		guest    string
		roomType string
		arrival  string
		nights   int
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Book a room type for a guest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ad, err := time.Parse(time.DateOnly, arrival)
			if err != nil {
				return fmt.Errorf("invalid --arrival (want YYYY-MM-DD)")
			}
			return withService(cmd.Context(), func(cfg config.Config, svc *booking.Service) error {
				res, err := svc.CreateReservation(cmd.Context(), guest, roomType, ad, nights)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "created reservation %s rate=%s arrival=%s nights=%d\n",
					res.ID, catalog.FormatMoney(res.RateCents), res.ArrivalDate.Format(time.DateOnly), res.Nights)
				return nil
			})
		},
	}

	c.Flags().StringVar(&guest, "guest", "", "guest name")
	c.Flags().StringVar(&roomType, "room-type", "", "room type code")
	c.Flags().StringVar(&arrival, "arrival", "", "arrival date YYYY-MM-DD")
	c.Flags().IntVar(&nights, "nights", 1, "length of stay in nights")

	_ = c.MarkFlagRequired("guest")
	_ = c.MarkFlagRequired("room-type")
	_ = c.MarkFlagRequired("arrival")
	return c
}

func newReservationListCmd() *cobra.Command {
	var roomType string

	c := &cobra.Command{
		Use:   "list",
		Short: "List booked and checked-in reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(cfg config.Config, svc *booking.Service) error {
				list, err := svc.ListActive(cmd.Context(), roomType)
				if err != nil {
					return err
				}
				for _, res := range list {
					printReservation(res)
				}
				fmt.Fprintf(os.Stdout, "%d active reservation(s)\n", len(list))
				return nil
			})
		},
	}

	c.Flags().StringVar(&roomType, "room-type", "", "limit to one room type code")
	return c
}

func newReservationLookupCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "lookup <reservation-id>",
		Short: "Print a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(cfg config.Config, svc *booking.Service) error {
				res, err := svc.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printReservation(res)
				return nil
			})
		},
	}
	return c
}

func newReservationDeleteCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "delete <reservation-id>",
		Short: "Delete a reservation (checked-in guests must check out first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(cfg config.Config, svc *booking.Service) error {
				if err := svc.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "deleted reservation %s\n", args[0])
				return nil
			})
		},
	}
	return c
}

func newReservationCheckInCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "checkin <reservation-id>",
		Short: "Check a guest in and assign a room (arrival date only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(cfg config.Config, svc *booking.Service) error {
				room, err := svc.CheckIn(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "checked in %s, room %d\n", args[0], room)
				return nil
			})
		},
	}
	return c
}

func newReservationCheckOutCmd() *cobra.Command {
	var room int

	c := &cobra.Command{
		Use:   "checkout",
		Short: "Check the guest in a room out and print the final bill",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(cfg config.Config, svc *booking.Service) error {
				out, err := svc.CheckOut(cmd.Context(), room)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "checked out %s from room %d, final bill %s\n",
					out.Reservation.ID, room, catalog.FormatMoney(out.TotalCents))
				return nil
			})
		},
	}

	c.Flags().IntVar(&room, "room", 0, "room number")
	_ = c.MarkFlagRequired("room")
	return c
}

func printReservation(res reservation.Reservation) {
	fmt.Fprintf(os.Stdout, "id=%s guest=%q type=%s rate=%s arrival=%s nights=%d status=%s",
		res.ID, res.GuestName, res.RoomType, catalog.FormatMoney(res.RateCents),
		res.ArrivalDate.Format(time.DateOnly), res.Nights, res.Status)
	if res.RoomNumber != nil {
		fmt.Fprintf(os.Stdout, " room=%d", *res.RoomNumber)
	}
	fmt.Fprintln(os.Stdout)
}
