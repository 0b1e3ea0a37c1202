package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/navan260/dsa-el/core"
	"github.com/navan260/dsa-el/internal/logging"
	"github.com/navan260/dsa-el/internal/nbi"
	"github.com/navan260/dsa-el/internal/nbi/types"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// app is the state shared by every subcommand for one invocation.
type app struct {
	addr    string
	timeout time.Duration
	verbose bool

	log    logging.Logger
	conn   *grpc.ClientConn
	client *nbi.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "parkctl",
		Short:         "parkctl drives a parkd parking facility over gRPC",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.conn == nil {
				return nil
			}
			return a.conn.Close()
		},
	}

	addr := os.Getenv("PARKING_ADDR")
	if addr == "" {
		addr = "localhost:50051"
	}
	root.PersistentFlags().StringVar(&a.addr, "addr", addr, "parkd gRPC address (env PARKING_ADDR)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 5*time.Second, "per-call timeout")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newParkCmd(a),
		newLeaveCmd(a),
		newStatusCmd(a),
		newVehicleCmd(a),
		newConfigureCmd(a),
	)
	return root
}

func (a *app) connect(cmd *cobra.Command) error {
	level := "info"
	if a.verbose {
		level = "debug"
	}
	a.log = logging.New(logging.Config{Level: level, Format: "pretty", Output: cmd.ErrOrStderr()})

	conn, err := grpc.NewClient(a.addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(nbi.RequestIDUnaryClientInterceptor()),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", a.addr, err)
	}
	a.conn = conn
	a.client = nbi.NewClient(conn)
	a.log.Debug(cmd.Context(), "client ready", logging.String("addr", a.addr))
	return nil
}

// callContext tags the call with a fresh request ID so it can be found in
// parkd's logs.
func (a *app) callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, id := logging.EnsureRequestID(cmd.Context())
	a.log.Debug(ctx, "calling parkd", logging.String("request_id", id), logging.String("command", cmd.Name()))
	return context.WithTimeout(ctx, a.timeout)
}

func newParkCmd(a *app) *cobra.Command {
	var class string
	var show bool
	cmd := &cobra.Command{
		Use:   "park VEHICLE_ID",
		Short: "Allocate the nearest free slot to a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			res, err := a.client.Park(ctx, types.ParkRequest{VehicleID: args[0], Class: class})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "%s (%s, distance %d)", res.Message, res.Class, res.Distance)
			printDetail(out, "route %s", formatPath(res.Path))
			if !show {
				return nil
			}
			status, err := a.client.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(out, renderGrid(status, res.Path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&class, "class", "c", "four-wheeler", "vehicle class (four-wheeler, two-wheeler, car, bike, ...)")
	cmd.Flags().BoolVar(&show, "show", false, "draw the facility with the route highlighted")
	return cmd
}

func newLeaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "leave VEHICLE_ID",
		Short: "Free the slot held by a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			res, err := a.client.Leave(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s", res.Message)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	var noGrid bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show occupancy and availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			status, err := a.client.Status(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			title := "facility"
			if status.Name != "" {
				title = status.Name
			}
			fmt.Fprintln(out, styleTitle.Render(title))
			if !noGrid {
				fmt.Fprint(out, renderGrid(status, nil))
			}
			fmt.Fprint(out, renderAvailability(status))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noGrid, "no-grid", false, "print only the availability summary")
	return cmd
}

func newVehicleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vehicle VEHICLE_ID",
		Short: "Look up where a vehicle is parked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			v, err := a.client.Vehicle(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s is in slot %d (%s) since %s",
				v.VehicleID, v.SlotID, v.Class, v.ParkedAt.Local().Format(time.Kitchen))
			return nil
		},
	}
}

func newConfigureCmd(a *app) *cobra.Command {
	var (
		file  string
		rows  string
		name  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Replace the facility layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := types.LayoutRequest{Name: name, Force: force}
			switch {
			case file != "":
				f, err := core.LoadLayoutFile(file)
				if err != nil {
					return err
				}
				req.Rows = f.Rows
				if req.Name == "" {
					req.Name = f.Name
				}
			case rows != "":
				req.Rows = strings.Split(rows, ",")
			default:
				req.Rows = core.DefaultLayoutRows()
			}

			ctx, cancel := a.callContext(cmd)
			defer cancel()

			summary, err := a.client.Configure(ctx, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "configured %dx%d facility with %d nodes", summary.Rows, summary.Cols, summary.Nodes)
			printDetail(out, "entrance %d (%s)", summary.Entrance, summary.EntranceSource)
			if summary.UnreachableSlots > 0 {
				printWarning(out, "%d slots unreachable from the entrance", summary.UnreachableSlots)
			}
			if summary.DiscardedVehicles > 0 {
				printWarning(out, "%d parked vehicles discarded", summary.DiscardedVehicles)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "TOML layout file")
	cmd.Flags().StringVar(&rows, "rows", "", "comma-separated layout rows, e.g. SBS,ERR")
	cmd.Flags().StringVar(&name, "name", "", "layout name")
	cmd.Flags().BoolVar(&force, "force", false, "discard parked vehicles")
	return cmd
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleSuccess.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleWarn.Render("!")+" "+fmt.Sprintf(format, args...))
}

func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

func formatPath(path []int64) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " → ")
}
