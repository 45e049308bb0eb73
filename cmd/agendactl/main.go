// Command agendactl evaluates availability against snapshot files, queries a
// running availability service and seeds snapshots into Mongo.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"agenda/internal/availability/engine"
	"agenda/internal/availability/repository"
	"agenda/pkg/client"
	"agenda/pkg/config"
	"agenda/pkg/logger"
	"agenda/pkg/timewindow"
)

const usage = `usage: agendactl <command> [flags]

commands:
  check          evaluate a proposed booking against a snapshot file
  slots          list available slots of a service from a snapshot file
  remote-slots   list available slots from a running availability service
  seed           upsert a snapshot file into Mongo
`

// exitRejected is returned by check when the proposal cannot proceed.
const exitRejected = 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	log := logger.New(logger.Config{Level: logger.WARN, Format: logger.TEXT, Output: stderr, Service: "agendactl"})

	var err error
	code := 0
	switch args[0] {
	case "check":
		code, err = runCheck(args[1:], stdout, log)
	case "slots":
		err = runSlots(args[1:], stdout, log)
	case "remote-slots":
		err = runRemoteSlots(args[1:], stdout)
	case "seed":
		err = runSeed(args[1:], stdout, log)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 1
	}

	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprint(stdout, usage)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "agendactl %s: %v\n", args[0], err)
		return 1
	}
	return code
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func requireFlags(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if fs.Lookup(name).Value.String() == "" {
			return fmt.Errorf("-%s is required", name)
		}
	}
	return nil
}

func runCheck(args []string, stdout io.Writer, log *logger.Logger) (int, error) {
	fs := newFlagSet("check")
	snapshotPath := fs.String("snapshot", "", "snapshot file")
	serviceID := fs.String("service", "", "service id")
	staffID := fs.String("staff", "", "staff id, empty for an unassigned booking")
	customerID := fs.String("customer", "", "customer id")
	start := fs.String("start", "", "start time, RFC3339")
	end := fs.String("end", "", "end time, RFC3339")
	exclude := fs.String("exclude", "", "booking id to ignore, for reschedules")
	now := fs.String("now", "", "evaluation time, RFC3339 (default: current time)")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if err := requireFlags(fs, "snapshot", "service", "customer", "start", "end"); err != nil {
		return 0, err
	}

	proposal := engine.Proposal{
		ServiceID:        *serviceID,
		StaffID:          *staffID,
		CustomerID:       *customerID,
		ExcludeBookingID: *exclude,
	}
	var err error
	if proposal.Start, err = time.Parse(time.RFC3339, *start); err != nil {
		return 0, fmt.Errorf("-start: %w", err)
	}
	if proposal.End, err = time.Parse(time.RFC3339, *end); err != nil {
		return 0, fmt.Errorf("-end: %w", err)
	}
	evaluatedAt := time.Now()
	if *now != "" {
		if evaluatedAt, err = time.Parse(time.RFC3339, *now); err != nil {
			return 0, fmt.Errorf("-now: %w", err)
		}
	}

	snap, err := loadEngineSnapshot(*snapshotPath, log)
	if err != nil {
		return 0, err
	}

	result := engine.NewConflictChecker().Check(snap, proposal, evaluatedAt)
	if err := writeJSON(stdout, result); err != nil {
		return 0, err
	}
	if !result.CanProceed {
		return exitRejected, nil
	}
	return 0, nil
}

func runSlots(args []string, stdout io.Writer, log *logger.Logger) error {
	fs := newFlagSet("slots")
	snapshotPath := fs.String("snapshot", "", "snapshot file")
	serviceID := fs.String("service", "", "service id")
	date := fs.String("date", "", "calendar date in the business time zone, YYYY-MM-DD")
	staffID := fs.String("staff", "", "restrict to one staff member")
	granularity := fs.Int("granularity", config.DefaultSlotGranularityMinutes, "minutes between candidate starts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "snapshot", "service", "date"); err != nil {
		return err
	}

	day, err := timewindow.ParseDate(*date, time.UTC)
	if err != nil {
		return fmt.Errorf("-date: %w", err)
	}
	snap, err := loadEngineSnapshot(*snapshotPath, log)
	if err != nil {
		return err
	}

	slots, err := engine.NewAvailability(*granularity).ListAvailableSlots(snap, *serviceID, day, *staffID)
	if err != nil {
		return err
	}
	return writeJSON(stdout, slots)
}

func runRemoteSlots(args []string, stdout io.Writer) error {
	fs := newFlagSet("remote-slots")
	server := fs.String("server", "http://localhost:8080", "availability service base URL")
	businessID := fs.String("business", "", "business id")
	serviceID := fs.String("service", "", "service id")
	date := fs.String("date", "", "calendar date, YYYY-MM-DD")
	staffID := fs.String("staff", "", "restrict to one staff member")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "business", "service", "date"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := client.NewAvailabilityClient(*server).Slots(ctx, *businessID, *serviceID, *date, *staffID)
	if err != nil {
		return err
	}
	return writeJSON(stdout, result)
}

func runSeed(args []string, stdout io.Writer, log *logger.Logger) error {
	fs := newFlagSet("seed")
	snapshotPath := fs.String("snapshot", "", "snapshot file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "snapshot"); err != nil {
		return err
	}

	snap, err := readSnapshot(*snapshotPath, log)
	if err != nil {
		return err
	}
	for i, b := range snap.Bookings {
		if b.ID == "" {
			return fmt.Errorf("bookings[%d] needs an id to be seeded", i)
		}
	}

	cfg := config.Load("agendactl")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	defer cancel()
	if err := repository.NewMongoSnapshotRepository(cfg).SaveSnapshot(ctx, snap); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "seeded business %s: %d staff, %d services, %d customers, %d bookings\n",
		snap.Business.ID, len(snap.Staff), len(snap.Services), len(snap.Customers), len(snap.Bookings))
	return nil
}

func loadEngineSnapshot(path string, log *logger.Logger) (*engine.Snapshot, error) {
	doc, err := readSnapshot(path, log)
	if err != nil {
		return nil, err
	}
	return engine.NewSnapshot(doc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
