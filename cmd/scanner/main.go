package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/client"
	"github.com/qrpass/checkin-service/internal/scangate"
)

// scanner is the station-side binary. It reads credentials from stdin
// (one per line, the way USB barcode scanners type), pushes them through
// the duplicate-suppression gate, and prints outcomes plus a running
// attendance tally.
func main() {
	server := flag.String("server", "http://localhost:8080", "check-in API base URL")
	code := flag.String("party", "", "party code shown on the dashboard")
	flag.Parse()

	if *code == "" {
		log.Fatal("-party is required")
	}

	api := client.New(*server)
	ctx := context.Background()

	party, err := api.ResolveParty(ctx, *code)
	if err != nil {
		log.Fatalf("resolve party %q: %v", *code, err)
	}
	fmt.Printf("Scanning for %s — present a QR code.\n", party.Name)

	sink := &terminalSink{}
	notifier := scangate.NewNotifier(sink)
	gate := scangate.NewGate(
		gateClient{api: api, party: party.ID},
		notifier,
		scangate.WithRefresh(func() { printStats(ctx, api, party.ID) }),
	)

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		// A blank line is a decode failure from the reader; the gate
		// drops it without disturbing the display.
		gate.Observe(ctx, in.Text())
	}
	if err := in.Err(); err != nil {
		log.Printf("stdin: %v", err)
	}
	gate.Stop()
	gate.Wait()
}

// gateClient adapts the API client to the gate's narrower interface,
// pinning the party every credential is checked against.
type gateClient struct {
	api   *client.Client
	party uuid.UUID
}

func (g gateClient) CheckIn(ctx context.Context, credential string) (scangate.Result, error) {
	resp, err := g.api.CheckIn(ctx, g.party, credential)
	if err != nil {
		return scangate.Result{}, err
	}
	return scangate.Result{
		GuestName:  resp.Name,
		IsNewEntry: resp.IsNewEntry,
		Message:    resp.Message,
	}, nil
}

func printStats(ctx context.Context, api *client.Client, party uuid.UUID) {
	stats, err := api.Stats(ctx, party)
	if err != nil {
		return
	}
	fmt.Printf("  present %d/%d (%.1f%%)\n", stats.EnteredCount, stats.TotalInvited, stats.PercentageEntered)
}

// terminalSink prints notifications one per line. Clear is a no-op: a
// scrolled line cannot be taken back, which is fine for a log-style
// station display.
type terminalSink struct{}

func (terminalSink) Show(kind scangate.Kind, icon, message string) {
	fmt.Printf("%s %s\n", icon, message)
}

func (terminalSink) Clear() {}
