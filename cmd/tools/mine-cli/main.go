package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/annel0/unlimited-mining/internal/eventbus"
	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/vec"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		natsURL    = flag.String("nats", defaultNatsURL, "NATS server URL")
		stream     = flag.String("stream", "MINING", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, interact, leave, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		players    = flag.String("players", "", "Player IDs filter (comma-separated)")
		player     = flag.String("player", "", "Player ID for interact/leave")
		pos        = flag.String("pos", "0,0,0", "World position x,y,z for interact")
		tag        = flag.String("tag", "um:voxel", "Interaction tag")
		brick      = flag.String("brick", "20x Micro-Brick Cube", "Brick name for interact")
		limit      = flag.Int("limit", 0, "Stop after N events (0 - unlimited)")
		replay     = flag.Bool("replay", false, "Tail from the beginning of the stream")
	)
	flag.Parse()

	if *command == "types" {
		for _, t := range eventbus.AllTypes {
			fmt.Printf("  %s -> %s\n", t, eventbus.Subject(t))
		}
		return
	}

	bus, err := eventbus.NewJetStreamBus(eventbus.JetStreamConfig{
		URL:    *natsURL,
		Stream: *stream,
		Replay: *replay,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch *command {
	case "tail":
		if err := tailEvents(ctx, bus, parseStringList(*eventTypes), parseStringList(*players), *limit); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "interact":
		p, err := parsePosition(*pos)
		if err != nil {
			log.Fatalf("❌ Bad position: %v", err)
		}
		if *player == "" {
			log.Fatalf("❌ -player is required")
		}
		in := host.Interaction{PlayerID: *player, PlayerName: *player, Position: p, BrickName: *brick, Tag: *tag}
		if err := host.PublishInteraction(ctx, bus, in); err != nil {
			log.Fatalf("❌ Publish failed: %v", err)
		}
		fmt.Printf("✅ Interaction sent: %s at %s (%s)\n", *player, p, *tag)

	case "leave":
		if *player == "" {
			log.Fatalf("❌ -player is required")
		}
		if err := host.PublishLeave(ctx, bus, *player); err != nil {
			log.Fatalf("❌ Publish failed: %v", err)
		}
		fmt.Printf("✅ Leave sent: %s\n", *player)

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		flag.Usage()
		os.Exit(1)
	}
}

func tailEvents(ctx context.Context, bus eventbus.EventBus, types, players []string, limit int) error {
	fmt.Printf("🎬 Tailing events (types: %v, limit: %d)\n", types, limit)

	done := make(chan struct{})
	count := 0
	events := make(chan *eventbus.Envelope, 64)
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: types}, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case events <- ev:
		case <-done:
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n📊 Total events: %d\n", count)
			return nil
		case ev := <-events:
			if len(players) > 0 && !containsPlayer(ev, players) {
				continue
			}
			printEvent(ev)
			count++
			if limit > 0 && count >= limit {
				fmt.Printf("\n📊 Total events: %d\n", count)
				return nil
			}
		}
	}
}

type playerPayload struct {
	PlayerID string `json:"player_id"`
}

func containsPlayer(ev *eventbus.Envelope, players []string) bool {
	var p playerPayload
	if err := ev.Decode(&p); err != nil || p.PlayerID == "" {
		return false
	}
	for _, id := range players {
		if id == p.PlayerID {
			return true
		}
	}
	return false
}

func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s/%s %s\n",
		ev.Timestamp.UTC().Format(timeFormat),
		ev.Source,
		ev.EventType,
		ev.ID,
	)
	fmt.Printf("  %s\n", string(ev.Payload))
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePosition(s string) (vec.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var xyz [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return vec.Vec3{}, err
		}
		xyz[i] = n
	}
	return vec.FromArray(xyz), nil
}
