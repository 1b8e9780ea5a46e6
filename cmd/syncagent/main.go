package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/config"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/syncclient"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// syncagent is the desktop-side companion process: it keeps the local
// sqlite catalog fresh and pushes sales queued while offline.

func newServerFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "server",
		Usage:   "Sync server base URL",
		EnvVars: []string{"SYNC_SERVER_URL"},
	}
}

func newDBFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db",
		Usage:   "Path to the local sqlite database",
		EnvVars: []string{"SYNC_LOCAL_DB"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "syncagent",
		Usage: "Synchronize a desktop pharmacy terminal with the cloud server",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Run sync cycles: push queued offline writes, then pull the change feed",
				Flags: []cli.Flag{
					newServerFlag(),
					newDBFlag(),
					&cli.Int64Flag{
						Name:    "branch",
						Usage:   "Branch ID this terminal belongs to",
						EnvVars: []string{"SYNC_BRANCH_ID"},
					},
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single cycle and exit",
					},
				},
				Action: runSync,
			},
			{
				Name:   "status",
				Usage:  "Show the local cursor and pending queue depth",
				Flags:  []cli.Flag{newDBFlag()},
				Action: runStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openStore(c *cli.Context, cfg *config.Config) (*syncclient.LocalStore, error) {
	path := c.String("db")
	if path == "" {
		path = cfg.Sync.LocalDB
	}
	return syncclient.OpenLocalStore(path)
}

// deviceID returns this terminal's stable identity, minting one on first
// run so uploads from different terminals are distinguishable server-side.
func deviceID(ctx context.Context, store *syncclient.LocalStore) (string, error) {
	id, ok, err := store.State(ctx, "device_id")
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}
	id = uuid.NewString()
	if err := store.SetState(ctx, "device_id", id); err != nil {
		return "", err
	}
	return id, nil
}

func runSync(c *cli.Context) error {
	cfg := config.Load()

	store, err := openStore(c, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := deviceID(c.Context, store)
	if err != nil {
		return fmt.Errorf("device identity: %w", err)
	}

	serverURL := c.String("server")
	if serverURL == "" {
		serverURL = cfg.Sync.ServerURL
	}

	client := syncclient.NewClient(serverURL, cfg.Sync.DeviceKey, id, c.Int64("branch"), store)

	if c.Bool("once") {
		return client.Run(c.Context)
	}

	interval := time.Duration(cfg.Sync.IntervalSec) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("syncing every %s (device %s)", interval, id)
	for {
		if err := client.Run(ctx); err != nil {
			log.Printf("sync cycle failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runStatus(c *cli.Context) error {
	cfg := config.Load()

	store, err := openStore(c, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	cursor, err := store.Cursor(c.Context)
	if err != nil {
		return err
	}
	sales, customers, err := store.PendingCounts(c.Context)
	if err != nil {
		return err
	}

	if cursor.IsZero() {
		fmt.Println("cursor: never synced")
	} else {
		fmt.Printf("cursor: %s\n", cursor.Format(time.RFC3339))
	}
	fmt.Printf("pending sales: %d\n", sales)
	fmt.Printf("pending customers: %d\n", customers)
	return nil
}
