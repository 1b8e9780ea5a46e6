package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the database with master data",
		Commands: []*cli.Command{
			{
				Name:  "master",
				Usage: "Seed branches, users, suppliers and the medicine catalog",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing master seed CSVs",
						Value:   "./data/seeds",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Action: runSeeder,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSeeder(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	dataDir := c.String("data-dir")
	log.Println("Starting database seeding...")

	if err := seedBranches(ctx, tx, filepath.Join(dataDir, "branches.csv")); err != nil {
		return fmt.Errorf("failed to seed branches: %w", err)
	}
	if err := seedUsers(ctx, tx, filepath.Join(dataDir, "users.csv")); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if err := seedSuppliers(ctx, tx, filepath.Join(dataDir, "suppliers.csv")); err != nil {
		return fmt.Errorf("failed to seed suppliers: %w", err)
	}
	if err := seedMedicines(ctx, tx, filepath.Join(dataDir, "medicines.csv")); err != nil {
		return fmt.Errorf("failed to seed medicines: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// seedBranches expects columns: code,name,address,phone
func seedBranches(ctx context.Context, tx *sql.Tx, path string) error {
	return seedCSV(ctx, tx, path, 4, `
        INSERT INTO branches (code, name, address, phone)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (code) DO UPDATE SET
            name = EXCLUDED.name,
            address = EXCLUDED.address,
            phone = EXCLUDED.phone,
            updated_at = NOW()`,
		func(record []string) []interface{} {
			return []interface{}{record[0], record[1], record[2], record[3]}
		})
}

// seedUsers expects columns: email,name,role,branch_code
func seedUsers(ctx context.Context, tx *sql.Tx, path string) error {
	return seedCSV(ctx, tx, path, 4, `
        INSERT INTO users (email, name, role, branch_id)
        SELECT $1, $2, $3, b.id FROM branches b WHERE b.code = $4
        ON CONFLICT (email) DO UPDATE SET
            name = EXCLUDED.name,
            role = EXCLUDED.role,
            branch_id = EXCLUDED.branch_id,
            updated_at = NOW()`,
		func(record []string) []interface{} {
			return []interface{}{record[0], record[1], record[2], record[3]}
		})
}

// seedSuppliers expects columns: name,contact,phone,email
func seedSuppliers(ctx context.Context, tx *sql.Tx, path string) error {
	return seedCSV(ctx, tx, path, 4, `
        INSERT INTO suppliers (name, contact, phone, email)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO UPDATE SET
            contact = EXCLUDED.contact,
            phone = EXCLUDED.phone,
            email = EXCLUDED.email,
            updated_at = NOW()`,
		func(record []string) []interface{} {
			return []interface{}{record[0], record[1], record[2], record[3]}
		})
}

// seedMedicines expects columns:
// name,generic_name,batch_number,quantity,reorder_level,unit_price,unit_cost,branch_code,is_controlled,schedule_class
// Re-runs refresh catalog fields but never overwrite live stock quantity.
func seedMedicines(ctx context.Context, tx *sql.Tx, path string) error {
	return seedCSV(ctx, tx, path, 10, `
        INSERT INTO medicines (name, generic_name, batch_number, quantity, reorder_level,
                               unit_price, unit_cost, branch_id, is_controlled, schedule_class)
        SELECT $1, $2, $3, $4, $5, $6, $7, b.id, $8, $9
        FROM branches b WHERE b.code = $10
        ON CONFLICT (branch_id, LOWER(name), batch_number) DO UPDATE SET
            generic_name = EXCLUDED.generic_name,
            reorder_level = EXCLUDED.reorder_level,
            unit_price = EXCLUDED.unit_price,
            unit_cost = EXCLUDED.unit_cost,
            is_controlled = EXCLUDED.is_controlled,
            schedule_class = EXCLUDED.schedule_class,
            updated_at = NOW()`,
		func(record []string) []interface{} {
			quantity, _ := strconv.Atoi(strings.TrimSpace(record[3]))
			reorder, _ := strconv.Atoi(strings.TrimSpace(record[4]))
			controlled := strings.EqualFold(strings.TrimSpace(record[8]), "true")
			return []interface{}{
				record[0], record[1], record[2], quantity, reorder,
				record[5], record[6], controlled, record[9], record[7],
			}
		})
}

func seedCSV(ctx context.Context, tx *sql.Tx, path string, minColumns int, query string, args func(record []string) []interface{}) error {
	log.Printf("Seeding from %s\n", path)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Skipping %s: file not found\n", path)
			return nil
		}
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	rowCount := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) < minColumns {
			return fmt.Errorf("invalid record (expected at least %d columns): %v", minColumns, record)
		}

		if _, err := tx.ExecContext(ctx, query, args(record)...); err != nil {
			return fmt.Errorf("failed to insert record %v: %w", record, err)
		}
		rowCount++
	}

	log.Printf("Seeded %d records from %s\n", rowCount, filepath.Base(path))
	return nil
}
