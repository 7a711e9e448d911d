package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/config"
)

func main() {
	var configPath, migrationsPath, direction string

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config file")
	flag.StringVar(&migrationsPath, "migrations-path", os.Getenv("MIGRATIONS_PATH"), "path to migrations")
	flag.StringVar(&direction, "direction", "up", "up or down")
	flag.Parse()

	if configPath == "" {
		panic("empty config path")
	}
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	m, err := migrate.New("file://"+migrationsPath, cfg.Postgres.URL())
	if err != nil {
		panic(err)
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		panic(fmt.Sprintf("unknown direction %q", direction))
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")
			return
		}
		panic(err)
	}

	fmt.Printf("migrations applied: %s\n", direction)
}
