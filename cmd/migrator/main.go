package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	goose "github.com/pressly/goose/v3"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/config"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/storage/postgresql"
	"github.com/Alexandr-Snisarenko/dynamic-routing/migrations"
)

// команды goose, которые принимает мигратор
var commands = map[string]bool{
	"up": true, "up-by-one": true, "up-to": true, "down": true, "down-to": true,
	"redo": true, "reset": true, "status": true, "version": true, "create": true, "fix": true,
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Migrate - утилита для управления миграциями БД сервиса Dynamic Routing (на основе goose)\n\n"+
				"вызов: migrator -config=<config file name> [-dir=<migration dir>] <command> [args]\n\n"+
				"Без -dir используются миграции, встроенные в бинарник.\n\n"+
				"Примеры:\n"+
				"  migrator -config=config.yaml up\n"+
				"  migrator -config=config.yaml up-to 1\n"+
				"  migrator -dir=./migrations create add_profiles sql\n\n"+
				"Доступные флаги:\n")
		flag.PrintDefaults()
	}
}

func main() {
	var configFile, migrationsDir string

	flag.StringVar(&configFile, "config", "config.yaml", "path to config file")
	flag.StringVar(&migrationsDir, "dir", "", "path to migrations dir (embedded migrations when empty)")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMigration(ctx, configFile, migrationsDir, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	fmt.Println("migration completed successfully")
}

func runMigration(ctx context.Context, configFile, migrationsDir, command string, args []string) error {
	command = strings.ToLower(command)
	if !commands[command] {
		return fmt.Errorf("unknown command: %s", command)
	}

	if migrationsDir == "" {
		if command == "create" || command == "fix" {
			return fmt.Errorf("%s needs -dir: embedded migrations are read-only", command)
		}
		goose.SetBaseFS(migrations.FS)
		migrationsDir = "."
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	// Загружаем конфиг для подключения к БД
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	dbx, err := postgresql.OpenDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("DB open error: %w", err)
	}
	defer dbx.Close()

	if err := goose.RunContext(ctx, command, dbx.DB, migrationsDir, args...); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}
