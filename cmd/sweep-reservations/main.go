package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rivo_booking_go/config"
	"rivo_booking_go/db"
	"rivo_booking_go/models"
	"rivo_booking_go/services"

	"github.com/robfig/cron/v3"
)

// The sweeper deletes expired reservation holds on a fixed cadence. Expired
// holds are already invisible to every capacity count, so a missed run only
// costs table space.
func main() {
	cfg := config.Load()

	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("[SWEEP] Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.Reservation{}); err != nil {
		log.Fatalf("[SWEEP] Failed to run migrations: %v", err)
	}

	interval := cfg.SweepIntervalMinutes
	if interval < 1 {
		interval = 1
	}

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %dm", interval), sweep)
	if err != nil {
		log.Fatalf("[SWEEP] Failed to schedule sweep: %v", err)
	}

	// Run once immediately so a restart never leaves a backlog waiting a full
	// interval
	sweep()

	log.Printf("[SWEEP] Sweeper started (interval: %dm)", interval)
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[SWEEP] Shutting down")
	<-c.Stop().Done()
}

func sweep() {
	deleted, err := services.CleanupExpiredReservations(db.DB)
	if err != nil {
		log.Printf("[SWEEP] Cleanup failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[SWEEP] Deleted %d expired reservations", deleted)
	}

	health, err := services.GetReservationHealth(db.DB)
	if err != nil {
		log.Printf("[SWEEP] Health probe failed: %v", err)
		return
	}
	if health.Expired > 100 {
		log.Printf("[SWEEP] WARNING: %d expired holds remain, sweeper is lagging", health.Expired)
	}
	if health.OldestLiveAge > services.MaxReservationTTL {
		log.Printf("[SWEEP] WARNING: oldest live hold is %v old", health.OldestLiveAge)
	}
}
