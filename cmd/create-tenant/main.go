package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"rivo_booking_go/config"
	"rivo_booking_go/db"
	"rivo_booking_go/models"
	"rivo_booking_go/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&models.Tenant{},
		&models.Category{},
		&models.Service{},
		&models.Availability{},
		&models.AvailabilityException{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Tenant ===")
	fmt.Println()

	name := prompt(reader, "Business name: ")
	if name == "" {
		log.Fatal("Business name is required")
	}

	subdomain := prompt(reader, "Subdomain (leave empty to derive from name): ")
	if subdomain != "" && !models.IsValidSubdomain(subdomain) {
		log.Fatal("Subdomain must be 3-63 lowercase alphanumeric characters or hyphens, not reserved")
	}

	timezone := prompt(reader, "Timezone [UTC]: ")
	if timezone == "" {
		timezone = "UTC"
	}

	currency := strings.ToUpper(prompt(reader, "Currency [EUR]: "))
	if currency == "" {
		currency = "EUR"
	}

	tenant := &models.Tenant{
		Name:      name,
		Subdomain: subdomain,
		Timezone:  timezone,
		Currency:  currency,
		Status:    models.TenantStatusActive,
	}
	if err := services.CreateTenant(db.DB, tenant); err != nil {
		log.Fatalf("Failed to create tenant: %v", err)
	}
	fmt.Printf("\nTenant created: %s (subdomain: %s)\n", tenant.ID, tenant.Subdomain)

	// Seed the default Mon-Fri weekly template
	if err := services.CreateDefaultAvailability(db.DB, tenant.ID); err != nil {
		log.Fatalf("Failed to seed availability: %v", err)
	}
	fmt.Println("Default weekly availability seeded (Mon-Fri 09:00-13:00, 14:00-18:00)")

	// Optionally seed a first service
	svcName := prompt(reader, "\nFirst service name (leave empty to skip): ")
	if svcName == "" {
		fmt.Println("\nDone.")
		return
	}

	duration := promptInt(reader, "Duration in minutes [30]: ", 30)
	price := promptInt(reader, "Price in minor units (cents) [0]: ", 0)
	capacity := promptInt(reader, "Max simultaneous bookings [1]: ", 1)

	category := &models.Category{
		TenantID: tenant.ID,
		Name:     "Services",
	}
	if err := db.DB.Create(category).Error; err != nil {
		log.Fatalf("Failed to create category: %v", err)
	}

	service := &models.Service{
		TenantID:                tenant.ID,
		CategoryID:              &category.ID,
		Name:                    svcName,
		DurationMinutes:         duration,
		PriceCents:              price,
		MaxSimultaneousBookings: capacity,
		Enabled:                 true,
	}
	if err := db.DB.Create(service).Error; err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	fmt.Printf("Service created: %s (%d min)\n", service.Name, service.DurationMinutes)
	fmt.Printf("\nDone. Booking page: /book/%s\n", tenant.Subdomain)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}

func promptInt(reader *bufio.Reader, label string, defaultValue int) int {
	value := prompt(reader, label)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid number: %q", value)
	}
	return parsed
}
