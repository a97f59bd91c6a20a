// Command main runs the database seeder for Atelier.
package main

import (
	"flag"
	"log"

	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/seed"
)

func main() {
	numCustomers := flag.Int("customers", 25, "Number of customer accounts to create")
	numOrders := flag.Int("orders", 80, "Number of orders to create")
	numMessages := flag.Int("messages", 15, "Number of contact messages to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d customers, %d orders, %d messages, clean=%v\n",
		*numCustomers, *numOrders, *numMessages, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(database.DB)
	if err := s.Run(seed.Options{
		NumCustomers: *numCustomers,
		NumOrders:    *numOrders,
		NumMessages:  *numMessages,
		ShouldClean:  *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done. Demo accounts use the password: password123")
}
