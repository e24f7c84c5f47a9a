package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pasar/internal/handlers"
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/internal/session"
	"pasar/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("SESSION_SECRET", session.DefaultSecret)
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	sessionSecret := viper.GetString("SESSION_SECRET")
	if sessionSecret == session.DefaultSecret {
		log.Println("WARNING: SESSION_SECRET is unset; running with the development default")
	}

	// --- Database ---
	db, err := openDatabase(viper.GetString("DATABASE_DSN"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if viper.GetBool("SEED_DEMO_DATA") {
		seedDemoData(db, sessionSecret)
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, order events disabled: %v", err)
			mqClient = nil
		} else {
			defer mqClient.Close()
		}
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, sessionSecret)
	productService := services.NewProductService(productRepo, userRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, mqClient)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	requireSession := middleware.RequireSession(authService)
	authHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app, requireSession)
	orderHandler.RegisterRoutes(app, requireSession)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Order event consumer ---
	if mqClient != nil {
		log.Println("Starting RabbitMQ consumer for order events...")
		err := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Printf("Received order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		})
		if err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase picks Postgres when a DSN is configured, falling back to
// a local SQLite file for development.
func openDatabase(dsn string) (*gorm.DB, error) {
	if dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open("pasar.db"), &gorm.Config{})
}

// seedDemoData populates an empty database with a demo seller and a few
// products for local runs.
func seedDemoData(db *gorm.DB, sessionSecret string) {
	userRepo := repositories.NewGORMUserRepository(db)
	authService := services.NewAuthService(userRepo, sessionSecret)

	seller, err := authService.Register(services.RegisterInput{
		Username: "demo_seller",
		Email:    "seller@example.com",
		Password: "password123",
		Role:     models.RoleSeller,
	})
	if err != nil {
		log.Printf("Skipping demo seed: %v", err)
		return
	}

	describe := func(s string) *string { return &s }
	products := []models.Product{
		{Name: "Wireless Headphones", Price: 99.99, Stock: 25, SellerID: seller.ID, Description: describe("Noise-canceling over-ear headphones")},
		{Name: "Mechanical Keyboard", Price: 75.00, Stock: 40, SellerID: seller.ID, Description: describe("Hot-swappable tenkeyless board")},
		{Name: "Ceramic Plant Pot", Price: 25.50, Stock: 60, SellerID: seller.ID, Description: describe("White ceramic pot with drainage")},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %d)", products[i].Name, products[i].ID)
		}
	}
}
