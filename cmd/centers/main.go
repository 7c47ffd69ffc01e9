package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/donr-app/go-services/internal/center"
	"github.com/donr-app/go-services/internal/database"
	"github.com/donr-app/go-services/internal/httpapi"
)

// Standalone read-mostly centers directory. Runs without authentication so
// the public site can list drop-off locations; creation goes through the
// main API.
func main() {
	port := os.Getenv("CENTERS_SERVICE_PORT")
	if port == "" {
		port = "5020"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Prefer the Mongo-backed repository when MONGODB_URI is provided.
	var repo center.Repository
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI != "" {
		client, err := database.ConnectMongo(context.Background(), mongoURI, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v) — using memory-backed repo", err)
			repo = center.NewMemoryRepository()
		} else {
			repo = center.NewMongoRepository(client.Database(os.Getenv("MONGODB_DATABASE")))
		}
	} else {
		repo = center.NewMemoryRepository()
	}

	svc := center.NewService(repo)
	r.GET("/centers", func(c *gin.Context) {
		out, err := svc.List(c.Request.Context())
		if err != nil {
			httpapi.Fail(c, err)
			return
		}
		httpapi.OK(c, http.StatusOK, out)
	})

	log.Printf("centers service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
