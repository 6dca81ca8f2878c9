// Command create-admin provisions an admin profile and prints an access token
// for it, so a fresh deployment can be administered before the identity
// provider is wired up.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/config"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
)

func main() {
	cfg := config.Load()
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is not set")
	}
	auth.SecretKey = cfg.SecretKey

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Enter email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		fmt.Println("Email is required.")
		os.Exit(1)
	}

	fmt.Print("Enter full name: ")
	fullName, _ := reader.ReadString('\n')
	fullName = strings.TrimSpace(fullName)

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() { _ = db.Close() }()

	admin := model.Profile{}
	err = db.Where("email = ?", email).First(&admin).Error
	switch {
	case err == nil:
		if admin.Role == model.RoleAdmin {
			fmt.Println("Profile is already an admin.")
		} else if err := db.Model(&admin).Update("role", model.RoleAdmin).Error; err != nil {
			log.Fatalf("failed to promote profile: %v", err)
		}
	case database.IsNotFound(err):
		admin = model.Profile{Email: email, FullName: fullName, Role: model.RoleAdmin}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("failed to create admin: %v", err)
		}
	default:
		log.Fatalf("failed to look up profile: %v", err)
	}

	token, err := auth.GenerateToken(admin.ID)
	if err != nil {
		log.Fatalf("failed to sign access token: %v", err)
	}

	fmt.Println("Admin profile ready!")
	fmt.Println("======================================")
	fmt.Printf("ID:           %s\n", admin.ID)
	fmt.Printf("Email:        %s\n", admin.Email)
	fmt.Printf("Access token: %s\n", token)
	fmt.Printf("Expires in:   %s\n", auth.AccessTokenTTL)
	fmt.Println("======================================")
}
