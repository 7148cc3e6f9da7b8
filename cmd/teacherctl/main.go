// teacherctl manages teacher accounts from the command line: it creates an
// account or resets a password, prompting for the password without echo.
//
//	teacherctl create <username>
//	teacherctl set-password <username>
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/iliyamo/teacher-portal/internal/auth"
	"github.com/iliyamo/teacher-portal/internal/config"
	"github.com/iliyamo/teacher-portal/internal/database"
	"github.com/iliyamo/teacher-portal/internal/repository"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s create|set-password <username>\n", os.Args[0])
		os.Exit(2)
	}
	command, username := os.Args[1], os.Args[2]

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	teachers := repository.NewTeacherRepo(db)
	creds := auth.NewCredentials(teachers)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	password, err := promptPassword()
	if err != nil {
		log.Fatalf("read password: %v", err)
	}

	switch command {
	case "create":
		salt, err := auth.NewSalt()
		if err != nil {
			log.Fatalf("generate salt: %v", err)
		}
		id, err := teachers.Create(ctx, username, auth.HashPassword(password, salt), salt)
		if err != nil {
			if errors.Is(err, repository.ErrUsernameExists) {
				log.Fatalf("teacher %q already exists", username)
			}
			log.Fatalf("create teacher: %v", err)
		}
		fmt.Printf("created teacher %q (id %d)\n", username, id)

	case "set-password":
		t, err := teachers.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Fatalf("teacher %q does not exist", username)
			}
			log.Fatalf("lookup teacher: %v", err)
		}
		if err := creds.SetPassword(ctx, t.ID, password); err != nil {
			log.Fatalf("set password: %v", err)
		}
		fmt.Printf("password updated for %q\n", username)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		os.Exit(2)
	}
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(b), nil
}
