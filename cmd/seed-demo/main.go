package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/knighthoot/backend/internal/config"
	"github.com/knighthoot/backend/internal/database"
	"github.com/knighthoot/backend/internal/logger"
	"github.com/knighthoot/backend/internal/model"
	"github.com/knighthoot/backend/internal/repository"
)

// Seeds one teacher, a classroom of students, and a ready-to-host quiz so a
// fresh install has something to play with.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	testRepo := repository.NewTestRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte("knighthoot"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	fmt.Println("=== Seeding Demo Data ===")

	teacher := &model.User{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleTeacher,
	}
	if err := seedUser(ctx, userRepo, teacher); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed teacher")
	}
	fmt.Printf("Teacher '%s' ready (ID %d)\n", teacher.Username, teacher.ID)

	studentNames := []string{
		"Grace Hopper", "Alan Turing", "Katherine Johnson", "Edsger Dijkstra",
		"Barbara Liskov", "Donald Knuth", "Radia Perlman", "John Carmack",
		"Frances Allen", "Dennis Ritchie",
	}
	for _, name := range studentNames {
		parts := strings.SplitN(name, " ", 2)
		username := strings.ToLower(parts[0])
		student := &model.User{
			FirstName:    parts[0],
			LastName:     parts[1],
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: string(hash),
			Role:         model.RoleStudent,
		}
		if err := seedUser(ctx, userRepo, student); err != nil {
			log.Fatal().Err(err).Str("username", username).Msg("Failed to seed student")
		}
	}
	fmt.Printf("%d students ready (password: knighthoot)\n", len(studentNames))

	demo := &model.Test{
		ID:        "DEMO01",
		TeacherID: teacher.ID,
		Title:     "Computing History Warmup",
		Questions: []model.Question{
			{
				Prompt: "Who wrote the first published computer program?",
				Options: []model.Option{
					{Text: "Ada Lovelace"}, {Text: "Charles Babbage"},
					{Text: "Alan Turing"}, {Text: "Grace Hopper"},
				},
				Answer: 0,
			},
			{
				Prompt: "Which machine did the Bombe help decrypt?",
				Options: []model.Option{
					{Text: "Colossus"}, {Text: "Enigma"},
				},
				Answer: 1,
			},
			{
				Prompt: "COBOL owes most to which pioneer?",
				Options: []model.Option{
					{Text: "Grace Hopper"}, {Text: "John von Neumann"},
					{Text: "Claude Shannon"}, {Text: "Tim Berners-Lee"},
				},
				Answer: 0,
			},
		},
	}
	if _, err := testRepo.GetByID(ctx, demo.ID); err == nil {
		fmt.Printf("Test '%s' already present, skipping\n", demo.ID)
	} else {
		if err := testRepo.Create(ctx, demo); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed test")
		}
		fmt.Printf("Test '%s' created with %d questions\n", demo.ID, len(demo.Questions))
	}

	fmt.Println("Done.")
}

func seedUser(ctx context.Context, repo *repository.UserRepository, u *model.User) error {
	exists, err := repo.ExistsByUsernameOrEmail(ctx, u.Role, u.Username, u.Email)
	if err != nil {
		return err
	}
	if exists {
		existing, err := repo.GetByUsername(ctx, u.Role, u.Username)
		if err != nil {
			return err
		}
		u.ID = existing.ID
		return nil
	}
	return repo.Create(ctx, u)
}
