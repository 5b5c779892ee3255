// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/taibuivan/livingatlas/internal/core/card"
	"github.com/taibuivan/livingatlas/internal/platform/apperr"
)

// # Fixture

// fixture is the YAML document describing demo users and cards.
type fixture struct {
	Users []fixtureUser `yaml:"users"`
	Cards []fixtureCard `yaml:"cards"`
}

type fixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

type fixtureCard struct {
	Owner        string `yaml:"owner"`
	Title        string `yaml:"title"`
	Category     string `yaml:"category"`
	Latitude     string `yaml:"latitude"`
	Longitude    string `yaml:"longitude"`
	Description  string `yaml:"description"`
	Organization string `yaml:"organization"`
	Funding      string `yaml:"funding"`
	Link         string `yaml:"link"`
	Tags         string `yaml:"tags"`
}

// loadFixture reads and checks a fixture file.
func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read fixture: %w", err)
	}

	var document fixture
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("seed: parse fixture: %w", err)
	}

	owners := make(map[string]fixtureUser, len(document.Users))
	for _, user := range document.Users {
		if user.Username == "" || user.Email == "" || user.Password == "" {
			return nil, fmt.Errorf("seed: user %q needs username, email and password", user.Username)
		}
		owners[user.Username] = user
	}

	for _, entry := range document.Cards {
		if _, ok := owners[entry.Owner]; !ok {
			return nil, fmt.Errorf("seed: card %q has unknown owner %q", entry.Title, entry.Owner)
		}
	}

	return &document, nil
}

// # Apply

// seedUser is a user row ready for insertion.
type seedUser struct {
	Username       string
	Email          string
	HashedPassword string
	Admin          bool
}

// userStore inserts users, skipping emails that already exist.
type userStore interface {
	InsertUser(context context.Context, user seedUser) (bool, error)
}

// cardSubmitter is the card writer entry point.
type cardSubmitter interface {
	Submit(context context.Context, submission card.Submission) (*card.Result, error)
}

// summary counts what a run wrote.
type summary struct {
	UsersCreated int
	CardsCreated int
	CardsSkipped int
}

/*
apply inserts every user, then submits every card through the card writer.

Description: Re-running is safe. Existing emails are skipped by the store and
duplicate card titles come back as CONFLICT, which counts as skipped.
*/
func apply(context context.Context, document *fixture, users userStore, cards cardSubmitter, logger *slog.Logger) (summary, error) {
	var result summary
	names := make(map[string]fixtureUser, len(document.Users))

	for _, user := range document.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return result, fmt.Errorf("seed: hash password for %s: %w", user.Username, err)
		}

		created, err := users.InsertUser(context, seedUser{
			Username:       user.Username,
			Email:          user.Email,
			HashedPassword: string(hash),
			Admin:          user.Admin,
		})
		if err != nil {
			return result, fmt.Errorf("seed: insert user %s: %w", user.Username, err)
		}
		if created {
			result.UsersCreated++
		}
		names[user.Username] = user
	}

	for _, entry := range document.Cards {
		owner := names[entry.Owner]

		_, err := cards.Submit(context, card.Submission{
			Title:        entry.Title,
			Email:        owner.Email,
			Username:     owner.Username,
			Name:         owner.Name,
			Category:     entry.Category,
			Latitude:     entry.Latitude,
			Longitude:    entry.Longitude,
			Description:  entry.Description,
			Organization: entry.Organization,
			Funding:      entry.Funding,
			Link:         entry.Link,
			Tags:         entry.Tags,
		})
		if apperr.HasCode(err, apperr.CodeConflict) {
			result.CardsSkipped++
			logger.Info("seed_card_exists", slog.String("title", entry.Title))
			continue
		}
		if err != nil {
			return result, fmt.Errorf("seed: submit card %q: %w", entry.Title, err)
		}
		result.CardsCreated++
	}

	return result, nil
}
