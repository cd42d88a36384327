package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedData holds the reference entities loaded by the seed command.
type SeedData struct {
	Authors    []Author   `yaml:"authors"`
	Categories []Category `yaml:"categories"`
}

// LoadSeedFile reads the seed data from a yaml file.
func LoadSeedFile(seedFile string) (*SeedData, error) {
	file, err := os.Open(seedFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data := &SeedData{}
	if err = yaml.NewDecoder(file).Decode(data); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return data, nil
}

// Seed inserts the authors and categories of data. Entries already
// present with the same name are skipped so reruns do not duplicate them.
func Seed(ctx context.Context, logger *zap.Logger, store CatalogStorage, data *SeedData) error {
	existing, err := store.ListCategories(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[c.Name] = struct{}{}
	}

	for _, c := range data.Categories {
		if _, ok := known[c.Name]; ok {
			continue
		}
		created, err := store.CreateCategory(ctx, Category{Name: c.Name})
		if err != nil {
			return err
		}
		known[c.Name] = struct{}{}
		logger.Info("seed: category created", zap.Int64("category.id", created.ID), zap.String("category.name", created.Name))
	}

	authors, err := store.ListAuthors(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]struct{}, len(authors))
	for _, a := range authors {
		names[a.FullName()] = struct{}{}
	}

	for _, a := range data.Authors {
		if _, ok := names[a.FullName()]; ok {
			continue
		}
		names[a.FullName()] = struct{}{}
		created, err := store.CreateAuthor(ctx, Author{FirstName: a.FirstName, LastName: a.LastName})
		if err != nil {
			return err
		}
		logger.Info("seed: author created", zap.Int64("author.id", created.ID), zap.String("author.name", created.FullName()))
	}
	return nil
}
