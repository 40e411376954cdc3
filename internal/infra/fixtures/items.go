// Package fixtures seeds demo items from a YAML file at startup.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"shareit/internal/app/dto"
	itemsapp "shareit/internal/app/handlers/items"
	"shareit/internal/domain/shared/apperr"
)

type Item struct {
	ID               string `yaml:"id"`
	Owner            string `yaml:"owner"`
	Title            string `yaml:"title"`
	Category         string `yaml:"category"`
	City             string `yaml:"city"`
	PricePerDayCents int64  `yaml:"price_per_day_cents"`
	AvailableFrom    string `yaml:"available_from"`
	AvailableTo      string `yaml:"available_to"`
}

type file struct {
	Items []Item `yaml:"items"`
}

// ItemCatalog is the slice of the booking engine seeding needs.
type ItemCatalog interface {
	Item(ctx context.Context, itemID string) (dto.Item, error)
	CreateItem(ctx context.Context, cmd itemsapp.CreateItemCommand) (*dto.Item, error)
}

// Load reads fixtures from path. A missing file yields no items.
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]Item, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return f.Items, nil
}

// Seed creates every fixture that does not exist yet. Invalid fixtures are logged and
// skipped; the number of created items is returned.
func Seed(ctx context.Context, catalog ItemCatalog, items []Item, logger *slog.Logger) (int, error) {
	created := 0
	for _, fx := range items {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if fx.ID != "" {
			_, err := catalog.Item(ctx, fx.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, apperr.ErrNotFound) {
				return created, err
			}
		}
		_, err := catalog.CreateItem(ctx, itemsapp.CreateItemCommand{
			ItemID:   fx.ID,
			OwnerUID: fx.Owner,
			Payload: itemsapp.ItemPayload{
				Title:            fx.Title,
				Category:         fx.Category,
				City:             fx.City,
				PricePerDayCents: fx.PricePerDayCents,
				AvailableFrom:    fx.AvailableFrom,
				AvailableTo:      fx.AvailableTo,
			},
		})
		if err != nil {
			if logger != nil {
				logger.Error("fixture invalid", "item_id", fx.ID, "error", err)
			}
			continue
		}
		created++
		if logger != nil {
			logger.Info("item fixture imported", "item_id", fx.ID, "owner_uid", fx.Owner)
		}
	}
	return created, nil
}
