// algolia-setup pushes the spend index settings to Algolia.
//
// Usage:
//
//	ALGOLIA_APP_ID=... ALGOLIA_API_KEY=... go run ./scripts/algolia-setup
//	ALGOLIA_APP_ID=... ALGOLIA_API_KEY=... ALGOLIA_INDEX_NAME=credix_spends_dev go run ./scripts/algolia-setup
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/credix-app/credix/backend/internal/config"
	"github.com/credix-app/credix/backend/internal/logger"
	"github.com/credix-app/credix/backend/internal/search"
)

func main() {
	log := logger.NewConsole("info")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.AlgoliaAppID == "" || cfg.AlgoliaAPIKey == "" {
		log.Fatal().Msg("ALGOLIA_APP_ID and ALGOLIA_API_KEY are required")
	}

	client, err := search.NewAlgoliaClient(search.Config{
		AppID:     cfg.AlgoliaAppID,
		APIKey:    cfg.AlgoliaAPIKey,
		IndexName: cfg.AlgoliaIndexName,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Algolia client")
	}

	if err := client.ApplySettings(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to apply index settings")
	}

	settings := search.IndexSettings()
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, "=== Algolia Index Configuration ===")
	fmt.Fprintf(os.Stdout, "Index:              %s\n", cfg.AlgoliaIndexName)
	fmt.Fprintf(os.Stdout, "Searchable attrs:   %s\n", strings.Join(settings.SearchableAttributes, ", "))
	fmt.Fprintf(os.Stdout, "Facets:             %s\n", strings.Join(settings.AttributesForFaceting, ", "))
	fmt.Fprintf(os.Stdout, "Numeric filters:    %s\n", strings.Join(settings.NumericAttributesForFiltering, ", "))
	fmt.Fprintf(os.Stdout, "Custom ranking:     %s\n", strings.Join(settings.CustomRanking, ", "))
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, "Settings are applied asynchronously and become active within seconds.")
}
