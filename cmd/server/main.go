package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/orientwatch/backend/internal/api"
	"github.com/orientwatch/backend/internal/config"
	"github.com/orientwatch/backend/internal/domain"
	"github.com/orientwatch/backend/internal/notify"
	"github.com/orientwatch/backend/internal/payme"
	"github.com/orientwatch/backend/internal/repository"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	log.Info().Str("path", cfg.DBPath).Msg("initializing database")
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("init db")
	}
	defer db.Close()

	// Repositories.
	productRepo := repository.NewProductRepo(db)
	collectionRepo := repository.NewCollectionRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	contentRepo := repository.NewContentRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)
	txnRepo := repository.NewTransactionRepo(db)

	// Telegram notifications, fire-and-forget.
	telegram := notify.NewTelegram(settingsRepo, cfg.TelegramAPIBase, log)
	defer telegram.Close()

	// Payment state machine behind the callback dispatcher.
	paymeSvc := payme.NewService(txnRepo, orderRepo, telegram, cfg.AmountTolerance, log)
	dispatcher := payme.NewDispatcher(paymeSvc, payme.Credentials{
		MerchantID:   cfg.PaymeMerchantID,
		Key:          cfg.PaymeKey,
		SandboxLogin: cfg.PaymeSandboxLogin,
	}, log)

	// Seed the catalog if the DB is empty.
	count, err := productRepo.Count()
	if err != nil {
		log.Fatal().Err(err).Msg("count products")
	}
	if count == 0 {
		log.Info().Msg("database is empty, seeding catalog from testdata")
		if err := seedCatalog(productRepo, collectionRepo, log); err != nil {
			log.Warn().Err(err).Msg("seed catalog")
		}
	} else {
		log.Info().Int("products", count).Msg("database already seeded")
	}

	router := api.NewRouter(cfg, api.Deps{
		Products:    productRepo,
		Collections: collectionRepo,
		Orders:      orderRepo,
		Bookings:    bookingRepo,
		Content:     contentRepo,
		Settings:    settingsRepo,
		Txns:        txnRepo,
		Payme:       dispatcher,
		Notifier:    telegram,
		Log:         log,
	})

	log.Info().Str("port", cfg.Port).Msg("orient watch backend listening")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

type seedFile struct {
	Collections []domain.Collection `json:"collections"`
	Products    []domain.Product    `json:"products"`
}

func seedCatalog(products *repository.ProductRepo, collections *repository.CollectionRepo, log zerolog.Logger) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		"testdata/catalog.json",
		filepath.Join(".", "testdata", "catalog.json"),
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "catalog.json"),
			filepath.Join(dir, "..", "..", "testdata", "catalog.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Info().Str("path", path).Msg("loaded catalog seed")
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find catalog.json in any candidate path: %w", loadErr)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("unmarshal catalog: %w", err)
	}

	for i := range seed.Collections {
		if err := collections.Upsert(&seed.Collections[i]); err != nil {
			return fmt.Errorf("seed collection %s: %w", seed.Collections[i].ID, err)
		}
	}
	for i := range seed.Products {
		if err := products.Insert(&seed.Products[i]); err != nil {
			return fmt.Errorf("seed product %q: %w", seed.Products[i].Name, err)
		}
	}

	log.Info().
		Int("collections", len(seed.Collections)).
		Int("products", len(seed.Products)).
		Msg("catalog seeded")
	return nil
}
