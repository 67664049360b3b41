package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"studybot/internal/api"
	"studybot/internal/config"
	"studybot/internal/ingest"
	"studybot/internal/providers"
	"studybot/internal/rag"
	"studybot/internal/storage"
	"studybot/internal/vector"
)

func main() {
	_ = godotenv.Load(".env")
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	embedder, err := providers.NewEmbedder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build embedder")
	}
	generator, err := providers.NewGenerator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build generator")
	}
	store, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build vector store")
	}

	var docRepo *storage.DocumentRepo
	var questionRepo *storage.QuestionRepo
	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err := storage.NewDB(ctx, cfg.PostgresURL)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		defer db.Close()
		docRepo = storage.NewDocumentRepo(db)
		questionRepo = storage.NewQuestionRepo(db)
	}

	ing := ingest.New(cfg, embedder, store, log)
	answers := rag.New(cfg, embedder, generator, store, log)
	srv := api.NewServer(cfg, ing, answers, store, docRepo, questionRepo, log)

	log.Info().
		Str("addr", cfg.APIAddr).
		Str("mode", cfg.Mode).
		Str("vector_store", cfg.VectorStore).
		Str("embed_provider", cfg.EmbedProvider).
		Bool("history", cfg.PostgresURL != "").
		Msg("studybot api listening")
	if err := http.ListenAndServe(cfg.APIAddr, srv.Routes()); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}

func buildStore(cfg config.Config) (vector.Store, error) {
	switch cfg.VectorStore {
	case "pinecone":
		return vector.NewPinecone(vector.PineconeConfig{
			APIKey:    cfg.VectorStoreAPIKey,
			IndexHost: cfg.IndexHost,
			IndexName: cfg.IndexName,
			Region:    cfg.VectorStoreRegion,
		}), nil
	case "memory":
		return vector.NewMemory(cfg.EmbedDim), nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}
