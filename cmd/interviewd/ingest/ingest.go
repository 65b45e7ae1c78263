// Package ingestcmder provides the one-shot knowledge ingestion command.
package ingestcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/config"
	embeddingutils "github.com/talentwire/interviewd/pkg/embeddings/utils"
	"github.com/talentwire/interviewd/pkg/ingest"
	"github.com/talentwire/interviewd/pkg/knowledge"
	"github.com/talentwire/interviewd/pkg/logger"
	vectorutils "github.com/talentwire/interviewd/pkg/vector/utils"
)

type ingestCommander struct {
	dir   string
	debug bool

	cfg    *config.Config
	logger *zap.Logger
}

const ingestLongDesc string = `Index a knowledge directory into the vector store and exit.

Every supported file (.pdf, .txt, .md) is extracted, chunked, embedded and
written to the configured vector store. The command blocks until all files
are indexed, so it can run before the server or from a cron job.`

const ingestShortDesc string = "Index a knowledge directory"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			v, err := config.InitViper(configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cmder.cfg = cfg
			cmder.dir = cfg.Knowledge.Dir
			if len(args) == 1 {
				cmder.dir = args[0]
			}
			if cmder.dir == "" {
				return fmt.Errorf("no knowledge directory given and none configured")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	return cmd
}

func (c *ingestCommander) run() error {
	cfg := c.cfg
	c.logger = logger.NewLogger(c.debug || cfg.Debug)
	defer c.logger.Sync()

	ctx := context.Background()

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Host:         cfg.VectorStore.Host,
		Port:         cfg.VectorStore.Port,
		DBPath:       cfg.VectorStore.Path,
		Collection:   cfg.VectorStore.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer driver.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		APIKey:       os.Getenv(cfg.Embedding.APIKeyEnv),
		Model:        cfg.Embedding.Model,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	loader := knowledge.NewLoader(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap, c.logger)
	sources, err := loader.LoadDir(c.dir)
	if err != nil {
		return fmt.Errorf("loading knowledge dir: %w", err)
	}
	if len(sources) == 0 {
		c.logger.Warn("no indexable files found", zap.String("dir", c.dir))
		return nil
	}

	pool, err := ingest.NewPool(&ingest.Config{
		VectorDriver: driver,
		Embedder:     embedder,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating ingest pool: %w", err)
	}

	for _, src := range sources {
		pool.Enqueue(ingest.Job{Source: src})
	}

	// Close drains the queue before returning.
	pool.Close()

	c.logger.Info("knowledge ingestion complete",
		zap.String("dir", c.dir),
		zap.Int("sources", len(sources)),
	)
	return nil
}
