// Package servecmder provides the serve command running the interview server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/config"
	embeddingutils "github.com/talentwire/interviewd/pkg/embeddings/utils"
	"github.com/talentwire/interviewd/pkg/eventstream"
	"github.com/talentwire/interviewd/pkg/eventstream/kafka"
	"github.com/talentwire/interviewd/pkg/eventstream/nop"
	"github.com/talentwire/interviewd/pkg/ingest"
	"github.com/talentwire/interviewd/pkg/interview"
	"github.com/talentwire/interviewd/pkg/knowledge"
	openaibackend "github.com/talentwire/interviewd/pkg/llm/backend/openai"
	"github.com/talentwire/interviewd/pkg/logger"
	"github.com/talentwire/interviewd/pkg/rag"
	"github.com/talentwire/interviewd/pkg/resume"
	"github.com/talentwire/interviewd/pkg/session"
	vectorutils "github.com/talentwire/interviewd/pkg/vector/utils"
	"github.com/talentwire/interviewd/server"
)

type serveCommander struct {
	listen   string
	upstream string
	model    string
	debug    bool

	cfg    *config.Config
	logger *zap.Logger
}

const serveLongDesc string = `Run the interview server.

The server exposes an OpenAI-compatible streaming chat endpoint and the
interview lifecycle endpoints (setup, clear, evaluation, resume analysis).
If a knowledge directory is configured its files are indexed at startup.`

const serveShortDesc string = "Run the interviewd server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			v, err := config.InitViper(configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = cmder.listen
			}
			if cmd.Flags().Changed("upstream") {
				cfg.Backend.Upstream = cmder.upstream
			}
			if cmd.Flags().Changed("model") {
				cfg.Backend.Model = cmder.model
			}

			cmder.cfg = cfg
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

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", defaults.Server.Listen, "Address for the server to listen on")
	cmd.Flags().StringVarP(&cmder.upstream, "upstream", "u", defaults.Backend.Upstream, "Upstream OpenAI-compatible API root")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", defaults.Backend.Model, "Default generation model")

	return cmd
}

func (c *serveCommander) run() error {
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

	b, err := openaibackend.New(openaibackend.Config{
		BaseURL: cfg.Backend.Upstream,
		APIKey:  os.Getenv(cfg.Backend.APIKeyEnv),
		Model:   cfg.Backend.Model,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating generation backend: %w", err)
	}

	publisher, err := c.createPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := ingest.NewPool(&ingest.Config{
		VectorDriver: driver,
		Embedder:     embedder,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating ingest pool: %w", err)
	}

	if cfg.Knowledge.Dir != "" {
		if err := c.ingestKnowledge(pool); err != nil {
			pool.Close()
			return err
		}
	}

	store := session.NewStore()

	srv, err := server.New(server.Config{
		ListenAddr:        cfg.Server.Listen,
		Model:             cfg.Backend.Model,
		FirstEventTimeout: time.Duration(cfg.Server.FirstEventTimeoutSeconds) * time.Second,
	},
		b,
		store,
		rag.NewEngine(embedder, driver, cfg.RAG.TopK, c.logger),
		interview.NewEvaluator(b, c.logger),
		resume.NewExtractor(b, c.logger),
		publisher,
		c.logger,
	)
	if err != nil {
		pool.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	c.logger.Info("starting interviewd",
		zap.String("listen", cfg.Server.Listen),
		zap.String("upstream", cfg.Backend.Upstream),
		zap.String("model", cfg.Backend.Model),
		zap.String("vector_store", cfg.VectorStore.Provider),
		zap.String("embedding", cfg.Embedding.Provider),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		pool.Close()
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		if err := srv.Close(); err != nil {
			c.logger.Warn("server shutdown failed", zap.Error(err))
		}
		pool.Close()
		return nil
	}
}

func (c *serveCommander) createPublisher() (eventstream.Publisher, error) {
	switch c.cfg.Events.Provider {
	case "kafka":
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.cfg.Events.Brokers,
			Topic:   c.cfg.Events.Topic,
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing turn events to kafka",
			zap.Strings("brokers", c.cfg.Events.Brokers),
			zap.String("topic", c.cfg.Events.Topic),
		)
		return pub, nil
	case "nop", "":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", c.cfg.Events.Provider)
	}
}

// ingestKnowledge queues every file of the knowledge directory for
// indexing. Workers embed in the background while the server starts.
func (c *serveCommander) ingestKnowledge(pool *ingest.Pool) error {
	loader := knowledge.NewLoader(c.cfg.Knowledge.ChunkSize, c.cfg.Knowledge.ChunkOverlap, c.logger)
	sources, err := loader.LoadDir(c.cfg.Knowledge.Dir)
	if err != nil {
		return fmt.Errorf("loading knowledge dir: %w", err)
	}

	for _, src := range sources {
		pool.Enqueue(ingest.Job{Source: src})
	}

	c.logger.Info("knowledge ingestion queued",
		zap.String("dir", c.cfg.Knowledge.Dir),
		zap.Int("sources", len(sources)),
	)
	return nil
}
