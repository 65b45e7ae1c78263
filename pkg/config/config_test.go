package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentwire/interviewd/pkg/config"
)

var _ = Describe("InitViper", func() {
	It("applies defaults when no config file exists", func() {
		v, err := config.InitViper(filepath.Join(GinkgoT().TempDir(), "absent.yaml"))
		Expect(err).To(HaveOccurred())

		v, err = config.InitViper("")
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.Load(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Listen).To(Equal(":8000"))
		Expect(cfg.RAG.TopK).To(Equal(3))
		Expect(cfg.VectorStore.Provider).To(Equal("sqlite"))
		Expect(cfg.Events.Provider).To(Equal("nop"))
	})

	It("reads values from an explicit config file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "interviewd.yaml")
		Expect(os.WriteFile(path, []byte(`
server:
  listen: ":9000"
backend:
  model: qwen-plus
rag:
  top_k: 5
vector_store:
  provider: qdrant
  host: qdrant.internal
`), 0o644)).To(Succeed())

		v, err := config.InitViper(path)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.Load(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Listen).To(Equal(":9000"))
		Expect(cfg.Backend.Model).To(Equal("qwen-plus"))
		Expect(cfg.RAG.TopK).To(Equal(5))
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		Expect(cfg.VectorStore.Host).To(Equal("qdrant.internal"))

		// Untouched sections keep their defaults.
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		Expect(cfg.VectorStore.Port).To(Equal(6334))
	})

	It("lets environment variables override file values", func() {
		GinkgoT().Setenv("INTERVIEWD_BACKEND_MODEL", "qwen-max")

		v, err := config.InitViper("")
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.Load(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Backend.Model).To(Equal("qwen-max"))
	})
})
