package rag_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/logger"
	"github.com/talentwire/interviewd/pkg/rag"
	testutils "github.com/talentwire/interviewd/pkg/utils/test"
	"github.com/talentwire/interviewd/pkg/vector"
)

// fakeDriver records queries and serves canned documents with optional tag
// filtering, mirroring how the real drivers behave.
type fakeDriver struct {
	docs    []vector.QueryResult
	queries []*vector.Filter
	failing bool
}

func (f *fakeDriver) Add(context.Context, []vector.Document) error { return nil }

func (f *fakeDriver) Query(_ context.Context, _ []float32, topK int, filter *vector.Filter) ([]vector.QueryResult, error) {
	f.queries = append(f.queries, filter)
	if f.failing {
		return nil, errors.New("index unreachable")
	}

	var out []vector.QueryResult
	for _, doc := range f.docs {
		if filter.Matches(doc.Document) {
			out = append(out, doc)
		}
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (f *fakeDriver) Get(context.Context, []string) ([]vector.Document, error) { return nil, nil }
func (f *fakeDriver) Delete(context.Context, []string) error                   { return nil }
func (f *fakeDriver) Close() error                                             { return nil }

var _ = Describe("Engine", func() {
	var (
		driver   *fakeDriver
		embedder *testutils.MockEmbedder
		engine   *rag.Engine
	)

	BeforeEach(func() {
		driver = &fakeDriver{
			docs: []vector.QueryResult{
				{Document: vector.Document{ID: "goroutines-0", Text: "Goroutines are cheap.", Tags: []string{"golang"}}, Score: 0.9},
				{Document: vector.Document{ID: "gc-0", Text: "The collector is concurrent.", Tags: []string{"golang", "runtime"}}, Score: 0.8},
				{Document: vector.Document{ID: "indexes-0", Text: "Indexes speed up reads.", Tags: []string{"database"}}, Score: 0.7},
			},
		}
		embedder = testutils.NewMockEmbedder()
		engine = rag.NewEngine(embedder, driver, 3, logger.Nop())
	})

	Describe("Retrieve", func() {
		It("returns nothing for a blank query", func() {
			Expect(engine.Retrieve(context.Background(), "   ", nil)).To(BeEmpty())
			Expect(driver.queries).To(BeEmpty())
		})

		It("returns passages with source annotations and scores", func() {
			passages := engine.Retrieve(context.Background(), "how do goroutines work", nil)
			Expect(passages).To(HaveLen(3))
			Expect(passages[0].Source).To(Equal("goroutines-0"))
			Expect(passages[0].Text).To(Equal("Goroutines are cheap."))
			Expect(passages[0].Score).To(BeNumerically("~", 0.9, 0.001))
		})

		It("normalizes tags to lower case before filtering", func() {
			passages := engine.Retrieve(context.Background(), "q", []string{" GoLang "})
			Expect(passages).To(HaveLen(2))
			Expect(driver.queries).To(HaveLen(1))
			Expect(driver.queries[0].Tags).To(Equal([]string{"golang"}))
		})

		It("falls back to unfiltered search when tags match nothing", func() {
			passages := engine.Retrieve(context.Background(), "q", []string{"kubernetes"})
			Expect(passages).To(HaveLen(3))
			Expect(driver.queries).To(HaveLen(2))
			Expect(driver.queries[0]).NotTo(BeNil())
			Expect(driver.queries[1]).To(BeNil())
		})

		It("swallows index failures and returns an empty result", func() {
			driver.failing = true
			Expect(engine.Retrieve(context.Background(), "q", nil)).To(BeEmpty())
		})

		It("swallows embedding failures and returns an empty result", func() {
			embedder.FailOn = "bad query"
			Expect(engine.Retrieve(context.Background(), "bad query", nil)).To(BeEmpty())
			Expect(driver.queries).To(BeEmpty())
		})
	})
})

var _ = Describe("Assemble", func() {
	passages := []rag.Passage{
		{Source: "jvm-0", Text: "The JVM compiles hot paths."},
		{Source: "jvm-1", Text: "Garbage collection is generational."},
	}

	It("is the identity when no passages were retrieved", func() {
		base := []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "You are an interviewer."),
			llm.NewTextMessage(llm.RoleUser, "Hi"),
		}
		out := rag.Assemble(base, nil)
		Expect(out).To(Equal(base))
	})

	It("appends the augmentation to an existing leading system message", func() {
		base := []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "You are an interviewer."),
			llm.NewTextMessage(llm.RoleUser, "Tell me about the JVM"),
		}
		out := rag.Assemble(base, passages)

		Expect(out).To(HaveLen(2))
		Expect(out[0].Role).To(Equal(llm.RoleSystem))
		Expect(out[0].GetText()).To(HavePrefix("You are an interviewer."))
		Expect(out[0].GetText()).To(ContainSubstring("[source: jvm-0] The JVM compiles hot paths."))
		Expect(out[0].GetText()).To(ContainSubstring("[source: jvm-1] Garbage collection is generational."))
		Expect(out[1].GetText()).To(Equal("Tell me about the JVM"))
	})

	It("does not mutate the caller's message slice", func() {
		base := []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "Prompt."),
			llm.NewTextMessage(llm.RoleUser, "Q"),
		}
		rag.Assemble(base, passages)
		Expect(base[0].GetText()).To(Equal("Prompt."))
	})

	It("inserts a new system message at position 0 when none exists", func() {
		base := []llm.Message{
			llm.NewTextMessage(llm.RoleUser, "Q1"),
			llm.NewTextMessage(llm.RoleAssistant, "A1"),
		}
		out := rag.Assemble(base, passages)

		Expect(out).To(HaveLen(3))
		Expect(out[0].Role).To(Equal(llm.RoleSystem))
		Expect(out[0].GetText()).To(HavePrefix("[source: jvm-0]"))
		Expect(out[1].GetText()).To(Equal("Q1"))
		Expect(out[2].GetText()).To(Equal("A1"))
	})
})
