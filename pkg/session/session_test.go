package session_test

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentwire/interviewd/pkg/session"
)

var _ = Describe("Store", func() {
	var store *session.Store

	BeforeEach(func() {
		store = session.NewStore()
	})

	It("starts empty", func() {
		_, ok := store.Get()
		Expect(ok).To(BeFalse())
	})

	It("returns the context that was set", func() {
		store.Set(&session.Context{SystemPrompt: "You are an interviewer.", Tags: []string{"golang"}})

		ctx, ok := store.Get()
		Expect(ok).To(BeTrue())
		Expect(ctx.SystemPrompt).To(Equal("You are an interviewer."))
		Expect(ctx.Tags).To(ConsistOf("golang"))
	})

	It("replaces the prior context wholesale, transcript included", func() {
		store.Set(&session.Context{SystemPrompt: "first"})
		store.AppendTranscript("user", "hello")

		store.Set(&session.Context{SystemPrompt: "second"})

		ctx, ok := store.Get()
		Expect(ok).To(BeTrue())
		Expect(ctx.SystemPrompt).To(Equal("second"))
		Expect(ctx.Transcript).To(BeEmpty())
	})

	It("clears the current context", func() {
		store.Set(&session.Context{SystemPrompt: "x"})
		store.Clear()

		_, ok := store.Get()
		Expect(ok).To(BeFalse())
	})

	Describe("AppendTranscript", func() {
		It("appends turns in order", func() {
			store.Set(&session.Context{})
			store.AppendTranscript("user", "q1")
			store.AppendTranscript("assistant", "a1")

			ctx, _ := store.Get()
			Expect(ctx.Transcript).To(HaveLen(2))
			Expect(ctx.Transcript[0].Role).To(Equal("user"))
			Expect(ctx.Transcript[0].Content).To(Equal("q1"))
			Expect(ctx.Transcript[1].Role).To(Equal("assistant"))
		})

		It("skips blank content", func() {
			store.Set(&session.Context{})
			store.AppendTranscript("user", "   ")

			ctx, _ := store.Get()
			Expect(ctx.Transcript).To(BeEmpty())
		})

		It("is a no-op without a current context", func() {
			store.AppendTranscript("user", "lost")
			_, ok := store.Get()
			Expect(ok).To(BeFalse())
		})

		It("does not mutate previously returned snapshots", func() {
			store.Set(&session.Context{})
			store.AppendTranscript("user", "first")

			before, _ := store.Get()
			store.AppendTranscript("assistant", "second")

			Expect(before.Transcript).To(HaveLen(1))

			after, _ := store.Get()
			Expect(after.Transcript).To(HaveLen(2))
		})

		It("loses no turns under concurrent appends", func() {
			store.Set(&session.Context{})

			const writers = 8
			const perWriter = 50

			var wg sync.WaitGroup
			for w := 0; w < writers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWriter; i++ {
						store.AppendTranscript("user", fmt.Sprintf("w%d-%d", w, i))
					}
				}(w)
			}
			wg.Wait()

			ctx, _ := store.Get()
			Expect(ctx.Transcript).To(HaveLen(writers * perWriter))
		})
	})
})
