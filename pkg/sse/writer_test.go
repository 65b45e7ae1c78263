package sse

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("frames a data event with a terminating blank line", func() {
		w := NewWriter(buf)
		Expect(w.WriteData(`{"id":"chatcmpl-1"}`)).To(Succeed())
		Expect(buf.String()).To(Equal("data: {\"id\":\"chatcmpl-1\"}\n\n"))
	})

	It("splits multi-line payloads into one data line each", func() {
		w := NewWriter(buf)
		Expect(w.WriteData("line one\nline two")).To(Succeed())
		Expect(buf.String()).To(Equal("data: line one\ndata: line two\n\n"))
	})

	It("frames a named event", func() {
		w := NewWriter(buf)
		Expect(w.WriteEvent("error", `{"error":{"message":"boom","type":"upstream_error"}}`)).To(Succeed())
		Expect(buf.String()).To(HavePrefix("event: error\n"))
		Expect(buf.String()).To(ContainSubstring("data: {\"error\""))
		Expect(buf.String()).To(HaveSuffix("\n\n"))
	})

	It("writes comments that a Reader ignores", func() {
		w := NewWriter(buf)
		Expect(w.WriteComment("keep-alive")).To(Succeed())
		Expect(w.WriteData("payload")).To(Succeed())

		r := NewReader(bytes.NewReader(buf.Bytes()))
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("payload"))
	})

	It("round-trips through the Reader", func() {
		w := NewWriter(buf)
		Expect(w.WriteData("first")).To(Succeed())
		Expect(w.WriteData("[DONE]")).To(Succeed())

		r := NewReader(bytes.NewReader(buf.Bytes()))
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("first"))

		ev, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("[DONE]"))
	})
})
