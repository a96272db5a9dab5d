// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package verify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/mcsunnyside/onlinemodeverify/internal/identity"
	"github.com/mcsunnyside/onlinemodeverify/internal/mojang"
	"github.com/mcsunnyside/onlinemodeverify/internal/verify"
)

// fakeSessionServer answers profile lookups from a per-identifier status
// table and counts requests per identifier.
type fakeSessionServer struct {
	mu       sync.Mutex
	statuses map[string]int
	hits     map[string]int
	srv      *httptest.Server
}

func newFakeSessionServer() *fakeSessionServer {
	f := &fakeSessionServer{statuses: map[string]int{}, hits: map[string]int{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		compact := strings.TrimPrefix(r.URL.Path, "/session/minecraft/profile/")
		f.mu.Lock()
		f.hits[compact]++
		status, ok := f.statuses[compact]
		f.mu.Unlock()
		if !ok {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
	}))
	return f
}

func (f *fakeSessionServer) answer(id uuid.UUID, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[identity.Compact(id)] = status
}

func (f *fakeSessionServer) requests(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[identity.Compact(id)]
}

var _ = Describe("Gate against a session server", func() {
	var (
		session *fakeSessionServer
		cache   *verify.Cache
		gate    *verify.Gate
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		session = newFakeSessionServer()
		DeferCleanup(session.srv.Close)

		client, err := mojang.NewClient(mojang.Config{SessionURL: session.srv.URL, Timeout: 2 * time.Second})
		Expect(err).NotTo(HaveOccurred())

		cache = verify.NewCache(verify.DefaultExpiry)
		gate, err = verify.NewGate(cache, client, verify.Options{Messages: testMessages, Coalesce: true})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects an offline identifier without contacting the session server", func() {
		u1 := identity.OfflineUUID("Steve")

		decision, err := gate.Resolve(ctx, u1, "Steve")

		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Result).To(Equal(verify.RejectNotPremium))
		Expect(decision.Message).To(Equal(testMessages.NotPremium))
		Expect(session.requests(u1)).To(BeZero())
	})

	It("admits and caches an account the session server knows", func() {
		u2 := uuid.New()
		session.answer(u2, http.StatusOK)

		decision, err := gate.Resolve(ctx, u2, "Notch")

		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Result).To(Equal(verify.Admit))
		premium, ok := cache.Get(u2)
		Expect(ok).To(BeTrue())
		Expect(premium).To(BeTrue())
	})

	It("rejects and caches an account the session server does not know", func() {
		u3 := uuid.New()
		session.answer(u3, http.StatusNoContent)

		decision, err := gate.Resolve(ctx, u3, "Herobrine")

		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Result).To(Equal(verify.RejectNotPremium))
		premium, ok := cache.Get(u3)
		Expect(ok).To(BeTrue())
		Expect(premium).To(BeFalse())
	})

	It("rejects without caching while the session server is failing", func() {
		u4 := uuid.New()
		session.answer(u4, http.StatusServiceUnavailable)

		decision, err := gate.Resolve(ctx, u4, "Alex")

		Expect(err).To(HaveOccurred())
		Expect(decision.Result).To(Equal(verify.RejectServiceUnavailable))
		Expect(decision.Message).To(Equal(testMessages.ServiceDown))
		_, ok := cache.Get(u4)
		Expect(ok).To(BeFalse())

		_, err = gate.Resolve(ctx, u4, "Alex")
		Expect(err).To(HaveOccurred())
		Expect(session.requests(u4)).To(Equal(2))
	})

	It("rejects without caching when the session server is unreachable", func() {
		u4 := uuid.New()
		session.srv.Close()

		decision, err := gate.Resolve(ctx, u4, "Alex")

		Expect(err).To(HaveOccurred())
		Expect(decision.Result).To(Equal(verify.RejectServiceUnavailable))
		Expect(cache.Len()).To(BeZero())
	})

	It("answers a repeated attempt from the cache", func() {
		u2 := uuid.New()
		session.answer(u2, http.StatusOK)

		first, err := gate.Resolve(ctx, u2, "Notch")
		Expect(err).NotTo(HaveOccurred())
		second, err := gate.Resolve(ctx, u2, "Notch")
		Expect(err).NotTo(HaveOccurred())

		Expect(second.Result).To(Equal(first.Result))
		Expect(session.requests(u2)).To(Equal(1))
	})

	Context("with a short expiry", func() {
		BeforeEach(func() {
			client, err := mojang.NewClient(mojang.Config{SessionURL: session.srv.URL})
			Expect(err).NotTo(HaveOccurred())
			cache = verify.NewCache(100 * time.Millisecond)
			gate, err = verify.NewGate(cache, client, verify.Options{Messages: testMessages})
			Expect(err).NotTo(HaveOccurred())
		})

		It("resolves again once an entry has been idle past the expiry", func() {
			u2 := uuid.New()
			session.answer(u2, http.StatusOK)

			_, err := gate.Resolve(ctx, u2, "Notch")
			Expect(err).NotTo(HaveOccurred())
			time.Sleep(250 * time.Millisecond)
			_, err = gate.Resolve(ctx, u2, "Notch")
			Expect(err).NotTo(HaveOccurred())

			Expect(session.requests(u2)).To(Equal(2))
		})
	})
})
