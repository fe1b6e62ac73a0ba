// Package hk provides mechanism for registering cleanup
// functions which are invoked at specified intervals.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package hk_test

import (
	"sync/atomic"
	"time"

	"github.com/nalix-net/nalix/hk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Housekeeper", func() {
	It("fires a registered job repeatedly off the shared ticker", func() {
		var n int32
		hk.Reg("counter", func() time.Duration {
			atomic.AddInt32(&n, 1)
			return 10 * time.Millisecond
		}, 10*time.Millisecond)
		defer hk.Unreg("counter")

		Eventually(func() int32 {
			return atomic.LoadInt32(&n)
		}, 3*time.Second, 10*time.Millisecond).Should(BeNumerically(">=", 2))
	})

	It("stops firing a job after it is unregistered", func() {
		var n int32
		hk.Reg("onceoff", func() time.Duration {
			atomic.AddInt32(&n, 1)
			return 10 * time.Millisecond
		}, 10*time.Millisecond)

		Eventually(func() int32 {
			return atomic.LoadInt32(&n)
		}, 3*time.Second, 10*time.Millisecond).Should(BeNumerically(">=", 1))

		hk.Unreg("onceoff")
		snapshot := atomic.LoadInt32(&n)
		Consistently(func() int32 {
			return atomic.LoadInt32(&n)
		}, 200*time.Millisecond, 20*time.Millisecond).Should(Equal(snapshot))
	})
})
