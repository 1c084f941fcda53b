package policy

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/3scale-qe/testsuite/test/framework/gateway"
	"github.com/3scale-qe/testsuite/test/framework/ratelimit"
	"github.com/3scale-qe/testsuite/test/framework/threescale"
)

// configure adds the policy to the chain of serviceID, publishes it to the
// staging gateway and restores the previous chain afterwards.
func configure(ctx context.Context, serviceID int64, c ratelimit.Case) {
	original, err := admin.Policies(ctx, serviceID)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func(ctx SpecContext) {
		_, err := admin.UpdatePolicies(ctx, serviceID, original)
		Expect(err).NotTo(HaveOccurred())
		Expect(admin.DeployProxy(ctx, serviceID)).To(Succeed())
	})

	if c.Prepend {
		_, err = admin.InsertPolicy(ctx, serviceID, 0, c.Policy)
	} else {
		_, err = admin.AppendPolicy(ctx, serviceID, c.Policy)
	}
	Expect(err).NotTo(HaveOccurred())
	Expect(admin.DeployProxy(ctx, serviceID)).To(Succeed())
}

func newClient(endpoint, userKey string) *gateway.Client {
	c, err := gateway.NewClient(gateway.Config{
		Endpoint:  endpoint,
		UserKey:   userKey,
		Timeout:   cfg.HTTPTimeout,
		VerifyTLS: cfg.VerifyTLS,
		Logger:    logger,
	})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(c.Close)
	return c
}

var _ = Describe("Rate limit leaky bucket", Label("flaky"), func() {
	entries := []TableEntry{}
	for _, c := range ratelimit.LeakyBucketCases() {
		entries = append(entries, Entry(c.Name, c))
	}

	DescribeTable("limits simultaneous requests",
		func(ctx SpecContext, c ratelimit.Case) {
			// service scope: two applications of one service,
			// global scope: one application of each service
			client := newClient(cfg.GatewayEndpoint, cfg.UserKey)
			var client2 *gateway.Client
			if c.Scope == ratelimit.ScopeService {
				client2 = newClient(cfg.GatewayEndpoint, cfg.UserKey2)
				configure(ctx, cfg.ServiceID, c)
			} else {
				if cfg.Service2ID == 0 || cfg.Gateway2Endpoint == "" || cfg.Service2UserKey == "" {
					Skip("second service is not configured")
				}
				client2 = newClient(cfg.Gateway2Endpoint, cfg.Service2UserKey)
				configure(ctx, cfg.ServiceID, c)
				configure(ctx, cfg.Service2ID, c)
			}

			codes, err := ratelimit.RetryUntilStable(ctx, client, client2, c.Applied, ratelimit.WithLogger(logger))
			Expect(err).NotTo(HaveOccurred())
			GinkgoWriter.Printf("%s: status codes %v\n", c.Name, codes)
			Expect(ratelimit.Verify(c.Applied, codes)).To(Succeed())
		},
		entries,
	)
})

var _ = Describe("Policy chain", func() {
	It("appends a disabled policy and restores the chain", func(ctx SpecContext) {
		original, err := admin.Policies(ctx, cfg.ServiceID)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func(ctx SpecContext) {
			_, err := admin.UpdatePolicies(ctx, cfg.ServiceID, original)
			Expect(err).NotTo(HaveOccurred())
		})

		policy := threescale.Policy{Name: "echo", Version: "builtin", Enabled: false, Configuration: map[string]any{}}
		chain, err := admin.AppendPolicy(ctx, cfg.ServiceID, policy)
		Expect(err).NotTo(HaveOccurred())
		Expect(chain).To(HaveLen(len(original) + 1))
		Expect(chain[len(chain)-1].Name).To(Equal("echo"))
	})
})
