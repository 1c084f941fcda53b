// Package framework provides the cluster side of the 3scale end-to-end tests:
// a handle on the OpenShift project gateways run in, resource tracking and
// cleanup, prerequisite checks and log collection.
//
// # Quick Start
//
// Deploy a self-managed APIcast from the OpenShift template:
//
//	ctx := context.Background()
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fw, err := framework.New(ctx, "apicast-tests", framework.WithConfig(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fw.Cleanup()
//
//	prereqs, _ := fw.CheckPrerequisites()
//	if !prereqs.AllMet {
//	    log.Fatal("Prerequisites not met: ", prereqs.String())
//	}
//
//	gw, err := fw.SetupTemplateApicast(framework.ApicastRequest{Name: "apicast-staging", Staging: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gw.AddRoute("echo", "")
//
// # Context Support
//
// The context given to New is used for every Kubernetes call; cancel it to
// stop waits and cleanup early.
//
// # Package Structure
//
//   - apicast: template based APIcast deployment
//   - browser: browser sessions driven through playwright
//   - concurrent: bounded and burst execution helpers
//   - config: configuration from defaults, a settings file and the environment
//   - gateway: HTTP client for applications behind the gateway
//   - gvr: GroupVersionResource definitions
//   - navigation: page graph navigation
//   - ratelimit: rate limit policy scenarios
//   - retry: retries with exponential or Fibonacci backoff
//   - threescale: admin API client
//   - ui: admin portal views and widgets
//   - wait: polling based readiness checks
package framework
