package test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/3scale-qe/testsuite/test/framework"
	"github.com/3scale-qe/testsuite/test/framework/apicast"
	"github.com/3scale-qe/testsuite/test/framework/gvr"
)

var _ = Describe("Template APIcast", Ordered, func() {
	var (
		gw        *apicast.TemplateApicast
		name      string
		outputDir string
	)

	BeforeAll(func() {
		name = fmt.Sprintf("apicast-%d", time.Now().Unix()%100000)
		outputDir = GinkgoT().TempDir()

		var err error
		gw, err = fw.SetupTemplateApicast(framework.ApicastRequest{Name: name, Staging: true})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(gw.Destroy()).To(Succeed())
		})
	})

	AfterEach(func() {
		if CurrentSpecReport().Failed() {
			if _, err := fw.CollectLogs(&framework.LogCollectionConfig{OutputDir: outputDir, TailLines: 200}); err != nil {
				GinkgoWriter.Printf("log collection failed: %v\n", err)
			}
			GinkgoWriter.Printf("logs saved to %s\n", outputDir)
		}
	})

	It("runs the staging configuration", func() {
		value, err := gw.GetEnv("THREESCALE_DEPLOYMENT_ENV")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("staging"))

		path, err := fw.DumpResource(gvr.DeploymentConfig, name, outputDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(BeAnExistingFile())
	})

	It("rolls out a changed environment", func() {
		Expect(gw.SetEnv("APICAST_LOG_LEVEL", "debug")).To(Succeed())
		Expect(fw.WaitForDeploymentConfigReady(name, cfg.DeploymentTimeout)).To(Succeed())

		value, err := gw.GetEnv("APICAST_LOG_LEVEL")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("debug"))
	})

	It("reloads", func() {
		Expect(gw.Reload()).To(Succeed())
	})

	It("exposes a route per service", func() {
		if cfg.ApicastEndpoint == "" || cfg.ServiceID == 0 {
			Skip("apicast endpoint or service is not configured")
		}
		Expect(gw.AddRoute(fmt.Sprintf("%d-extra", cfg.ServiceID), name+"-extra")).To(Succeed())
		Expect(gw.Routes()).To(ContainElement(name + "-extra"))
		Expect(gw.DeleteRoute(name + "-extra")).To(Succeed())
		Expect(gw.Routes()).NotTo(ContainElement(name + "-extra"))
	})
})
