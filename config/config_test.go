package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachecoherence/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	It("has a valid default configuration", func() {
		cfg := config.Default()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.Levels).To(HaveLen(3))
	})

	It("round-trips through JSON on disk", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "cfg.json")

		cfg := config.Default()
		cfg.Levels[0].TagsAccessTime = 99
		Expect(cfg.Save(path)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded.Levels[0].TagsAccessTime).To(Equal(uint64(99)))
	})

	It("rejects a non-power-of-two block size", func() {
		cfg := config.Default()
		cfg.Levels[0].BlockSize = 48
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects a write-through last-level cache", func() {
		cfg := config.Default()
		cfg.Levels[len(cfg.Levels)-1].WriteThrough = true
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("errors on a missing config file", func() {
		_, err := config.Load(filepath.Join(os.TempDir(), "does-not-exist-cachecoherence.json"))
		Expect(err).To(HaveOccurred())
	})

	It("derives set count from size/associativity/block size", func() {
		lvl := config.LevelConfig{Size: 4096, Associativity: 4, BlockSize: 64}
		Expect(lvl.NumSets()).To(Equal(16))
	})
})
