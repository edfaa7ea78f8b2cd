package xpbd_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/xpbd/internal/xpbd"
)

func TestXPBD(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "XPBD Suite")
}

const tol = 1e-9

func newScene() *xpbd.Scene {
	s, err := xpbd.NewScene(xpbd.DefaultParams())
	Expect(err).NotTo(HaveOccurred())
	return s
}
