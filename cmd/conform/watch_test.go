package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
)

var _ = Describe("watch", func() {
	DescribeTable("filtering events",
		func(ev fsnotify.Event, expected bool) {
			Expect(isGoSourceEvent(ev)).To(Equal(expected))
		},
		Entry("write to a go file", fsnotify.Event{Name: "main.go", Op: fsnotify.Write}, true),
		Entry("new go file", fsnotify.Event{Name: "pkg/new.go", Op: fsnotify.Create}, true),
		Entry("removed go file", fsnotify.Event{Name: "old.go", Op: fsnotify.Remove}, true),
		Entry("renamed go file", fsnotify.Event{Name: "old.go", Op: fsnotify.Rename}, true),
		Entry("chmod of a go file", fsnotify.Event{Name: "main.go", Op: fsnotify.Chmod}, false),
		Entry("write to another file", fsnotify.Event{Name: "README.md", Op: fsnotify.Write}, false),
		Entry("editor swap file", fsnotify.Event{Name: "main.go.swp", Op: fsnotify.Write}, false),
	)

	It("should watch every package directory except hidden and excluded ones", func() {
		dir := GinkgoT().TempDir()
		writeFile(dir, "main.go", "package main\n")
		writeFile(dir, "pkg/a/a.go", "package a\n")
		writeFile(dir, ".git/HEAD", "ref\n")
		writeFile(dir, "vendor/x/x.go", "package x\n")
		writeFile(dir, "generated/g.go", "package generated\n")

		w, err := fsnotify.NewWatcher()
		Expect(err).NotTo(HaveOccurred())
		defer w.Close()

		Expect(addWatchRecursive(w, dir, conform.ExcludedDirsRegExp([]string{"generated"}))).To(Succeed())
		Expect(w.WatchList()).To(ConsistOf(dir, filepath.Join(dir, "pkg"), filepath.Join(dir, "pkg", "a")))
	})
})
