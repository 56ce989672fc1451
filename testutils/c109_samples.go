package testutils

import "github.com/securego/conform"

// SampleCodeC109 - computed binary paths
var SampleCodeC109 = []CodeSample{
	{[]string{`
package main

import (
	"os"
	"os/exec"
)

func main() {
	cmd := &exec.Cmd{Path: os.Getenv("BIN")}
	cmd.Path = os.Args[1]
	_ = cmd
}
`}, 2, conform.NewConfig()},
	{[]string{`
package main

import "os/exec"

const bin = "/usr/bin/true"

func main() {
	cmd := &exec.Cmd{Path: "/bin/ls"}
	cmd.Path = bin
	_ = cmd
}
`}, 0, conform.NewConfig()},
	{[]string{`
// local string constants
package main

import "os/exec"

func main() {
	const v = "safe"
	const dir = "/usr/" + "bin/"
	cmd := &exec.Cmd{}
	cmd.Path = v
	cmd.Path = dir + v
	cmd.Path += v
	_ = cmd
}
`}, 0, conform.NewConfig()},
	{[]string{`
// variables can be reassigned before the write
package main

import "os/exec"

func main() {
	v := "safe"
	cmd := &exec.Cmd{}
	cmd.Path = v
	_ = cmd
}
`}, 1, conform.NewConfig()},
}
