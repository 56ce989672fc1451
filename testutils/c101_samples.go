package testutils

import "github.com/securego/conform"

// SampleCodeC101 - running external commands
var SampleCodeC101 = []CodeSample{
	{[]string{`
package main

import (
	"context"
	"os/exec"
)

func main() {
	_ = exec.Command("ls", "-l")
	_ = exec.CommandContext(context.Background(), "ls")
}
`}, 2, conform.NewConfig()},
	{[]string{`
// the reference is flagged once, not at the call
package main

import "os/exec"

func main() {
	e := exec.Command
	_ = e("ls")
}
`}, 1, conform.NewConfig()},
	{[]string{`
// methods and local functions of the same name are fine
package main

type runner struct{}

func (runner) Command(name string) {}

func Command(name string) {}

func main() {
	runner{}.Command("ls")
	Command("ls")
}
`}, 0, conform.NewConfig()},
	{[]string{`
// renamed imports do not hide the symbol
package main

import run "os/exec"

func main() {
	_ = run.Command("ls")
}
`}, 1, conform.NewConfig()},
}
