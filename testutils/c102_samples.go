package testutils

import "github.com/securego/conform"

// SampleCodeC102 - the unsafe package
var SampleCodeC102 = []CodeSample{
	{[]string{`
package main

import (
	"fmt"
	"unsafe"
)

type Fake struct{}

func main() {
	f := Fake{}
	fmt.Println(unsafe.Sizeof(f))
	p := unsafe.Pointer(&f)
	_ = p
}
`}, 2, conform.NewConfig()},
	{[]string{`
// the renamed import is flagged instead of its uses
package main

import u "unsafe"

func main() {
	var x int
	_ = u.Sizeof(x)
}
`}, 1, conform.NewConfig()},
	{[]string{`
package main

import "fmt"

func main() {
	fmt.Println("safe")
}
`}, 0, conform.NewConfig()},
}
