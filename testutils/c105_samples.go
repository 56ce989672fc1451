package testutils

import "github.com/securego/conform"

// SampleCodeC105 - unsafe reflection
var SampleCodeC105 = []CodeSample{
	{[]string{`
package main

import "reflect"

func main() {
	x := 1
	v := reflect.ValueOf(&x).Elem()
	_ = v.UnsafeAddr()
	_ = v.Addr().UnsafePointer()
}
`}, 2, conform.NewConfig()},
	{[]string{`
package main

import "reflect"

func main() {
	x := 1
	_ = reflect.ValueOf(x).Int()
}
`}, 0, conform.NewConfig()},
}
