package testutils

import "github.com/securego/conform"

// SampleCodeC103 - net/http/cgi
var SampleCodeC103 = []CodeSample{
	{[]string{`
package main

import (
	"net/http"
	"net/http/cgi"
)

func main() {
	_ = cgi.Serve(http.FileServer(http.Dir("/usr/share/doc")))
}
`}, 1, conform.NewConfig()},
	{[]string{`
package main

import "net/http"

func main() {
	_ = http.ListenAndServe(":8080", http.FileServer(http.Dir("/usr/share/doc")))
}
`}, 0, conform.NewConfig()},
}
