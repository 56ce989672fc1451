package testutils

import "github.com/securego/conform"

// SampleCodeC104 - TLS certificate verification
var SampleCodeC104 = []CodeSample{
	{[]string{`
package main

import (
	"crypto/tls"
	"net/http"
)

func main() {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	_ = &http.Client{Transport: tr}
}
`}, 1, conform.NewConfig()},
	{[]string{`
// InsecureSkipVerify from variable
package main

import "crypto/tls"

func main() {
	var conf tls.Config
	conf.InsecureSkipVerify = true
}
`}, 1, conform.NewConfig()},
	{[]string{`
// reading the setting is fine
package main

import (
	"crypto/tls"
	"fmt"
)

func main() {
	conf := &tls.Config{MinVersion: tls.VersionTLS12}
	fmt.Println(conf.InsecureSkipVerify)
}
`}, 0, conform.NewConfig()},
	{[]string{`
// a field of the same name on another type
package main

type options struct {
	InsecureSkipVerify bool
}

func main() {
	o := options{InsecureSkipVerify: true}
	o.InsecureSkipVerify = false
}
`}, 0, conform.NewConfig()},
}
