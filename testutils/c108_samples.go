package testutils

import "github.com/securego/conform"

func markupFieldsConfig() conform.Config {
	cfg := conform.NewConfig()
	cfg.Set("C108", map[string]interface{}{
		"values": []interface{}{ModulePath + ".Element.InnerHTML", ModulePath + ".Element.OuterHTML"},
	})
	return cfg
}

// SampleCodeC108 - assigning markup to DOM elements
var SampleCodeC108 = []CodeSample{
	{[]string{`
package main

type Element struct {
	InnerHTML string
	OuterHTML string
}

func main() {
	v := "<img src=x onerror=alert(1)>"
	el := &Element{OuterHTML: v}
	el.InnerHTML = v
	el.InnerHTML += "<b>x</b>"
}
`}, 3, markupFieldsConfig()},
	{[]string{`
// reading the markup is fine
package main

import "fmt"

type Element struct {
	InnerHTML string
}

func main() {
	el := &Element{}
	fmt.Println(el.InnerHTML)
}
`}, 0, markupFieldsConfig()},
}
