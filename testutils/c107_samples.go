package testutils

import "github.com/securego/conform"

func elementTypesConfig() conform.Config {
	cfg := conform.NewConfig()
	cfg.Set("C107", map[string]interface{}{
		"element-types": []interface{}{ModulePath + ".Element"},
	})
	return cfg
}

const elementDecl = `
type Element struct{}

func (e *Element) SetAttribute(name, value string) {}

func (e *Element) SetAttributeNS(ns, name, value string) {}
`

// SampleCodeC107 - setting attributes of DOM elements
var SampleCodeC107 = []CodeSample{
	{[]string{`
package main
` + elementDecl + `
func main() {
	el := &Element{}
	el.SetAttribute("src", "https://example.com/x.js")
	el.SetAttribute("SRC", "https://example.com/x.js")
	el.SetAttribute("onclick", "alert(1)")
	el.SetAttributeNS("", "srcdoc", "<b>x</b>")
}
`}, 4, elementTypesConfig()},
	{[]string{`
package main
` + elementDecl + `
func main() {
	el := &Element{}
	el.SetAttribute("data-x", "1")
	el.SetAttribute("on", "1")
	el.SetAttribute("class", "big")
	el.SetAttributeNS("", "class", "big")
}
`}, 0, elementTypesConfig()},
	{[]string{`
// namespaced attributes
package main
` + elementDecl + `
const xlink = "http://www.w3.org/1999/xlink"

func main() {
	el := &Element{}
	el.SetAttributeNS(xlink, "href", "#top")
	el.SetAttributeNS("http://www.w3.org/2000/svg", "class", "big")
}
`}, 2, elementTypesConfig()},
	{[]string{`
// names which are not constant
package main
` + elementDecl + `
func main() {
	el := &Element{}
	name := "class"
	el.SetAttribute(name, "big")
	set := el.SetAttribute
	set("src", "x")
}
`}, 2, elementTypesConfig()},
	{[]string{`
// other types with the same method
package main

type node struct{}

func (node) SetAttribute(name, value string) {}

func main() {
	node{}.SetAttribute("src", "x")
}
`}, 0, elementTypesConfig()},
}
