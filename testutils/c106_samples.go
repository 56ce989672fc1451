package testutils

import "github.com/securego/conform"

// SampleCodeC106 - conversions to html/template types
var SampleCodeC106 = []CodeSample{
	{[]string{`
package main

import (
	"html/template"
	"os"
)

const tmpl = ""

func main() {
	t := template.Must(template.New("ex").Parse(tmpl))
	v := map[string]interface{}{
		"Title": "Test <b>World</b>",
		"Body":  template.HTML("<script>alert(1)</script>"),
	}
	_ = t.Execute(os.Stdout, v)
}
`}, 0, conform.NewConfig()},
	{[]string{`
package main

import (
	"html/template"
	"os"
)

const tmpl = ""

func main() {
	a := "something from another place"
	t := template.Must(template.New("ex").Parse(tmpl))
	v := map[string]interface{}{
		"Title": "Test <b>World</b>",
		"Body":  template.HTML(a),
	}
	_ = t.Execute(os.Stdout, v)
}
`}, 1, conform.NewConfig()},
	{[]string{`
package main

import (
	"html/template"
	"os"
)

const tmpl = ""

func main() {
	a := "something from another place"
	t := template.Must(template.New("ex").Parse(tmpl))
	v := map[string]interface{}{
		"Title":  "Test <b>World</b>",
		"Script": template.JS(a),
		"Link":   template.URL(a),
	}
	_ = t.Execute(os.Stdout, v)
}
`}, 2, conform.NewConfig()},
	{[]string{`
// values that already carry the type are not checked again
package main

import "html/template"

func wrap(h template.HTML) template.HTML {
	return template.HTML(h)
}

func main() {
	_ = wrap(template.HTML("<b>bold</b>"))
}
`}, 0, conform.NewConfig()},
}
