package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/pbmodelgen/internal/model"
)

const (
	RecordPkgPath = "github.com/cmmoran/pbmodelgen/pkg/record"
	headerComment = "Code generated by pbmodelgen. DO NOT EDIT."
)

// GenerateFile renders the IR: the collection enumeration first, then
// Record, Create and Update per collection in descriptor order.
func (p *Parser) GenerateFile() *jen.File {
	f := jen.NewFile(p.Opts.Package)
	f.HeaderComment(headerComment)
	f.ImportName(RecordPkgPath, "record")

	p.renderEnum(f)

	for _, t := range p.Triples {
		for _, shape := range t.Shapes() {
			renderShape(f, shape)
		}
	}

	return f
}

// Render writes the generated source to w.
func (p *Parser) Render(w io.Writer) error {
	return p.GenerateFile().Render(w)
}

// Bytes renders the generated source into memory.
func (p *Parser) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := p.Render(buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Parser) renderEnum(f *jen.File) {
	enum := p.Opts.EnumName

	f.Commentf("%s enumerates the collections known at generation time.", enum)
	f.Type().Id(enum).String()

	f.Const().DefsFunc(func(g *jen.Group) {
		for _, t := range p.Triples {
			g.Id(t.Enum.GoName).Id(enum).Op("=").Lit(t.Enum.Value)
		}
	})

	f.Commentf("All%s lists every %s value in generation order.", enum, enum)
	f.Var().Id("All"+enum).Op("=").Index().Id(enum).ValuesFunc(func(g *jen.Group) {
		for _, t := range p.Triples {
			g.Line().Id(t.Enum.GoName)
		}
		if len(p.Triples) > 0 {
			g.Line()
		}
	})

	f.Func().Params(jen.Id("c").Id(enum)).Id("String").Params().String().Block(
		jen.Return(jen.String().Call(jen.Id("c"))),
	)

	f.Commentf("Valid reports whether c names a generated collection.")
	if len(p.Triples) == 0 {
		f.Func().Params(jen.Id("c").Id(enum)).Id("Valid").Params().Bool().Block(
			jen.Return(jen.False()),
		)
		return
	}
	f.Func().Params(jen.Id("c").Id(enum)).Id("Valid").Params().Bool().Block(
		jen.Switch(jen.Id("c")).Block(
			jen.CaseFunc(func(g *jen.Group) {
				for _, t := range p.Triples {
					g.Id(t.Enum.GoName)
				}
			}).Block(jen.Return(jen.True())),
		),
		jen.Return(jen.False()),
	)
}

func renderShape(f *jen.File, s *model.Shape) {
	if s.Comment != "" {
		f.Comment(s.Comment)
	}
	f.Type().Id(s.Name).StructFunc(func(g *jen.Group) {
		for _, m := range s.Members {
			g.Id(m.GoName).Add(memberType(m)).Tag(map[string]string{"json": jsonTag(m)})
		}
	})
}

// memberType renders T, *T or *record.Nullable[T].
func memberType(m *model.Member) jen.Code {
	var base *jen.Statement
	if m.Type.PkgPath != "" {
		base = jen.Qual(m.Type.PkgPath, m.Type.Name)
	} else {
		base = jen.Id(m.Type.Name)
	}

	switch {
	case m.Nullable:
		return jen.Op("*").Qual(RecordPkgPath, "Nullable").Types(base)
	case m.Optional:
		return jen.Op("*").Add(base)
	default:
		return base
	}
}

func jsonTag(m *model.Member) string {
	if m.Optional || m.Nullable {
		return m.JSONName + ",omitempty"
	}
	return m.JSONName
}
